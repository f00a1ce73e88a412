package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Store owns every entity and relationship of a run. It is not safe for
// concurrent use; a run drives it from a single goroutine.
type Store struct {
	entities      map[string]*Entity
	order         []string
	relationships []Relationship
	tick          int
	pressures     map[string]float64
	eras          []string
	currentEra    string
	cooldowns     map[string]int
	nextID        int
}

func NewStore() *Store {
	return &Store{
		entities:  make(map[string]*Entity),
		pressures: make(map[string]float64),
		cooldowns: make(map[string]int),
	}
}

func (s *Store) Tick() int {
	return s.tick
}

func (s *Store) SetTick(tick int) {
	s.tick = tick
}

func (s *Store) AdvanceTick() int {
	s.tick++
	return s.tick
}

// AddEntity inserts a copy of e and returns its id. A missing id is
// generated from the kind.
func (s *Store) AddEntity(e Entity) (string, error) {
	if strings.TrimSpace(e.Kind) == "" {
		return "", fmt.Errorf("entity kind is required")
	}
	if e.ID == "" {
		for {
			s.nextID++
			candidate := fmt.Sprintf("%s_%d", e.Kind, s.nextID)
			if _, exists := s.entities[candidate]; !exists {
				e.ID = candidate
				break
			}
		}
	}
	if _, exists := s.entities[e.ID]; exists {
		return "", fmt.Errorf("duplicate entity id: %s", e.ID)
	}
	if e.Name == "" {
		e.Name = e.ID
	}
	stored := e.clone()
	stored.Links = nil
	stored.CreatedAt = s.tick
	stored.UpdatedAt = s.tick
	s.entities[e.ID] = &stored
	s.order = append(s.order, e.ID)
	return e.ID, nil
}

// RemoveEntity drops the node only. Relationships that still reference it
// stay in the canonical list until relationship maintenance sweeps them.
func (s *Store) RemoveEntity(id string) bool {
	if _, ok := s.entities[id]; !ok {
		return false
	}
	delete(s.entities, id)
	for i, candidate := range s.order {
		if candidate == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Entity returns the live entity. Callers outside Store must treat it as
// read-only and go through UpdateEntity or Apply to change it.
func (s *Store) Entity(id string) (*Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// Snapshot returns a deep copy of the entity.
func (s *Store) Snapshot(id string) (Entity, bool) {
	e, ok := s.entities[id]
	if !ok {
		return Entity{}, false
	}
	return e.clone(), true
}

// Entities returns every entity in insertion order.
func (s *Store) Entities() []*Entity {
	out := make([]*Entity, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entities[id])
	}
	return out
}

func (s *Store) FindEntities(kind, subtype, status string) []*Entity {
	var out []*Entity
	for _, id := range s.order {
		e := s.entities[id]
		if kind != "" && e.Kind != kind {
			continue
		}
		if subtype != "" && e.Subtype != subtype {
			continue
		}
		if status != "" && e.Status != status {
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *Store) EntityCount() int {
	return len(s.order)
}

func (s *Store) UpdateEntity(id string, changes EntityChanges) error {
	e, ok := s.entities[id]
	if !ok {
		return fmt.Errorf("entity not found: %s", id)
	}
	changes.applyTo(e)
	e.UpdatedAt = s.tick
	return nil
}

func (s *Store) RecordCatalyst(id string, event CatalyzedEvent) error {
	e, ok := s.entities[id]
	if !ok {
		return fmt.Errorf("entity not found: %s", id)
	}
	if event.Tick == 0 {
		event.Tick = s.tick
	}
	e.CatalyzedEvents = append(e.CatalyzedEvents, event)
	return nil
}

// Relationships returns a copy of the canonical relationship list.
func (s *Store) Relationships() []Relationship {
	return append([]Relationship(nil), s.relationships...)
}

func (s *Store) RelationshipCount() int {
	return len(s.relationships)
}

func (s *Store) HasRelationship(kind, src, dst string) bool {
	_, ok := s.findRelationship(kind, src, dst)
	return ok
}

func (s *Store) Relationship(kind, src, dst string) (Relationship, bool) {
	i, ok := s.findRelationship(kind, src, dst)
	if !ok {
		return Relationship{}, false
	}
	return s.relationships[i], true
}

// Connected reports whether any relationship of kind joins a and b in
// either direction.
func (s *Store) Connected(kind, a, b string) bool {
	return s.HasRelationship(kind, a, b) || s.HasRelationship(kind, b, a)
}

func (s *Store) findRelationship(kind, src, dst string) (int, bool) {
	for i, rel := range s.relationships {
		if rel.Same(kind, src, dst) {
			return i, true
		}
	}
	return -1, false
}

// AddRelationship appends r to the canonical list and mirrors it onto both
// endpoints. It reports false when an identical relationship already exists.
func (s *Store) AddRelationship(r Relationship) (bool, error) {
	if strings.TrimSpace(r.Kind) == "" {
		return false, fmt.Errorf("relationship kind is required")
	}
	src, ok := s.entities[r.Src]
	if !ok {
		return false, fmt.Errorf("relationship source not found: %s", r.Src)
	}
	dst, ok := s.entities[r.Dst]
	if !ok {
		return false, fmt.Errorf("relationship destination not found: %s", r.Dst)
	}
	if s.HasRelationship(r.Kind, r.Src, r.Dst) {
		return false, nil
	}
	if r.Strength != nil {
		r.Strength = Float(*r.Strength)
	}
	if r.Distance != nil {
		r.Distance = Float(*r.Distance)
	}
	r.CreatedAt = s.tick
	s.relationships = append(s.relationships, r)
	src.Links = append(src.Links, r)
	if dst != src {
		dst.Links = append(dst.Links, r)
	}
	return true, nil
}

// RemoveRelationships deletes every relationship for which remove returns
// true from the canonical list and from both endpoint mirrors, returning the
// removed relationships in canonical order.
func (s *Store) RemoveRelationships(remove func(Relationship) bool) []Relationship {
	var removed []Relationship
	kept := s.relationships[:0]
	for _, rel := range s.relationships {
		if remove(rel) {
			removed = append(removed, rel)
			continue
		}
		kept = append(kept, rel)
	}
	s.relationships = kept
	for _, rel := range removed {
		s.unlink(rel.Src, rel)
		if rel.Dst != rel.Src {
			s.unlink(rel.Dst, rel)
		}
	}
	return removed
}

func (s *Store) RemoveRelationship(kind, src, dst string) bool {
	removed := s.RemoveRelationships(func(r Relationship) bool {
		return r.Same(kind, src, dst)
	})
	return len(removed) > 0
}

func (s *Store) unlink(id string, rel Relationship) {
	e, ok := s.entities[id]
	if !ok {
		return
	}
	links := e.Links[:0]
	for _, link := range e.Links {
		if link.Same(rel.Kind, rel.Src, rel.Dst) {
			continue
		}
		links = append(links, link)
	}
	e.Links = links
}

// SetStrength rewrites the strength of one relationship in the canonical
// list and in both mirrors.
func (s *Store) SetStrength(kind, src, dst string, strength float64) bool {
	i, ok := s.findRelationship(kind, src, dst)
	if !ok {
		return false
	}
	s.relationships[i].Strength = Float(strength)
	for _, id := range []string{src, dst} {
		e, ok := s.entities[id]
		if !ok {
			continue
		}
		for j := range e.Links {
			if e.Links[j].Same(kind, src, dst) {
				e.Links[j].Strength = Float(strength)
			}
		}
	}
	return true
}

// RelationshipsOf returns the mirrored links of id, optionally limited to
// one kind.
func (s *Store) RelationshipsOf(id, kind string) []Relationship {
	e, ok := s.entities[id]
	if !ok {
		return nil
	}
	var out []Relationship
	for _, link := range e.Links {
		if kind != "" && link.Kind != kind {
			continue
		}
		out = append(out, link)
	}
	return out
}

func (s *Store) Pressure(name string) float64 {
	return s.pressures[name]
}

func (s *Store) SetPressure(name string, value float64) {
	s.pressures[name] = value
}

func (s *Store) AdjustPressure(name string, delta float64) float64 {
	s.pressures[name] += delta
	return s.pressures[name]
}

func (s *Store) Pressures() map[string]float64 {
	out := make(map[string]float64, len(s.pressures))
	for key, value := range s.pressures {
		out[key] = value
	}
	return out
}

func (s *Store) PressureNames() []string {
	names := make([]string, 0, len(s.pressures))
	for name := range s.pressures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func cooldownKey(entityID, kind string) string {
	return entityID + "\x00" + kind
}

// OnCooldown reports whether entityID formed a relationship of kind less
// than cooldown ticks ago.
func (s *Store) OnCooldown(entityID, kind string, cooldown int) bool {
	if cooldown <= 0 {
		return false
	}
	last, ok := s.cooldowns[cooldownKey(entityID, kind)]
	if !ok {
		return false
	}
	return s.tick-last < cooldown
}

func (s *Store) RecordFormation(entityID, kind string) {
	s.cooldowns[cooldownKey(entityID, kind)] = s.tick
}

// CheckLinks verifies that the canonical list and every mirror agree.
func (s *Store) CheckLinks() error {
	expected := make(map[string]map[string]int)
	count := func(id string, rel Relationship) {
		if _, ok := s.entities[id]; !ok {
			return
		}
		if expected[id] == nil {
			expected[id] = make(map[string]int)
		}
		expected[id][linkKey(rel)]++
	}
	for _, rel := range s.relationships {
		count(rel.Src, rel)
		if rel.Dst != rel.Src {
			count(rel.Dst, rel)
		}
	}
	for _, id := range s.order {
		e := s.entities[id]
		actual := make(map[string]int)
		for _, link := range e.Links {
			actual[linkKey(link)]++
		}
		want := expected[id]
		if len(actual) != len(want) {
			return fmt.Errorf("entity %s mirrors %d relationships, canonical list has %d", id, len(actual), len(want))
		}
		for key, n := range want {
			if actual[key] != n {
				return fmt.Errorf("entity %s link mismatch for %s", id, key)
			}
		}
	}
	return nil
}

func linkKey(rel Relationship) string {
	return fmt.Sprintf("%s|%s|%s|%g", rel.Kind, rel.Src, rel.Dst, rel.StrengthValue())
}
