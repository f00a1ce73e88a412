package graph

import "fmt"

type EntityModification struct {
	ID      string        `json:"id"`
	Changes EntityChanges `json:"changes"`
}

type RelationshipAdjustment struct {
	Kind  string  `json:"kind"`
	Src   string  `json:"src"`
	Dst   string  `json:"dst"`
	Delta float64 `json:"delta"`
}

// Changes is a committable batch computed against a store without writing
// to it. Apply is the commit.
type Changes struct {
	EntitiesModified      []EntityModification     `json:"entities_modified,omitempty"`
	RelationshipsAdded    []Relationship           `json:"relationships_added,omitempty"`
	RelationshipsAdjusted []RelationshipAdjustment `json:"relationships_adjusted,omitempty"`
	PressureChanges       map[string]float64       `json:"pressure_changes,omitempty"`
}

func (c Changes) Empty() bool {
	return len(c.EntitiesModified) == 0 && len(c.RelationshipsAdded) == 0 &&
		len(c.RelationshipsAdjusted) == 0 && len(c.PressureChanges) == 0
}

func (c *Changes) Merge(other Changes) {
	c.EntitiesModified = append(c.EntitiesModified, other.EntitiesModified...)
	c.RelationshipsAdded = append(c.RelationshipsAdded, other.RelationshipsAdded...)
	c.RelationshipsAdjusted = append(c.RelationshipsAdjusted, other.RelationshipsAdjusted...)
	for name, delta := range other.PressureChanges {
		c.AddPressure(name, delta)
	}
}

func (c *Changes) AddPressure(name string, delta float64) {
	if c.PressureChanges == nil {
		c.PressureChanges = make(map[string]float64)
	}
	c.PressureChanges[name] += delta
}

// ModifiedIDs lists the distinct modified entity ids in first-seen order.
func (c Changes) ModifiedIDs() []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, mod := range c.EntitiesModified {
		if _, ok := seen[mod.ID]; ok {
			continue
		}
		seen[mod.ID] = struct{}{}
		ids = append(ids, mod.ID)
	}
	return ids
}

// Apply commits a batch. Every referenced entity and adjusted relationship
// is checked before anything is written, so a rejected batch leaves the
// store untouched. Added relationships that already exist are skipped and
// dropped from the returned batch.
func (s *Store) Apply(c Changes) (Changes, error) {
	for _, mod := range c.EntitiesModified {
		if _, ok := s.entities[mod.ID]; !ok {
			return Changes{}, fmt.Errorf("applying changes: entity not found: %s", mod.ID)
		}
	}
	for _, rel := range c.RelationshipsAdded {
		if _, ok := s.entities[rel.Src]; !ok {
			return Changes{}, fmt.Errorf("applying changes: relationship source not found: %s", rel.Src)
		}
		if _, ok := s.entities[rel.Dst]; !ok {
			return Changes{}, fmt.Errorf("applying changes: relationship destination not found: %s", rel.Dst)
		}
	}
	for _, adj := range c.RelationshipsAdjusted {
		if !s.HasRelationship(adj.Kind, adj.Src, adj.Dst) {
			return Changes{}, fmt.Errorf("applying changes: relationship not found: %s %s->%s", adj.Kind, adj.Src, adj.Dst)
		}
	}

	applied := Changes{
		EntitiesModified:      c.EntitiesModified,
		RelationshipsAdjusted: c.RelationshipsAdjusted,
		PressureChanges:       c.PressureChanges,
	}
	for _, mod := range c.EntitiesModified {
		if err := s.UpdateEntity(mod.ID, mod.Changes); err != nil {
			return Changes{}, err
		}
	}
	for _, rel := range c.RelationshipsAdded {
		added, err := s.AddRelationship(rel)
		if err != nil {
			return Changes{}, err
		}
		if added {
			applied.RelationshipsAdded = append(applied.RelationshipsAdded, rel)
		}
	}
	for _, adj := range c.RelationshipsAdjusted {
		rel, _ := s.Relationship(adj.Kind, adj.Src, adj.Dst)
		s.SetStrength(adj.Kind, adj.Src, adj.Dst, clamp(rel.StrengthValue()+adj.Delta, 0, 1))
	}
	for name, delta := range c.PressureChanges {
		s.AdjustPressure(name, delta)
	}
	return applied, nil
}
