package graph

import "fmt"

const (
	EraFuture     = "future"
	EraCurrent    = "current"
	EraSuperseded = "superseded"

	KindSupersedes = "supersedes"
)

type EraDef struct {
	ID          string
	Name        string
	Description string
}

// InitEras creates one era entity per definition, in order. The first era
// becomes current; the rest wait as future eras.
func (s *Store) InitEras(defs []EraDef) error {
	if len(s.eras) > 0 {
		return fmt.Errorf("eras already initialised")
	}
	for i, def := range defs {
		status := EraFuture
		if i == 0 {
			status = EraCurrent
		}
		id, err := s.AddEntity(Entity{
			ID:          def.ID,
			Kind:        KindEra,
			Subtype:     KindEra,
			Name:        def.Name,
			Description: def.Description,
			Status:      status,
		})
		if err != nil {
			return fmt.Errorf("creating era %s: %w", def.ID, err)
		}
		s.eras = append(s.eras, id)
	}
	if len(s.eras) > 0 {
		s.currentEra = s.eras[0]
	}
	return nil
}

func (s *Store) CurrentEra() (*Entity, bool) {
	if s.currentEra == "" {
		return nil, false
	}
	return s.Entity(s.currentEra)
}

func (s *Store) EraIDs() []string {
	return append([]string(nil), s.eras...)
}

// AdvanceEra supersedes the current era with the next future one and links
// them with a supersedes edge. It returns false when no future era is left;
// the current era then stays current.
func (s *Store) AdvanceEra() (*Entity, bool, error) {
	index := -1
	for i, id := range s.eras {
		if id == s.currentEra {
			index = i
			break
		}
	}
	if index < 0 || index+1 >= len(s.eras) {
		return nil, false, nil
	}
	previous := s.eras[index]
	next := s.eras[index+1]

	superseded := EraSuperseded
	if err := s.UpdateEntity(previous, EntityChanges{Status: &superseded}); err != nil {
		return nil, false, err
	}
	current := EraCurrent
	if err := s.UpdateEntity(next, EntityChanges{Status: &current}); err != nil {
		return nil, false, err
	}
	distance := 1.0
	if len(s.eras) > 1 {
		distance = 1.0 / float64(len(s.eras)-1)
	}
	if _, err := s.AddRelationship(Relationship{
		Kind:     KindSupersedes,
		Src:      next,
		Dst:      previous,
		Strength: Float(1),
		Distance: Float(distance),
	}); err != nil {
		return nil, false, fmt.Errorf("linking era lineage: %w", err)
	}
	s.currentEra = next
	e, _ := s.Entity(next)
	return e, true, nil
}
