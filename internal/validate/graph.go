package validate

import "worldweave/internal/graph"

// World is the read side of the store the checks run against.
type World interface {
	Entities() []*graph.Entity
	Entity(id string) (*graph.Entity, bool)
	Relationships() []graph.Relationship
	EraIDs() []string
	CheckLinks() error
}

var _ World = (*graph.Store)(nil)
