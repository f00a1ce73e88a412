// Package system defines the contract shared by the per-tick systems.
package system

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"worldweave/internal/graph"
)

// System is one configured per-tick rule set. Apply commits its own
// changes to the store and reports them. The modifier scales the system's
// activity for the current era; 1 means unmodified.
type System interface {
	ID() string
	Apply(store *graph.Store, rng *rand.Rand, modifier float64) (Result, error)
}

// Violation records a relationship that should have been culled but is
// protected from removal.
type Violation struct {
	Kind     string  `json:"kind"`
	Src      string  `json:"src"`
	Dst      string  `json:"dst"`
	Strength float64 `json:"strength"`
	Reason   string  `json:"reason"`
}

type Result struct {
	graph.Changes
	RelationshipsRemoved []graph.Relationship `json:"relationships_removed,omitempty"`
	Violations           []Violation          `json:"violations,omitempty"`
	Description          string               `json:"description"`
}

// Modified reports whether the result touched the graph.
func (r Result) Modified() bool {
	return !r.Changes.Empty() || len(r.RelationshipsRemoved) > 0
}

// Summary renders the change counts as a short phrase, e.g.
// "2 relationships added, 1 entity modified".
func (r Result) Summary() string {
	var parts []string
	add := func(n int, one, many, verb string) {
		if n == 0 {
			return
		}
		noun := many
		if n == 1 {
			noun = one
		}
		parts = append(parts, fmt.Sprintf("%d %s %s", n, noun, verb))
	}
	add(len(r.RelationshipsAdded), "relationship", "relationships", "added")
	add(len(r.RelationshipsAdjusted), "relationship", "relationships", "adjusted")
	add(len(r.RelationshipsRemoved), "relationship", "relationships", "removed")
	add(len(r.ModifiedIDs()), "entity", "entities", "modified")
	add(len(r.PressureChanges), "pressure", "pressures", "changed")
	if len(parts) == 0 {
		return "no changes"
	}
	return strings.Join(parts, ", ")
}
