package selection

import (
	"worldweave/internal/graph"
	"worldweave/internal/rules"
)

// Walk follows the steps from start and returns the distinct entities the
// path ends on, in discovery order.
func Walk(store *graph.Store, start *graph.Entity, steps []rules.PathStep) []*graph.Entity {
	frontier := []*graph.Entity{start}
	for _, step := range steps {
		seen := make(map[string]bool)
		var next []*graph.Entity
		for _, current := range frontier {
			for _, link := range current.Links {
				if step.Via != "" && link.Kind != step.Via {
					continue
				}
				var otherID string
				switch step.Direction {
				case rules.DirectionDst:
					if link.Dst != current.ID {
						continue
					}
					otherID = link.Src
				case rules.DirectionBoth:
					otherID = link.Other(current.ID)
				default:
					if link.Src != current.ID {
						continue
					}
					otherID = link.Dst
				}
				if seen[otherID] {
					continue
				}
				other, ok := store.Entity(otherID)
				if !ok || !stepTargetMatches(step, other) {
					continue
				}
				seen[otherID] = true
				next = append(next, other)
			}
		}
		frontier = next
		if len(frontier) == 0 {
			break
		}
	}
	return frontier
}

func stepTargetMatches(step rules.PathStep, e *graph.Entity) bool {
	if step.TargetKind != "" && step.TargetKind != "any" && e.Kind != step.TargetKind {
		return false
	}
	if step.TargetSubtype != "" && step.TargetSubtype != "any" && e.Subtype != step.TargetSubtype {
		return false
	}
	if step.TargetStatus != "" && step.TargetStatus != "any" && e.Status != step.TargetStatus {
		return false
	}
	return true
}

func pathHolds(store *graph.Store, assertion rules.PathAssertion, start *graph.Entity, resolver Resolver) bool {
	var ends []*graph.Entity
	if len(assertion.Steps) > 0 {
		ends = Walk(store, start, assertion.Steps)
	}
	for _, where := range assertion.Where {
		switch where.Type {
		case rules.PathNotSelf:
			ends = keep(ends, func(e *graph.Entity) bool { return e.ID != start.ID })
		case rules.PathIs:
			id, ok := resolveID(resolver, where.Entity)
			if !ok {
				ends = nil
				continue
			}
			ends = keep(ends, func(e *graph.Entity) bool { return e.ID == id })
		case rules.PathIsNot:
			if id, ok := resolveID(resolver, where.Entity); ok {
				ends = keep(ends, func(e *graph.Entity) bool { return e.ID != id })
			}
		}
	}

	count := len(ends)
	switch assertion.Check {
	case rules.PathNotExists:
		return count == 0
	case rules.PathCountMin:
		return count >= assertion.Count
	case rules.PathCountMax:
		return count <= assertion.Count
	default:
		return count > 0
	}
}
