// Package selection resolves declarative selection rules into entity lists.
package selection

import (
	"math/rand/v2"
	"sort"

	"worldweave/internal/graph"
	"worldweave/internal/metric"
	"worldweave/internal/rules"
)

// Evaluate resolves sel against the store. Failures never surface as
// errors: an unsatisfiable rule yields an empty list.
func Evaluate(store *graph.Store, sel rules.Selection, resolver Resolver, rng *rand.Rand) []*graph.Entity {
	if store == nil {
		return nil
	}
	entities := candidates(store, sel)
	for _, f := range sel.Filters {
		if len(entities) == 0 {
			break
		}
		entities = ApplyFilter(store, f, entities, resolver)
	}
	return pick(store, sel, entities, rng)
}

func candidates(store *graph.Store, sel rules.Selection) []*graph.Entity {
	kinds := nameSet(sel.CandidateKinds())
	subtypes := nameSet(sel.CandidateSubtypes())
	excluded := nameSet(sel.NotStatus)

	var out []*graph.Entity
	for _, e := range store.Entities() {
		if kinds != nil && !kinds[e.Kind] {
			continue
		}
		if subtypes != nil && !subtypes[e.Subtype] {
			continue
		}
		if sel.Status != "" && e.Status != sel.Status {
			continue
		}
		if excluded[e.Status] {
			continue
		}
		out = append(out, e)
	}
	return out
}

func pick(store *graph.Store, sel rules.Selection, entities []*graph.Entity, rng *rand.Rand) []*graph.Entity {
	switch sel.Pick {
	case rules.PickRandom:
		n := sel.MaxResults
		if n <= 0 {
			n = 1
		}
		shuffled := append([]*graph.Entity(nil), entities...)
		if rng != nil {
			rng.Shuffle(len(shuffled), func(i, j int) {
				shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
			})
		}
		return truncate(shuffled, n)
	case rules.PickTopN:
		if sel.PickMetric == nil {
			return truncate(entities, sel.MaxResults)
		}
		type scored struct {
			entity *graph.Entity
			value  float64
		}
		ranked := make([]scored, 0, len(entities))
		for _, e := range entities {
			ranked = append(ranked, scored{entity: e, value: metric.Evaluate(store, *sel.PickMetric, e).Value})
		}
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].value > ranked[j].value
		})
		out := make([]*graph.Entity, 0, len(ranked))
		for _, item := range ranked {
			out = append(out, item.entity)
		}
		return truncate(out, sel.MaxResults)
	default:
		return truncate(entities, sel.MaxResults)
	}
}

func truncate(entities []*graph.Entity, n int) []*graph.Entity {
	if n > 0 && len(entities) > n {
		return entities[:n]
	}
	return entities
}

func nameSet(names []string) map[string]bool {
	if len(names) == 0 {
		return nil
	}
	set := make(map[string]bool, len(names))
	for _, name := range names {
		set[name] = true
	}
	return set
}
