package selection

import (
	"worldweave/internal/graph"
	"worldweave/internal/rules"
)

// ApplyFilter keeps the entities that pass f. Unknown filter types pass
// every entity through unchanged.
func ApplyFilter(store *graph.Store, f rules.Filter, entities []*graph.Entity, resolver Resolver) []*graph.Entity {
	switch f.Type {
	case rules.FilterExclude:
		excluded := make(map[string]bool)
		for _, ref := range f.Entities {
			if id, ok := resolveID(resolver, ref); ok {
				excluded[id] = true
			}
		}
		return keep(entities, func(e *graph.Entity) bool { return !excluded[e.ID] })

	case rules.FilterNotSelf:
		ref := f.With
		if ref == "" {
			ref = rules.RefActor
		}
		self, ok := resolveID(resolver, ref)
		if !ok {
			return entities
		}
		return keep(entities, func(e *graph.Entity) bool { return e.ID != self })

	case rules.FilterHasRelationship:
		with, ok := counterpart(resolver, f.With)
		if !ok {
			return nil
		}
		return keep(entities, func(e *graph.Entity) bool { return hasLink(e, f.Kind, with, f.Direction) })

	case rules.FilterLacksRelationship:
		with, ok := counterpart(resolver, f.With)
		if !ok {
			return entities
		}
		return keep(entities, func(e *graph.Entity) bool { return !hasLink(e, f.Kind, with, f.Direction) })

	case rules.FilterHasTag:
		return keep(entities, func(e *graph.Entity) bool { return e.TagEquals(f.Tag, f.Value) })

	case rules.FilterHasTags:
		return keep(entities, func(e *graph.Entity) bool {
			for _, tag := range f.Tags {
				if !e.HasTag(tag) {
					return false
				}
			}
			return true
		})

	case rules.FilterHasAnyTag:
		return keep(entities, func(e *graph.Entity) bool { return anyTag(e, f.Tags) })

	case rules.FilterLacksTag:
		return keep(entities, func(e *graph.Entity) bool { return !e.TagEquals(f.Tag, f.Value) })

	case rules.FilterLacksAnyTag:
		return keep(entities, func(e *graph.Entity) bool { return !anyTag(e, f.Tags) })

	case rules.FilterHasCulture:
		return keep(entities, func(e *graph.Entity) bool { return e.Culture == f.Culture })

	case rules.FilterMatchesCulture:
		if resolver == nil {
			return nil
		}
		ref, ok := resolver.Resolve(f.With)
		if !ok {
			return nil
		}
		return keep(entities, func(e *graph.Entity) bool { return e.Culture == ref.Culture })

	case rules.FilterHasStatus:
		return keep(entities, func(e *graph.Entity) bool { return e.Status == f.Status })

	case rules.FilterHasProminence:
		floor, ok := graph.ParseProminence(f.MinProminence)
		if !ok {
			return entities
		}
		return keep(entities, func(e *graph.Entity) bool { return e.Prominence >= floor })

	case rules.FilterSharesRelated:
		return sharesRelated(f, entities, resolver)

	case rules.FilterGraphPath:
		if f.Path == nil {
			return entities
		}
		return keep(entities, func(e *graph.Entity) bool { return pathHolds(store, *f.Path, e, resolver) })

	default:
		return entities
	}
}

func keep(entities []*graph.Entity, pass func(*graph.Entity) bool) []*graph.Entity {
	var out []*graph.Entity
	for _, e := range entities {
		if pass(e) {
			out = append(out, e)
		}
	}
	return out
}

// counterpart resolves an optional With reference. An empty reference
// means any counterpart; a reference that does not resolve reports false.
func counterpart(resolver Resolver, ref string) (string, bool) {
	if ref == "" {
		return "", true
	}
	return resolveID(resolver, ref)
}

func hasLink(e *graph.Entity, kind, with string, direction rules.Direction) bool {
	for _, link := range e.Links {
		if kind != "" && link.Kind != kind {
			continue
		}
		switch direction {
		case rules.DirectionSrc:
			if link.Src != e.ID {
				continue
			}
		case rules.DirectionDst:
			if link.Dst != e.ID {
				continue
			}
		}
		if with != "" && link.Other(e.ID) != with {
			continue
		}
		return true
	}
	return false
}

func anyTag(e *graph.Entity, tags []string) bool {
	for _, tag := range tags {
		if e.HasTag(tag) {
			return true
		}
	}
	return false
}

// sharesRelated keeps entities that point, through f.Kind, at one of the
// destinations the reference entity points at. A reference with no such
// destinations excludes everything.
func sharesRelated(f rules.Filter, entities []*graph.Entity, resolver Resolver) []*graph.Entity {
	if resolver == nil {
		return nil
	}
	ref, ok := resolver.Resolve(f.With)
	if !ok {
		return nil
	}
	destinations := make(map[string]bool)
	for _, link := range ref.Links {
		if link.Kind == f.Kind && link.Src == ref.ID {
			destinations[link.Dst] = true
		}
	}
	if len(destinations) == 0 {
		return nil
	}
	return keep(entities, func(e *graph.Entity) bool {
		for _, link := range e.Links {
			if link.Kind == f.Kind && link.Src == e.ID && destinations[link.Dst] {
				return true
			}
		}
		return false
	})
}
