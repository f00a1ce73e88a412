// Package mutation computes the effect of mutation primitives against the
// graph without writing to it. Callers commit the returned changes with
// graph.Store.Apply once a whole batch has been computed.
package mutation

import (
	"fmt"

	"worldweave/internal/graph"
	"worldweave/internal/rules"
	"worldweave/internal/selection"
)

type Result struct {
	Applied    bool
	Changes    graph.Changes
	Diagnostic string
}

func failed(format string, args ...any) Result {
	return Result{Diagnostic: fmt.Sprintf(format, args...)}
}

// Apply computes one mutation. Unknown mutation types apply as no-ops.
func Apply(store *graph.Store, m rules.Mutation, resolver selection.Resolver) Result {
	switch m.Type {
	case rules.MutationAdjustProminence:
		return adjustProminence(m, resolver)
	case rules.MutationCreateRelationship:
		return createRelationship(store, m, resolver)
	case rules.MutationChangeStatus:
		return changeStatus(m, resolver)
	case rules.MutationSetTag:
		return setTag(m, resolver, true)
	case rules.MutationAddTag:
		return setTag(m, resolver, false)
	case rules.MutationRemoveTag:
		return removeTag(m, resolver)
	case rules.MutationAdjustStrength:
		return adjustStrength(store, m, resolver)
	case rules.MutationModifyPressure:
		return modifyPressure(m)
	default:
		return Result{Applied: true, Diagnostic: fmt.Sprintf("unknown mutation type %q ignored", m.Type)}
	}
}

// ApplyBatch computes every mutation in order and merges the changes. The
// batch is all-or-nothing: the first mutation that does not apply discards
// the whole batch.
func ApplyBatch(store *graph.Store, mutations []rules.Mutation, resolver selection.Resolver) Result {
	batch := Result{Applied: true}
	for i, m := range mutations {
		result := Apply(store, m, resolver)
		if !result.Applied {
			return Result{Diagnostic: fmt.Sprintf("mutation %d (%s): %s", i, m.Type, result.Diagnostic)}
		}
		batch.Changes.Merge(result.Changes)
	}
	return batch
}

func resolveEntity(resolver selection.Resolver, ref, fallback string) (*graph.Entity, string, bool) {
	if ref == "" {
		ref = fallback
	}
	if resolver == nil {
		return nil, ref, false
	}
	e, ok := resolver.Resolve(ref)
	return e, ref, ok
}

func modified(id string, changes graph.EntityChanges) Result {
	return Result{
		Applied: true,
		Changes: graph.Changes{EntitiesModified: []graph.EntityModification{{ID: id, Changes: changes}}},
	}
}

func adjustProminence(m rules.Mutation, resolver selection.Resolver) Result {
	e, ref, ok := resolveEntity(resolver, m.Entity, rules.RefActor)
	if !ok {
		return failed("entity not resolved: %s", ref)
	}
	var next graph.Prominence
	switch m.Direction {
	case "up":
		next = e.Prominence.Up()
	case "down":
		next = e.Prominence.Down()
	default:
		return failed("invalid prominence direction: %q", m.Direction)
	}
	if next == e.Prominence {
		return Result{Applied: true, Diagnostic: fmt.Sprintf("%s already %s", e.ID, next)}
	}
	return modified(e.ID, graph.EntityChanges{Prominence: &next})
}

func createRelationship(store *graph.Store, m rules.Mutation, resolver selection.Resolver) Result {
	if m.Kind == "" {
		return failed("relationship kind is required")
	}
	src, srcRef, ok := resolveEntity(resolver, m.Src, rules.RefActor)
	if !ok {
		return failed("relationship source not resolved: %s", srcRef)
	}
	dst, dstRef, ok := resolveEntity(resolver, m.Dst, rules.RefTarget)
	if !ok {
		return failed("relationship destination not resolved: %s", dstRef)
	}
	if src.ID == dst.ID {
		return failed("relationship %s would loop on %s", m.Kind, src.ID)
	}

	result := Result{Applied: true}
	pairs := [][2]string{{src.ID, dst.ID}}
	if m.Bidirectional {
		pairs = append(pairs, [2]string{dst.ID, src.ID})
	}
	for _, pair := range pairs {
		if store != nil && store.HasRelationship(m.Kind, pair[0], pair[1]) {
			continue
		}
		result.Changes.RelationshipsAdded = append(result.Changes.RelationshipsAdded, graph.Relationship{
			Kind:     m.Kind,
			Src:      pair[0],
			Dst:      pair[1],
			Strength: m.Strength,
			Distance: m.Distance,
			Status:   graph.StatusActive,
		})
	}
	if len(result.Changes.RelationshipsAdded) == 0 {
		result.Diagnostic = fmt.Sprintf("%s between %s and %s already exists", m.Kind, src.ID, dst.ID)
	}
	return result
}

func changeStatus(m rules.Mutation, resolver selection.Resolver) Result {
	if m.Status == "" {
		return failed("status is required")
	}
	e, ref, ok := resolveEntity(resolver, m.Entity, rules.RefActor)
	if !ok {
		return failed("entity not resolved: %s", ref)
	}
	status := m.Status
	return modified(e.ID, graph.EntityChanges{Status: &status})
}

func setTag(m rules.Mutation, resolver selection.Resolver, overwrite bool) Result {
	if m.Tag == "" {
		return failed("tag is required")
	}
	e, ref, ok := resolveEntity(resolver, m.Entity, rules.RefActor)
	if !ok {
		return failed("entity not resolved: %s", ref)
	}
	if !overwrite {
		if _, exists := e.Tag(m.Tag); exists {
			return Result{Applied: true, Diagnostic: fmt.Sprintf("%s already tagged %s", e.ID, m.Tag)}
		}
	}
	value := m.Value
	if value == nil {
		value = true
	}
	return modified(e.ID, graph.EntityChanges{Tags: map[string]any{m.Tag: value}})
}

func removeTag(m rules.Mutation, resolver selection.Resolver) Result {
	if m.Tag == "" {
		return failed("tag is required")
	}
	e, ref, ok := resolveEntity(resolver, m.Entity, rules.RefActor)
	if !ok {
		return failed("entity not resolved: %s", ref)
	}
	if _, exists := e.Tag(m.Tag); !exists {
		return Result{Applied: true}
	}
	return modified(e.ID, graph.EntityChanges{RemoveTags: []string{m.Tag}})
}

func adjustStrength(store *graph.Store, m rules.Mutation, resolver selection.Resolver) Result {
	if m.Kind == "" {
		return failed("relationship kind is required")
	}
	src, srcRef, ok := resolveEntity(resolver, m.Src, rules.RefActor)
	if !ok {
		return failed("relationship source not resolved: %s", srcRef)
	}
	dst, dstRef, ok := resolveEntity(resolver, m.Dst, rules.RefTarget)
	if !ok {
		return failed("relationship destination not resolved: %s", dstRef)
	}

	var adjusted []graph.RelationshipAdjustment
	pairs := [][2]string{{src.ID, dst.ID}}
	if m.Bidirectional {
		pairs = append(pairs, [2]string{dst.ID, src.ID})
	}
	for _, pair := range pairs {
		if store == nil || !store.HasRelationship(m.Kind, pair[0], pair[1]) {
			continue
		}
		adjusted = append(adjusted, graph.RelationshipAdjustment{Kind: m.Kind, Src: pair[0], Dst: pair[1], Delta: m.Delta})
	}
	if len(adjusted) == 0 {
		return failed("no %s relationship between %s and %s", m.Kind, src.ID, dst.ID)
	}
	return Result{Applied: true, Changes: graph.Changes{RelationshipsAdjusted: adjusted}}
}

func modifyPressure(m rules.Mutation) Result {
	if m.Pressure == "" {
		return failed("pressure name is required")
	}
	result := Result{Applied: true}
	result.Changes.AddPressure(m.Pressure, m.Delta)
	return result
}
