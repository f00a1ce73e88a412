// Package metric computes scalar topology metrics for single entities and
// compares them against condition thresholds.
package metric

import (
	"worldweave/internal/graph"
	"worldweave/internal/rules"
)

type Value struct {
	Value   float64
	Details map[string]any
}

// Evaluate computes m for e. Unknown metric types evaluate to zero so newer
// configuration files keep loading on older engines.
func Evaluate(store *graph.Store, m rules.Metric, e *graph.Entity) Value {
	if e == nil {
		return Value{}
	}
	switch m.Type {
	case rules.MetricConnectionCount:
		return connectionCount(m, e)
	case rules.MetricSharedRelationship:
		return sharedRelationship(store, m, e)
	case rules.MetricCatalyzedEvents:
		return Value{Value: float64(len(e.CatalyzedEvents))}
	case rules.MetricProminence:
		return Value{Value: float64(e.Prominence.Index()), Details: map[string]any{"prominence": e.Prominence.String()}}
	case rules.MetricPressure:
		if store == nil {
			return Value{}
		}
		return Value{Value: store.Pressure(m.Pressure), Details: map[string]any{"pressure": m.Pressure}}
	default:
		return Value{Details: map[string]any{"unknown_metric": string(m.Type)}}
	}
}

func connectionCount(m rules.Metric, e *graph.Entity) Value {
	kinds := kindSet(m.RelationshipKinds())
	byKind := make(map[string]int)
	count := 0
	for _, link := range e.Links {
		if !matchesKind(kinds, link.Kind) {
			continue
		}
		if link.StrengthValue() < m.MinStrength {
			continue
		}
		if !matchesDirection(link, e.ID, m.Direction) {
			continue
		}
		count++
		byKind[link.Kind]++
	}
	return Value{Value: float64(count), Details: map[string]any{"by_kind": byKind}}
}

// sharedRelationship counts distinct other entities that reach a common
// counterpart through the same kind and direction as e, both edges meeting
// the minimum strength.
func sharedRelationship(store *graph.Store, m rules.Metric, e *graph.Entity) Value {
	if store == nil {
		return Value{}
	}
	kinds := kindSet(m.RelationshipKinds())
	direction := m.Direction
	if direction == "" {
		direction = rules.DirectionSrc
	}

	shared := make(map[string]struct{})
	via := make(map[string]struct{})
	for _, link := range e.Links {
		if !matchesKind(kinds, link.Kind) || link.StrengthValue() < m.MinStrength {
			continue
		}
		if !matchesDirection(link, e.ID, direction) {
			continue
		}
		counterpart := link.Other(e.ID)
		if counterpart == e.ID {
			continue
		}
		other, ok := store.Entity(counterpart)
		if !ok {
			continue
		}
		for _, back := range other.Links {
			if back.Kind != link.Kind || back.StrengthValue() < m.MinStrength {
				continue
			}
			peer := back.Other(counterpart)
			if peer == e.ID || peer == counterpart {
				continue
			}
			if direction != rules.DirectionBoth && !sameSide(back, peer, link, e.ID) {
				continue
			}
			shared[peer] = struct{}{}
			via[counterpart] = struct{}{}
		}
	}
	return Value{Value: float64(len(shared)), Details: map[string]any{"via": len(via)}}
}

// sameSide reports whether peer stands on the same end of back as id does
// on link.
func sameSide(back graph.Relationship, peer string, link graph.Relationship, id string) bool {
	return (back.Src == peer) == (link.Src == id)
}

func kindSet(kinds []string) map[string]struct{} {
	if len(kinds) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(kinds))
	for _, kind := range kinds {
		set[kind] = struct{}{}
	}
	return set
}

func matchesKind(kinds map[string]struct{}, kind string) bool {
	if kinds == nil {
		return true
	}
	_, ok := kinds[kind]
	return ok
}

func matchesDirection(link graph.Relationship, id string, direction rules.Direction) bool {
	switch direction {
	case rules.DirectionSrc:
		return link.Src == id
	case rules.DirectionDst:
		return link.Dst == id
	default:
		return link.Src == id || link.Dst == id
	}
}
