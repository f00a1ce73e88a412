// Package evolution grows and reshapes the graph from topology: entities
// are scored by a metric and rules fire mutations or connect matching
// entities pairwise.
package evolution

import (
	"fmt"
	"math/rand/v2"

	"worldweave/internal/graph"
	"worldweave/internal/metric"
	"worldweave/internal/mutation"
	"worldweave/internal/rules"
	"worldweave/internal/selection"
	"worldweave/internal/system"
)

type System struct {
	cfg Config
}

func New(cfg Config) (*System, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("connection evolution %s: %w", cfg.ID, err)
	}
	return &System{cfg: cfg}, nil
}

func (s *System) ID() string { return s.cfg.ID }

func (s *System) Config() Config { return s.cfg }

// Apply runs one tick. rng drives throttling, rule probabilities and
// selection picks.
func (s *System) Apply(store *graph.Store, rng *rand.Rand, modifier float64) (system.Result, error) {
	if s.cfg.ThrottleChance != nil && !roll(rng, *s.cfg.ThrottleChance) {
		return system.Result{Description: fmt.Sprintf("%s throttled this tick", s.cfg.ID)}, nil
	}

	var result system.Result
	entities := selection.Evaluate(store, s.cfg.Selection, selection.LiteralResolver{Store: store}, rng)
	matching := make([][]*graph.Entity, len(s.cfg.Rules))
	failures := 0

	for _, e := range entities {
		value := metric.Evaluate(store, s.cfg.Metric, e).Value + s.cfg.SubtypeBonuses[e.Subtype]

		var fired []rules.Mutation
		for i, rule := range s.cfg.Rules {
			if !s.holds(store, rule, e, value) {
				continue
			}
			if rule.BetweenMatching {
				matching[i] = append(matching[i], e)
				continue
			}
			if !roll(rng, scaled(rule.Chance(), modifier)) {
				continue
			}
			if rule.FormationCooldown > 0 && rule.Action.Type == rules.MutationCreateRelationship &&
				store.OnCooldown(e.ID, rule.Action.Kind, rule.FormationCooldown) {
				continue
			}
			fired = append(fired, rule.Action)
		}
		if len(fired) == 0 {
			continue
		}

		batch := mutation.ApplyBatch(store, fired, entityResolver(store, e.ID))
		if !batch.Applied {
			failures++
			continue
		}
		applied, err := store.Apply(batch.Changes)
		if err != nil {
			failures++
			continue
		}
		for _, rel := range applied.RelationshipsAdded {
			store.RecordFormation(e.ID, rel.Kind)
		}
		result.Merge(applied)
	}

	for i, rule := range s.cfg.Rules {
		if rule.BetweenMatching && len(matching[i]) > 1 {
			result.Merge(s.connectPairs(store, rng, modifier, rule, matching[i]))
		}
	}

	result.Description = fmt.Sprintf("%s evaluated %d entities: %s", s.cfg.ID, len(entities), result.Summary())
	if failures > 0 {
		result.Description += fmt.Sprintf(" (%d entities failed)", failures)
	}
	return result, nil
}

// holds checks rule against the system metric value, or against the
// condition's own metric when it names one.
func (s *System) holds(store *graph.Store, rule Rule, e *graph.Entity, value float64) bool {
	if rule.Condition.Metric != nil {
		return metric.EvaluateCondition(store, rule.Condition, e).Holds
	}
	return metric.Check(rule.Condition, e, value).Holds
}

// connectPairs considers every unordered pair of candidates for the rule's
// relationship and commits the accepted ones.
func (s *System) connectPairs(store *graph.Store, rng *rand.Rand, modifier float64, rule Rule, candidates []*graph.Entity) graph.Changes {
	var (
		committed graph.Changes
		index     *components
	)
	kind := rule.Action.Kind
	limit := s.cfg.PairComponentSizeLimit
	if limit != nil {
		index = newComponents(store, limit.Kinds)
		if !index.covers(kind) {
			index = nil
		}
	}
	probability := scaled(rule.Chance(), modifier)

	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			a, b := candidates[i].ID, candidates[j].ID
			if store.Connected(kind, a, b) || s.excluded(store, a, b) {
				continue
			}
			if rule.FormationCooldown > 0 &&
				(store.OnCooldown(a, kind, rule.FormationCooldown) || store.OnCooldown(b, kind, rule.FormationCooldown)) {
				continue
			}
			if index != nil && index.mergedSize(a, b) > limit.Max {
				continue
			}
			if !roll(rng, probability) {
				continue
			}

			res := mutation.Apply(store, rule.Action, pairResolver(store, a, b))
			if !res.Applied {
				continue
			}
			applied, err := store.Apply(res.Changes)
			if err != nil {
				continue
			}
			if len(applied.RelationshipsAdded) > 0 {
				store.RecordFormation(a, kind)
				store.RecordFormation(b, kind)
				if index != nil {
					index.link(a, b)
				}
			}
			committed.Merge(applied)
		}
	}
	return committed
}

func (s *System) excluded(store *graph.Store, a, b string) bool {
	for _, kind := range s.cfg.PairExcludeRelationships {
		if store.Connected(kind, a, b) {
			return true
		}
	}
	return false
}

func entityResolver(store *graph.Store, id string) selection.Resolver {
	return selection.ActionResolver{Store: store, Bindings: selection.Bindings{
		rules.RefSelf:   id,
		rules.RefActor:  id,
		rules.RefMember: id,
	}}
}

func pairResolver(store *graph.Store, a, b string) selection.Resolver {
	return selection.ActionResolver{Store: store, Bindings: selection.Bindings{
		rules.RefMember:  a,
		rules.RefMember2: b,
		rules.RefActor:   a,
		rules.RefTarget:  b,
	}}
}

func scaled(probability, modifier float64) float64 {
	return min(1, probability*modifier)
}

func roll(rng *rand.Rand, probability float64) bool {
	if probability >= 1 {
		return true
	}
	if probability <= 0 {
		return false
	}
	return rng.Float64() < probability
}
