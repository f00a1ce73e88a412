// Package action runs named actions: an actor, an optional instigator, a
// targeting rule and a mutation batch that commits atomically.
package action

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"

	"worldweave/internal/graph"
	"worldweave/internal/metric"
	"worldweave/internal/mutation"
	"worldweave/internal/rules"
	"worldweave/internal/selection"
)

type FailureReason string

const (
	NoInstigator    FailureReason = "no_instigator"
	ActorConditions FailureReason = "actor_conditions"
	NoTarget        FailureReason = "no_target"
	MutationFailed  FailureReason = "mutation_failed"
)

type Result struct {
	Success               bool                           `json:"success"`
	Relationships         []graph.Relationship           `json:"relationships,omitempty"`
	RelationshipsAdjusted []graph.RelationshipAdjustment `json:"relationships_adjusted,omitempty"`
	EntitiesModified      []graph.EntityModification     `json:"entities_modified,omitempty"`
	PressureChanges       map[string]float64             `json:"pressure_changes,omitempty"`
	Description           string                         `json:"description,omitempty"`
	FailureReason         FailureReason                  `json:"failure_reason,omitempty"`
	Diagnostic            string                         `json:"diagnostic,omitempty"`
}

// Changes converts a successful result back into a batch record.
func (r Result) Changes() graph.Changes {
	return graph.Changes{
		EntitiesModified:      r.EntitiesModified,
		RelationshipsAdded:    r.Relationships,
		RelationshipsAdjusted: r.RelationshipsAdjusted,
		PressureChanges:       r.PressureChanges,
	}
}

func fail(reason FailureReason, format string, args ...any) Result {
	return Result{FailureReason: reason, Diagnostic: fmt.Sprintf(format, args...)}
}

type Interpreter struct {
	store *graph.Store
	rng   *rand.Rand
}

func NewInterpreter(store *graph.Store, rng *rand.Rand) *Interpreter {
	return &Interpreter{store: store, rng: rng}
}

// Execute runs a for actorID. A failed action leaves the graph unmodified.
func (in *Interpreter) Execute(a rules.Action, actorID string) Result {
	actor, ok := in.store.Entity(actorID)
	if !ok {
		return fail(ActorConditions, "actor not found: %s", actorID)
	}

	bindings := selection.Bindings{
		rules.RefActor: actor.ID,
		rules.RefSelf:  actor.ID,
	}
	resolver := selection.ActionResolver{Store: in.store, Bindings: bindings}

	if a.Instigator != nil {
		found := selection.Evaluate(in.store, a.Instigator.Selection, resolver, in.rng)
		if len(found) > 0 {
			bindings[rules.RefInstigator] = found[0].ID
		} else if a.Instigator.Required {
			return fail(NoInstigator, "no instigator for %s", actor.ID)
		}
	}

	for i, c := range a.ActorConditions {
		outcome := metric.EvaluateCondition(in.store, c, actor)
		if !outcome.Holds {
			return fail(ActorConditions, "condition %d: %v %s %v does not hold", i, outcome.Value, c.Operator, outcome.Threshold)
		}
	}

	targets := selection.Evaluate(in.store, a.Targeting, resolver, in.rng)
	need := max(1, a.Targeting.MaxResults)
	if len(targets) < need {
		return fail(NoTarget, "found %d targets, need %d", len(targets), need)
	}
	bindings[rules.RefTarget] = targets[0].ID
	if len(targets) > 1 {
		bindings[rules.RefTarget2] = targets[1].ID
	}

	batch := mutation.ApplyBatch(in.store, a.Mutations, resolver)
	if !batch.Applied {
		return fail(MutationFailed, "%s", batch.Diagnostic)
	}

	description := a.Description
	if description == "" {
		description = fmt.Sprintf("{actor.name} performed %s", actionName(a))
	}
	description = render(description, resolver)

	applied, err := in.store.Apply(batch.Changes)
	if err != nil {
		return fail(MutationFailed, "%v", err)
	}

	event := graph.CatalyzedEvent{Tick: in.store.Tick(), Source: a.ID, Description: description}
	for _, id := range participants(bindings) {
		// Participants were resolved above and survive the commit.
		_ = in.store.RecordCatalyst(id, event)
	}

	return Result{
		Success:               true,
		Relationships:         applied.RelationshipsAdded,
		RelationshipsAdjusted: applied.RelationshipsAdjusted,
		EntitiesModified:      applied.EntitiesModified,
		PressureChanges:       applied.PressureChanges,
		Description:           description,
	}
}

func actionName(a rules.Action) string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}

func participants(bindings selection.Bindings) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, ref := range []string{rules.RefActor, rules.RefInstigator, rules.RefTarget, rules.RefTarget2} {
		id, ok := bindings[ref]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

var token = regexp.MustCompile(`\{([^{}]*)\}`)

// render substitutes {role.field} tokens. Unknown roles and fields render
// as the empty string.
func render(template string, resolver selection.Resolver) string {
	return token.ReplaceAllStringFunc(template, func(match string) string {
		role, field, ok := strings.Cut(match[1:len(match)-1], ".")
		if !ok {
			return ""
		}
		e, ok := resolver.Resolve("$" + strings.TrimSpace(role))
		if !ok {
			return ""
		}
		return entityField(e, strings.TrimSpace(field))
	})
}

func entityField(e *graph.Entity, field string) string {
	switch field {
	case "id":
		return e.ID
	case "name":
		return e.Name
	case "kind":
		return e.Kind
	case "subtype":
		return e.Subtype
	case "status":
		return e.Status
	case "culture":
		return e.Culture
	case "prominence":
		return e.Prominence.String()
	default:
		return ""
	}
}
