// Package catalyst lets entities act on the world: each tick a share of the
// selected actors attempts one of the configured actions.
package catalyst

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"

	"worldweave/internal/action"
	"worldweave/internal/graph"
	"worldweave/internal/rules"
	"worldweave/internal/selection"
	"worldweave/internal/system"
)

type Config struct {
	ID                string          `yaml:"id"`
	Actors            rules.Selection `yaml:"actors"`
	ActionAttemptRate float64         `yaml:"action_attempt_rate"`
	Actions           []string        `yaml:"actions"`
}

type System struct {
	cfg     Config
	actions []rules.Action
}

// New binds the configured action ids to their definitions.
func New(cfg Config, catalog map[string]rules.Action) (*System, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("catalyst: id is required")
	}
	if cfg.ActionAttemptRate < 0 || cfg.ActionAttemptRate > 1 {
		return nil, fmt.Errorf("catalyst %s: action_attempt_rate must be within [0, 1], got %v", cfg.ID, cfg.ActionAttemptRate)
	}
	if len(cfg.Actions) == 0 {
		return nil, fmt.Errorf("catalyst %s: at least one action is required", cfg.ID)
	}
	s := &System{cfg: cfg}
	for _, id := range cfg.Actions {
		a, ok := catalog[id]
		if !ok {
			a, ok = catalog[strings.ToLower(id)]
		}
		if !ok {
			return nil, fmt.Errorf("catalyst %s: unknown action %q", cfg.ID, id)
		}
		s.actions = append(s.actions, a)
	}
	return s, nil
}

func (s *System) ID() string { return s.cfg.ID }

func (s *System) Config() Config { return s.cfg }

func (s *System) Apply(store *graph.Store, rng *rand.Rand, modifier float64) (system.Result, error) {
	var result system.Result
	interpreter := action.NewInterpreter(store, rng)
	actors := selection.Evaluate(store, s.cfg.Actors, selection.LiteralResolver{Store: store}, rng)
	rate := min(1, s.cfg.ActionAttemptRate*modifier)

	attempts, successes := 0, 0
	failures := make(map[action.FailureReason]int)
	for _, actor := range actors {
		if rate <= 0 || (rate < 1 && rng.Float64() >= rate) {
			continue
		}
		a := s.actions[rng.IntN(len(s.actions))]
		attempts++
		outcome := interpreter.Execute(a, actor.ID)
		if !outcome.Success {
			failures[outcome.FailureReason]++
			continue
		}
		successes++
		result.Merge(outcome.Changes())
	}

	result.Description = fmt.Sprintf("%s: %d of %d attempted actions succeeded, %s", s.cfg.ID, successes, attempts, result.Summary())
	if len(failures) > 0 {
		result.Description += " (" + formatFailures(failures) + ")"
	}
	return result, nil
}

func formatFailures(failures map[action.FailureReason]int) string {
	reasons := make([]string, 0, len(failures))
	for reason := range failures {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	parts := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		parts = append(parts, fmt.Sprintf("%s: %d", reason, failures[action.FailureReason(reason)]))
	}
	return strings.Join(parts, ", ")
}
