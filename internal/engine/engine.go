// Package engine drives a world forward tick by tick. It owns the store,
// the seeded random source and the configured systems, and moves the
// world through its eras.
package engine

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"worldweave/internal/action"
	"worldweave/internal/catalyst"
	"worldweave/internal/config"
	"worldweave/internal/evolution"
	"worldweave/internal/graph"
	"worldweave/internal/lifecycle"
	"worldweave/internal/logging"
	"worldweave/internal/seed"
	"worldweave/internal/system"
)

type Options struct {
	Seed uint64
	// Project adds the lore layers it names to the seed population.
	Project *config.ProjectConfig
	Logger  *zap.Logger
	// RunID defaults to a random UUID.
	RunID string
}

// Engine is not safe for concurrent use.
type Engine struct {
	runID      string
	domain     *config.Domain
	store      *graph.Store
	rng        *rand.Rand
	systems    []system.System
	actions    *action.Interpreter
	seeded     *seed.Result
	eraStarted int
	log        *zap.Logger
}

type SystemReport struct {
	ID       string  `json:"id"`
	Modifier float64 `json:"modifier"`
	system.Result
}

type TickReport struct {
	RunID      string         `json:"run_id"`
	Tick       int            `json:"tick"`
	Era        string         `json:"era,omitempty"`
	EraChanged bool           `json:"era_changed,omitempty"`
	Systems    []SystemReport `json:"systems"`
}

// Total merges every system's change record for the tick.
func (r TickReport) Total() system.Result {
	var total system.Result
	for _, s := range r.Systems {
		total.Merge(s.Changes)
		total.RelationshipsRemoved = append(total.RelationshipsRemoved, s.RelationshipsRemoved...)
		total.Violations = append(total.Violations, s.Violations...)
	}
	total.Description = total.Summary()
	return total
}

func New(domain *config.Domain, opts Options) (*Engine, error) {
	if domain == nil {
		return nil, fmt.Errorf("domain is required")
	}
	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.New("engine")
	}

	store := graph.NewStore()
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	e := &Engine{
		runID:   runID,
		domain:  domain,
		store:   store,
		rng:     rng,
		actions: action.NewInterpreter(store, rng),
		log:     logger.With(zap.String("run_id", runID)),
	}

	if err := store.InitEras(domain.EraDefs()); err != nil {
		return nil, fmt.Errorf("initialising eras: %w", err)
	}
	for _, p := range domain.Pressures {
		store.SetPressure(p.Name, p.Initial)
	}

	seeded, err := seed.Run(opts.Project, domain, store)
	if err != nil {
		return nil, fmt.Errorf("seeding world: %w", err)
	}
	e.seeded = seeded
	for _, seedErr := range seeded.Errors {
		e.log.Warn("seed skipped", zap.Error(seedErr))
	}

	systems, err := buildSystems(domain)
	if err != nil {
		return nil, err
	}
	e.systems = systems

	e.log.Info("world created",
		zap.Uint64("seed", opts.Seed),
		zap.Int("entities", store.EntityCount()),
		zap.Int("relationships", store.RelationshipCount()),
		zap.Int("systems", len(systems)))
	return e, nil
}

func buildSystems(domain *config.Domain) ([]system.System, error) {
	catalog := domain.ActionCatalog()
	systems := make([]system.System, 0, len(domain.Systems))
	for _, spec := range domain.Systems {
		var (
			sys system.System
			err error
		)
		switch {
		case spec.Maintenance != nil:
			sys, err = lifecycle.New(*spec.Maintenance, domain)
		case spec.Evolution != nil:
			sys, err = evolution.New(*spec.Evolution)
		case spec.Catalyst != nil:
			sys, err = catalyst.New(*spec.Catalyst, catalog)
		default:
			err = fmt.Errorf("no configuration for type %s", spec.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("building system %s: %w", spec.ID(), err)
		}
		systems = append(systems, sys)
	}
	return systems, nil
}

func (e *Engine) RunID() string            { return e.runID }
func (e *Engine) Store() *graph.Store      { return e.store }
func (e *Engine) Domain() *config.Domain   { return e.domain }
func (e *Engine) SeedResult() *seed.Result { return e.seeded }
func (e *Engine) Tick() int                { return e.store.Tick() }
func (e *Engine) Systems() []system.System { return append([]system.System(nil), e.systems...) }

// Step advances one tick: the era progresses if its duration has elapsed,
// then every system runs in declared order with the era's modifier.
func (e *Engine) Step() (TickReport, error) {
	tick := e.store.AdvanceTick()
	report := TickReport{RunID: e.runID, Tick: tick}

	changed, err := e.progressEra(tick)
	if err != nil {
		return report, err
	}
	report.EraChanged = changed

	var era *config.Era
	if current, ok := e.store.CurrentEra(); ok {
		report.Era = current.ID
		era, _ = e.domain.Era(current.ID)
	}

	for _, sys := range e.systems {
		modifier := 1.0
		if era != nil {
			if m, ok := era.SystemModifiers[sys.ID()]; ok {
				modifier = m
			}
		}
		result, err := sys.Apply(e.store, e.rng, modifier)
		if err != nil {
			return report, fmt.Errorf("tick %d: system %s: %w", tick, sys.ID(), err)
		}
		report.Systems = append(report.Systems, SystemReport{ID: sys.ID(), Modifier: modifier, Result: result})
		e.log.Debug(result.Description, zap.Int("tick", tick), zap.String("system", sys.ID()))
	}
	return report, nil
}

// progressEra supersedes the current era once it has run for its declared
// number of ticks. Eras with no duration last until the run ends.
func (e *Engine) progressEra(tick int) (bool, error) {
	current, ok := e.store.CurrentEra()
	if !ok {
		return false, nil
	}
	def, ok := e.domain.Era(current.ID)
	if !ok || def.Ticks <= 0 || tick-e.eraStarted <= def.Ticks {
		return false, nil
	}
	next, advanced, err := e.store.AdvanceEra()
	if err != nil {
		return false, fmt.Errorf("advancing era: %w", err)
	}
	if !advanced {
		return false, nil
	}
	e.eraStarted = tick - 1
	e.log.Info("era began", zap.Int("tick", tick), zap.String("era", next.ID), zap.String("previous", current.ID))
	return true, nil
}

// Run steps n times, stopping early when ctx is done.
func (e *Engine) Run(ctx context.Context, n int) ([]TickReport, error) {
	if n < 0 {
		return nil, fmt.Errorf("tick count must not be negative, got %d", n)
	}
	reports := make([]TickReport, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := e.Step()
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// PerformAction runs a catalog action for actorID outside the tick loop.
// An unknown action is an error; a failed action is reported in the result.
func (e *Engine) PerformAction(actionID, actorID string) (action.Result, error) {
	a, ok := e.domain.Action(actionID)
	if !ok {
		return action.Result{}, fmt.Errorf("unknown action: %s", actionID)
	}
	result := e.actions.Execute(a, actorID)
	if !result.Success {
		e.log.Debug("action failed",
			zap.String("action", a.ID),
			zap.String("actor", actorID),
			zap.String("reason", string(result.FailureReason)),
			zap.String("diagnostic", result.Diagnostic))
	}
	return result, nil
}
