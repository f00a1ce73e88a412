package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"worldweave/internal/config"
	"worldweave/internal/engine"
	"worldweave/internal/logging"
)

// worldFlags are shared by every command that builds a world.
type worldFlags struct {
	seed  uint64
	ticks int
	// fromConfig makes simulation.ticks the default tick count.
	fromConfig bool
}

func (f *worldFlags) register(cmd *cobra.Command, fromConfig bool) {
	f.fromConfig = fromConfig
	usage := "Ticks to simulate before answering"
	if fromConfig {
		usage = "Ticks to simulate (defaults to simulation.ticks)"
	}
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Random seed (defaults to simulation.seed)")
	cmd.Flags().IntVar(&f.ticks, "ticks", 0, usage)
}

func (f *worldFlags) resolve(cmd *cobra.Command, cfg *config.ProjectConfig) (uint64, int) {
	seed := cfg.Simulation.Seed
	if cmd.Flags().Changed("seed") {
		seed = f.seed
	}
	ticks := f.ticks
	if f.fromConfig && !cmd.Flags().Changed("ticks") {
		ticks = cfg.Simulation.Ticks
	}
	return seed, max(0, ticks)
}

// loadProject reads the project config and its domain. Log settings from
// the config apply unless overridden on the command line.
func loadProject(cmd *cobra.Command) (*config.ProjectConfig, *config.Domain, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	level, format := logLevel, logFormat
	if !cmd.Flags().Changed("log-level") && cfg.Log.Level != "" {
		level = cfg.Log.Level
	}
	if !cmd.Flags().Changed("log-format") && cfg.Log.Format != "" {
		format = cfg.Log.Format
	}
	if _, err := logging.Init(level, format); err != nil {
		return nil, nil, err
	}

	domain, err := config.LoadDomain(cfg.Domain)
	if err != nil {
		return nil, nil, err
	}
	return cfg, domain, nil
}

func buildWorld(ctx context.Context, cfg *config.ProjectConfig, domain *config.Domain, seed uint64, ticks int) (*engine.Engine, []engine.TickReport, error) {
	e, err := engine.New(domain, engine.Options{
		Seed:    seed,
		Project: cfg,
		Logger:  logging.New("engine"),
	})
	if err != nil {
		return nil, nil, err
	}
	reports, err := e.Run(ctx, ticks)
	if err != nil {
		return nil, nil, fmt.Errorf("simulating %d ticks: %w", ticks, err)
	}
	return e, reports, nil
}
