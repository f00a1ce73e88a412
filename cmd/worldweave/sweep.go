package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type sweepResult struct {
	seed          uint64
	runID         string
	era           string
	entities      int
	relationships int
	violations    int
}

func sweepCmd() *cobra.Command {
	var flags worldFlags
	var runs int
	var parallel int
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Simulate several seeds in parallel and compare the outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, domain, err := loadProject(cmd)
			if err != nil {
				return err
			}
			base, ticks := flags.resolve(cmd, cfg)
			if !cmd.Flags().Changed("runs") {
				runs = cfg.Simulation.Runs
			}
			if runs <= 0 {
				return fmt.Errorf("--runs must be positive")
			}

			results := make([]sweepResult, runs)
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(1, parallel))
			for i := 0; i < runs; i++ {
				seed := base + uint64(i)
				g.Go(func() error {
					e, reports, err := buildWorld(ctx, cfg, domain, seed, ticks)
					if err != nil {
						return fmt.Errorf("seed %d: %w", seed, err)
					}
					store := e.Store()
					result := sweepResult{
						seed:          seed,
						runID:         e.RunID(),
						entities:      store.EntityCount(),
						relationships: store.RelationshipCount(),
					}
					if era, ok := store.CurrentEra(); ok {
						result.era = era.ID
					}
					for _, report := range reports {
						result.violations += len(report.Total().Violations)
					}
					results[i] = result
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "Sweep complete: %d runs of %d ticks.\n", runs, ticks)
			for _, r := range results {
				fmt.Fprintf(os.Stdout, "  seed %d: %d entities, %d relationships, era %s, %d violations (%s)\n",
					r.seed, r.entities, r.relationships, r.era, r.violations, r.runID)
			}
			return nil
		},
	}
	flags.register(cmd, true)
	cmd.Flags().IntVar(&runs, "runs", 1, "Number of seeds to run (defaults to simulation.runs)")
	cmd.Flags().IntVar(&parallel, "parallel", runtime.NumCPU(), "Maximum concurrent runs")
	return cmd
}
