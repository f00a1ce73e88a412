package main

import (
	"github.com/spf13/cobra"

	"worldweave/internal/engine"
)

var queryFlags worldFlags

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Inspect a seeded or simulated world from the CLI",
	}
	cmd.PersistentFlags().Uint64Var(&queryFlags.seed, "seed", 0, "Random seed (defaults to simulation.seed)")
	cmd.PersistentFlags().IntVar(&queryFlags.ticks, "ticks", 0, "Ticks to simulate before answering")
	cmd.AddCommand(queryEntityCmd())
	cmd.AddCommand(queryRelationsCmd())
	cmd.AddCommand(queryListCmd())
	return cmd
}

func queryWorld(cmd *cobra.Command) (*engine.Engine, error) {
	cfg, domain, err := loadProject(cmd)
	if err != nil {
		return nil, err
	}
	seed, ticks := queryFlags.resolve(cmd, cfg)
	e, _, err := buildWorld(cmd.Context(), cfg, domain, seed, ticks)
	return e, err
}
