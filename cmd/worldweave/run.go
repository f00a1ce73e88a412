package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"worldweave/internal/engine"
	"worldweave/internal/graph"
)

func runCmd() *cobra.Command {
	var flags worldFlags
	var asJSON bool
	var verbose bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Seed a world and simulate it tick by tick",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, domain, err := loadProject(cmd)
			if err != nil {
				return err
			}
			seed, ticks := flags.resolve(cmd, cfg)

			e, reports, err := buildWorld(cmd.Context(), cfg, domain, seed, ticks)
			if err != nil {
				return err
			}
			if asJSON {
				return writeWorldJSON(e, seed)
			}
			if verbose {
				printTicks(reports)
			}
			printRunSummary(e, seed, reports)
			return nil
		},
	}
	flags.register(cmd, true)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write the final world as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every tick that changed the world")
	return cmd
}

func printTicks(reports []engine.TickReport) {
	for _, report := range reports {
		if report.EraChanged {
			fmt.Fprintf(os.Stdout, "tick %d: era %s begins\n", report.Tick, report.Era)
		}
		for _, sys := range report.Systems {
			if !sys.Modified() && len(sys.Violations) == 0 {
				continue
			}
			fmt.Fprintf(os.Stdout, "tick %d [%s] %s\n", report.Tick, report.Era, sys.Description)
		}
	}
}

func printRunSummary(e *engine.Engine, seed uint64, reports []engine.TickReport) {
	store := e.Store()
	violations := 0
	for _, report := range reports {
		violations += len(report.Total().Violations)
	}

	fmt.Fprintln(os.Stdout, "Run complete.")
	fmt.Fprintf(os.Stdout, "  Run:           %s\n", e.RunID())
	fmt.Fprintf(os.Stdout, "  Seed:          %d\n", seed)
	fmt.Fprintf(os.Stdout, "  Ticks:         %d\n", store.Tick())
	if era, ok := store.CurrentEra(); ok {
		fmt.Fprintf(os.Stdout, "  Era:           %s\n", era.Name)
	}
	fmt.Fprintf(os.Stdout, "  Entities:      %d\n", store.EntityCount())
	fmt.Fprintf(os.Stdout, "  Relationships: %d\n", store.RelationshipCount())
	fmt.Fprintf(os.Stdout, "  Violations:    %d\n", violations)

	names := store.PressureNames()
	if len(names) > 0 {
		fmt.Fprintln(os.Stdout, "  Pressures:")
		for _, name := range names {
			fmt.Fprintf(os.Stdout, "    %s: %.2f\n", name, store.Pressure(name))
		}
	}

	if seeded := e.SeedResult(); seeded != nil && len(seeded.Errors) > 0 {
		fmt.Fprintf(os.Stdout, "\nSeed errors (%d):\n", len(seeded.Errors))
		for _, item := range seeded.Errors {
			fmt.Fprintf(os.Stdout, "  - %v\n", item)
		}
	}
}

type worldDump struct {
	RunID         string               `json:"run_id"`
	Seed          uint64               `json:"seed"`
	Tick          int                  `json:"tick"`
	Era           string               `json:"era,omitempty"`
	Pressures     map[string]float64   `json:"pressures"`
	Entities      []graph.Entity       `json:"entities"`
	Relationships []graph.Relationship `json:"relationships"`
}

func writeWorldJSON(e *engine.Engine, seed uint64) error {
	store := e.Store()
	dump := worldDump{
		RunID:         e.RunID(),
		Seed:          seed,
		Tick:          store.Tick(),
		Pressures:     store.Pressures(),
		Relationships: store.Relationships(),
	}
	if era, ok := store.CurrentEra(); ok {
		dump.Era = era.ID
	}
	for _, entity := range store.Entities() {
		snapshot, _ := store.Snapshot(entity.ID)
		snapshot.Links = nil
		dump.Entities = append(dump.Entities, snapshot)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(dump); err != nil {
		return fmt.Errorf("encoding world: %w", err)
	}
	return nil
}
