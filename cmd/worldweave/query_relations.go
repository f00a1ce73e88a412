package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func queryRelationsCmd() *cobra.Command {
	var kind string
	var direction string
	cmd := &cobra.Command{
		Use:   "relations <id>",
		Short: "Display relationships for an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryRelations(cmd, args[0], kind, direction)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Relationship kind to filter")
	cmd.Flags().StringVar(&direction, "direction", "both", "Direction: src, dst, or both")
	return cmd
}

func runQueryRelations(cmd *cobra.Command, id, kind, direction string) error {
	switch direction {
	case "src", "dst", "both":
	default:
		return fmt.Errorf("--direction must be src, dst, or both")
	}

	e, err := queryWorld(cmd)
	if err != nil {
		return err
	}
	store := e.Store()
	if _, ok := store.Entity(id); !ok {
		fmt.Fprintf(os.Stdout, "No entity found for %q.\n", id)
		return nil
	}

	count := 0
	for _, rel := range store.RelationshipsOf(id, kind) {
		if direction == "src" && rel.Src != id {
			continue
		}
		if direction == "dst" && rel.Dst != id {
			continue
		}
		fmt.Fprintf(os.Stdout, "%s -%s-> %s (strength %.2f, since tick %d)\n",
			rel.Src, rel.Kind, rel.Dst, rel.StrengthValue(), rel.CreatedAt)
		count++
	}
	if count == 0 {
		fmt.Fprintf(os.Stdout, "No relationships found for %q.\n", id)
	}
	return nil
}
