package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"worldweave/internal/seed"
)

func queryListCmd() *cobra.Command {
	var kind string
	var status string
	var layer string
	var tag string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entities in the world",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryList(cmd, kind, status, layer, tag)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Entity kind to filter")
	cmd.Flags().StringVar(&status, "status", "", "Status to filter")
	cmd.Flags().StringVar(&layer, "layer", "", "Lore layer to filter")
	cmd.Flags().StringVar(&tag, "tag", "", "Tag to filter")
	return cmd
}

func runQueryList(cmd *cobra.Command, kind, status, layer, tag string) error {
	e, err := queryWorld(cmd)
	if err != nil {
		return err
	}

	count := 0
	for _, entity := range e.Store().FindEntities(kind, "", status) {
		if tag != "" && !entity.HasTag(tag) {
			continue
		}
		if layer != "" && !entity.TagEquals(seed.LayerTag, layer) {
			continue
		}
		fmt.Fprintf(os.Stdout, "%s %q (%s) [%s, %s]\n", entity.ID, entity.Name, entity.Kind, entity.Status, entity.Prominence)
		count++
	}
	if count == 0 {
		fmt.Fprintln(os.Stdout, "No entities found.")
	}
	return nil
}
