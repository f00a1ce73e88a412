package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

func queryEntityCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entity <id>",
		Short: "Display an entity, its tags and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueryEntity(cmd, args[0])
		},
	}
}

func runQueryEntity(cmd *cobra.Command, id string) error {
	e, err := queryWorld(cmd)
	if err != nil {
		return err
	}

	entity, ok := e.Store().Snapshot(id)
	if !ok {
		fmt.Fprintf(os.Stdout, "No entity found for %q.\n", id)
		return nil
	}

	fmt.Fprintf(os.Stdout, "ID: %s\n", entity.ID)
	fmt.Fprintf(os.Stdout, "Name: %s\n", entity.Name)
	kind := entity.Kind
	if entity.Subtype != "" {
		kind = fmt.Sprintf("%s/%s", entity.Kind, entity.Subtype)
	}
	fmt.Fprintf(os.Stdout, "Kind: %s\n", kind)
	fmt.Fprintf(os.Stdout, "Status: %s\n", entity.Status)
	fmt.Fprintf(os.Stdout, "Prominence: %s\n", entity.Prominence)
	if entity.Culture != "" {
		fmt.Fprintf(os.Stdout, "Culture: %s\n", entity.Culture)
	}
	if entity.Description != "" {
		fmt.Fprintf(os.Stdout, "Description: %s\n", entity.Description)
	}

	if len(entity.Tags) > 0 {
		keys := make([]string, 0, len(entity.Tags))
		for key := range entity.Tags {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Fprintln(os.Stdout, "Tags:")
		for _, key := range keys {
			fmt.Fprintf(os.Stdout, "  %s: %v\n", key, entity.Tags[key])
		}
	}

	if len(entity.CatalyzedEvents) > 0 {
		fmt.Fprintln(os.Stdout, "History:")
		for _, event := range entity.CatalyzedEvents {
			fmt.Fprintf(os.Stdout, "  [%d] %s (%s)\n", event.Tick, event.Description, event.Source)
		}
	}
	return nil
}
