package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"worldweave/internal/validate"
)

func validateCmd() *cobra.Command {
	var flags worldFlags
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run consistency checks against a seeded or simulated world",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, domain, err := loadProject(cmd)
			if err != nil {
				return err
			}
			seed, ticks := flags.resolve(cmd, cfg)
			e, _, err := buildWorld(cmd.Context(), cfg, domain, seed, ticks)
			if err != nil {
				return err
			}

			report, err := validate.Run(domain, e.Store())
			if err != nil {
				return err
			}
			return printReport(report)
		},
	}
	flags.register(cmd, false)
	return cmd
}

func printReport(report *validate.Report) error {
	errorIssues := report.Errors()
	warnIssues := report.Warnings()

	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintln(os.Stdout, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(errorIssues))
		printIssues(os.Stdout, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(os.Stdout, "")
		}
		fmt.Fprintf(os.Stdout, "Warnings (%d):\n", len(warnIssues))
		printIssues(os.Stdout, warnIssues)
	}

	if len(errorIssues) > 0 {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out *os.File, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.Entity
		if issue.Layer != "" {
			location = fmt.Sprintf("%s [%s]", issue.Entity, issue.Layer)
		}
		if location == "" {
			location = "world"
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
