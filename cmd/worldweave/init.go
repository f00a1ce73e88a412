package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	var projectName string
	var template string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new worldweave project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			return runInit(projectName, template)
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&template, "template", "coastal-realms", "Domain template name")
	return cmd
}

func runInit(projectName, template string) error {
	configPath := "worldweave.yaml"
	domainPath := "domain.yaml"
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}
	if _, err := os.Stat(domainPath); err == nil {
		return fmt.Errorf("%s already exists", domainPath)
	}

	templatePath := filepath.Join("domains", template+".yaml")
	contents, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("reading template %s: %w", template, err)
	}

	configContents := fmt.Sprintf("project: %s\nversion: 1\ndomain: %s\n\nlayers:\n  - name: setting\n    paths:\n      - ./lore/\n\nexclude:\n  - ./lore/drafts/\n\nsimulation:\n  seed: 1\n  ticks: 100\n  runs: 4\n\nlog:\n  level: info\n  format: console\n", projectName, domainPath)
	if err := os.WriteFile(configPath, []byte(configContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	if err := os.WriteFile(domainPath, contents, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", domainPath, err)
	}
	if err := os.MkdirAll("lore", 0o755); err != nil {
		return fmt.Errorf("creating lore directory: %w", err)
	}

	return nil
}
