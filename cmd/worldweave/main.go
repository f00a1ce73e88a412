package main

import (
	"os"

	"github.com/spf13/cobra"

	"worldweave/internal/logging"
)

var (
	configPath string
	logLevel   string
	logFormat  string
)

func main() {
	root := &cobra.Command{
		Use:           "worldweave",
		Short:         "Declarative graph-evolution engine for generated world histories",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := logging.Init(logLevel, logFormat)
			return err
		},
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "worldweave.yaml", "Project config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format: console or json")
	root.AddCommand(runCmd())
	root.AddCommand(sweepCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(queryCmd())
	root.AddCommand(initCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
