package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"worldweave/internal/mcp"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	var flags worldFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, domain, err := loadProject(cmd)
			if err != nil {
				return err
			}
			seed, ticks := flags.resolve(cmd, cfg)
			e, _, err := buildWorld(ctx, cfg, domain, seed, ticks)
			if err != nil {
				return err
			}

			server := mcp.NewServer(e, version)
			return server.Run(ctx, &sdk.StdioTransport{})
		},
	}
	flags.register(cmd, false)
	return cmd
}
