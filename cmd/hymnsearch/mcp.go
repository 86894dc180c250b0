package main

import (
	"github.com/spf13/cobra"

	"hymnsearch/internal/mcpserver"
)

func NewMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the search tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			h := mcpserver.NewHandlers(a.service, a.refiner, a.cfg.Server.DefaultTopK, a.log)
			a.log.Info("mcp server ready, waiting for requests")
			return mcpserver.ServeStdio(cmd.Context(), h)
		},
	}
}
