package main

import (
	"github.com/spf13/cobra"

	"hymnsearch/internal/server"
)

func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /semantic-search over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			srv := server.New(a.service, server.Config{
				Addr:        addr,
				DefaultTopK: a.cfg.Server.DefaultTopK,
				CorpusSize:  a.store.Len(),
			}, a.log)
			return srv.Run(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	return cmd
}
