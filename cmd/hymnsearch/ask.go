package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"hymnsearch/internal/server"
	"hymnsearch/internal/service"
)

func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <query> [more queries...]",
		Short: "Run one search and print the JSON response",
		Long:  `Each argument is refined and ranked separately; passages are deduplicated across them before summarizing.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			topK, _ := cmd.Flags().GetInt("top-k")
			if topK == 0 {
				topK = a.cfg.Server.DefaultTopK
			}
			noSummary, _ := cmd.Flags().GetBool("no-summary")
			debug, _ := cmd.Flags().GetBool("debug")

			ans, err := a.service.Search(cmd.Context(), service.Request{
				Queries:        args,
				TopK:           topK,
				IncludeSummary: !noSummary,
			})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(server.NewResponse(ans, debug))
		},
	}
	cmd.Flags().IntP("top-k", "k", 0, "Passages per query (default server.default_top_k)")
	cmd.Flags().Bool("no-summary", false, "Skip the grounded summary")
	cmd.Flags().Bool("debug", false, "Include the label to text mapping")
	return cmd
}
