package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hymnsearch",
		Short:         "Grounded semantic search over the Rigveda",
		Long:          `Refine a question with corpus term weights, rank hymn passages by embedding similarity and summarize them without outside knowledge.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (default ./config.yaml, then ~/.config/hymnsearch/config.yaml)")

	rootCmd.AddCommand(
		NewServeCmd(),
		NewAskCmd(),
		NewTUICmd(),
		NewMCPCmd(),
		NewQdrantSyncCmd(),
	)
	return rootCmd
}
