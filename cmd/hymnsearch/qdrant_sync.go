package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"hymnsearch/internal/config"
	"hymnsearch/internal/corpus"
)

func NewQdrantSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qdrant-sync",
		Short: "Upload the corpus embeddings to the configured Qdrant collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.VectorStore.Qdrant == nil {
				cfg.VectorStore.Qdrant = &config.QdrantConfig{}
			}
			log := newLogger(cfg.Log, cmd.ErrOrStderr())

			store, err := corpus.Load(corpus.Paths{
				Embeddings:     cfg.Corpus.Embeddings,
				Labels:         cfg.Corpus.Labels,
				Texts:          cfg.Corpus.Texts,
				LabelDelimiter: cfg.Corpus.LabelRune(),
			})
			if err != nil {
				return err
			}
			q, err := newQdrantRanker(cfg, store, nil)
			if err != nil {
				return err
			}
			defer q.Close()

			if reset, _ := cmd.Flags().GetBool("reset"); reset {
				if err := q.Clear(cmd.Context()); err != nil {
					log.Warn("drop collection failed", "error", err)
				}
			}
			n, err := q.Sync(cmd.Context())
			if err != nil {
				return err
			}
			log.Info("qdrant sync done", "points", n)
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %d passages\n", n)
			return nil
		},
	}
	cmd.Flags().Bool("reset", false, "Drop the collection before uploading")
	return cmd
}
