package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"kgpack/internal/config"
	"kgpack/internal/graphstore"
	"kgpack/internal/llm"
	"kgpack/internal/retrieval"
)

// NewQueryCmd creates the one-shot query command.
func NewQueryCmd() *cobra.Command {
	var (
		packPath    string
		maxResults  int
		useGraphRAG bool
	)

	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Ask a question against a knowledge pack",
		Long: `Run one retrieval-and-synthesis pass against a pack's graph store
and print the answer plus its sources.

Example:
  kgpack query --pack ./build/pack.db "What is the capital of France?"`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runQueryCmd(c.Context(), packPath, args[0], maxResults, useGraphRAG)
		},
	}

	cmd.Flags().StringVar(&packPath, "pack", "pack.db", "path to the pack's SQLite database")
	cmd.Flags().IntVar(&maxResults, "max-results", 5, "maximum number of sources to retrieve")
	cmd.Flags().BoolVar(&useGraphRAG, "graph-rag", false, "use the opt-in graph-traversal retrieval path")

	return cmd
}

func runQueryCmd(ctx context.Context, packPath, question string, maxResults int, useGraphRAG bool) error {
	cfg := config.Get()

	store, err := graphstore.Open(packPath, cfg.Store.EmbeddingDims)
	if err != nil {
		return fmt.Errorf("opening pack store: %w", err)
	}
	defer store.Close()

	client, err := llm.NewClient(cfg.LLM.Model)
	if err != nil {
		return fmt.Errorf("creating LLM client: %w", err)
	}

	engine := &retrieval.Engine{
		Store:    store,
		Embedder: client,
		Gen:      client,
		Config: retrieval.Config{
			SimilarityThreshold:  cfg.Retrieval.SimilarityThreshold,
			ContentQualityMin:    cfg.Retrieval.ContentQualityMin,
			VectorWeight:         cfg.Retrieval.VectorWeight,
			GraphWeight:          cfg.Retrieval.GraphWeight,
			KeywordWeight:        cfg.Retrieval.KeywordWeight,
			RerankVectorWeight:   cfg.Retrieval.RerankVectorWeight,
			RerankGraphWeight:    cfg.Retrieval.RerankGraphWeight,
			RRFK:                 cfg.Retrieval.RRFK,
			PlanCacheSize:        cfg.Retrieval.PlanCacheSize,
			EnableReranker:       cfg.Retrieval.EnableReranker,
			EnableMultiDoc:       cfg.Retrieval.EnableMultiDoc,
			EnableFewShot:        cfg.Retrieval.EnableFewShot,
			EnableMultiQuery:     cfg.Retrieval.EnableMultiQuery,
			EnableCypherFallback: cfg.Retrieval.EnableCypherFallback,
			FewShotExamplesPath:  cfg.Retrieval.FewShotExamplesPath,
		},
	}

	result, err := engine.Query(ctx, question, maxResults, useGraphRAG)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	fmt.Println(result.Answer)
	if len(result.Sources) > 0 {
		fmt.Println("\nSources:")
		for _, s := range result.Sources {
			fmt.Printf("  - %s\n", s.Title)
		}
	}
	return nil
}
