package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"kgpack/internal/config"
	"kgpack/internal/expansion"
	"kgpack/internal/extractor"
	"kgpack/internal/graphstore"
	"kgpack/internal/ingestion"
	"kgpack/internal/llm"
	"kgpack/internal/logger"
	"kgpack/internal/sources"
	"kgpack/internal/workqueue"
)

// NewExpandCmd creates the expand command, which seeds a pack's graph
// store from a urls.txt-style seed file and drives the work queue to
// completion.
func NewExpandCmd() *cobra.Command {
	var (
		seedsFile  string
		packPath   string
		sourceName string
		parallel   bool
	)

	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Expand a knowledge pack from a seed file",
		Long: `Seed a pack's graph store from a line-oriented seed file (blank
lines and "#" comments ignored) and drive the expansion loop until the
target article count is reached or the queue stalls.

Examples:
  kgpack expand --seeds urls.txt --pack ./build/pack.db --source wikipedia
  kgpack expand --seeds urls.txt --pack ./build/pack.db --source web --parallel`,
		RunE: func(c *cobra.Command, args []string) error {
			return runExpand(c.Context(), seedsFile, packPath, sourceName, parallel)
		},
	}

	cmd.Flags().StringVar(&seedsFile, "seeds", "", "path to the seed file (required)")
	cmd.Flags().StringVar(&packPath, "pack", "pack.db", "path to the pack's SQLite database")
	cmd.Flags().StringVar(&sourceName, "source", "wikipedia", "content source: wikipedia or web")
	cmd.Flags().BoolVar(&parallel, "parallel", false, "use the pooled fetch/extract variant")
	cmd.MarkFlagRequired("seeds")

	return cmd
}

func runExpand(ctx context.Context, seedsFile, packPath, sourceName string, parallel bool) error {
	cfg := config.Get()

	seeds, err := readSeedFile(seedsFile)
	if err != nil {
		return fmt.Errorf("reading seed file: %w", err)
	}
	if len(seeds) == 0 {
		return fmt.Errorf("seed file %s contains no URLs", seedsFile)
	}

	store, err := graphstore.Open(packPath, cfg.Store.EmbeddingDims)
	if err != nil {
		return fmt.Errorf("opening pack store: %w", err)
	}
	defer store.Close()

	for _, seed := range seeds {
		if err := store.InsertSeedArticle(ctx, seed); err != nil {
			logger.Warn("seeding article failed", "title", seed, "error", err)
		}
	}

	var source ingestion.Source
	switch sourceName {
	case "wikipedia":
		source = sources.NewWikipediaSource(cfg.Wikipedia.BaseURL, cfg.Wikipedia.UserAgent,
			cfg.Wikipedia.RateLimitDelay, cfg.Wikipedia.MaxRetries, cfg.Wikipedia.Timeout)
	case "web":
		source = sources.NewWebSource(cfg.WebSource.UserAgent, cfg.WebSource.Timeout, cfg.WebSource.RateLimitDelay,
			cfg.WebSource.MinSectionChars, cfg.WebSource.MinWordCount, cfg.WebSource.AllowedSchemes)
	default:
		return fmt.Errorf("unknown source %q: expected wikipedia or web", sourceName)
	}

	client, err := llm.NewClient(cfg.LLM.Model)
	if err != nil {
		return fmt.Errorf("creating LLM client: %w", err)
	}

	pipeline := &ingestion.Pipeline{
		Source:       source,
		Embedder:     client,
		Extractor:    extractor.New(client),
		Store:        store,
		ChunkSize:    cfg.Expansion.ChunkSize,
		ChunkOverlap: cfg.Expansion.ChunkOverlap,
	}

	driver := &expansion.Driver{
		Store:    store,
		Queue:    workqueue.New(store, cfg.Expansion.MaxRetries),
		Pipeline: pipeline,
		Config: expansion.Config{
			MaxDepth:      cfg.Expansion.MaxDepth,
			BatchSize:     cfg.Expansion.BatchSize,
			ClaimTimeout:  cfg.Expansion.ClaimTimeout,
			TargetCount:   cfg.Expansion.TargetCount,
			MaxIterations: cfg.Expansion.MaxIterations,
		},
	}

	if parallel {
		return driver.RunParallel(ctx, expansion.ParallelConfig{
			Config:        driver.Config,
			FetchPoolSize: cfg.Expansion.FetchPoolSize,
			LLMPoolSize:   cfg.Expansion.LLMPoolSize,
		})
	}
	return driver.Run(ctx)
}

func readSeedFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var seeds []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seeds = append(seeds, line)
	}
	return seeds, scanner.Err()
}
