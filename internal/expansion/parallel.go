package expansion

import (
	"context"

	"golang.org/x/sync/errgroup"

	"kgpack/internal/core"
	"kgpack/internal/ingestion"
	"kgpack/internal/linkdiscovery"
	"kgpack/internal/logger"
	"kgpack/internal/security"
)

const (
	defaultFetchPoolSize = 10
	defaultLLMPoolSize   = 20
)

// ParallelConfig extends Config with the fan-out-fan-in pool sizes for
// the concurrent variant.
type ParallelConfig struct {
	Config
	FetchPoolSize int
	LLMPoolSize   int
}

type ingestedArticle struct {
	title  string
	depth  int
	result ingestion.Result
	err    error
}

// RunParallel drives the same claim/ingest/advance loop as Run, but
// fans a claimed batch's fetch-and-extract work out across a bounded
// worker pool before serializing every graph write back onto the
// calling goroutine (the single writer). The fetch and LLM pool sizes
// only bound concurrency within one batch; batches themselves are
// still processed one at a time.
func (d *Driver) RunParallel(ctx context.Context, cfg ParallelConfig) error {
	fetchPool := cfg.FetchPoolSize
	if fetchPool <= 0 {
		fetchPool = defaultFetchPoolSize
	}
	llmPool := cfg.LLMPoolSize
	if llmPool <= 0 {
		llmPool = defaultLLMPoolSize
	}
	d.Config = cfg.Config

	iterations := 0
	for {
		if d.Config.MaxIterations > 0 && iterations >= d.Config.MaxIterations {
			logger.Info("parallel expansion stopped: max iterations reached", "iterations", iterations)
			return nil
		}
		iterations++

		loaded, err := d.Store.LoadedCount(ctx)
		if err != nil {
			return err
		}
		if d.Config.TargetCount > 0 && loaded >= d.Config.TargetCount {
			logger.Info("parallel expansion stopped: target reached", "loaded", loaded)
			return nil
		}

		claimed, err := d.Queue.ClaimWork(ctx, d.Config.BatchSize)
		if err != nil {
			return err
		}
		if len(claimed) == 0 {
			stats, err := d.Queue.GetQueueStats(ctx)
			if err != nil {
				return err
			}
			if stats.Discovered == 0 {
				logger.Info("parallel expansion stopped: stalled, no discovered work remains")
				return nil
			}
			continue
		}

		results := make([]ingestedArticle, len(claimed))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(min(fetchPool, llmPool))
		for i, c := range claimed {
			i, c := i, c
			g.Go(func() error {
				if err := d.Queue.UpdateHeartbeat(gctx, c.Title); err != nil {
					logger.Warn("heartbeat failed", "title", c.Title, "error", security.SanitizeError(err.Error()))
				}
				result, err := d.Pipeline.Ingest(gctx, c.Title, "")
				results[i] = ingestedArticle{title: c.Title, depth: c.Depth, result: result, err: err}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		// Single writer: apply state transitions and link discovery
		// (themselves graph writes) in the arrival order of the batch.
		for _, r := range results {
			if r.err != nil {
				if ferr := d.Queue.MarkFailed(ctx, r.title, r.err.Error()); ferr != nil {
					logger.Error("mark failed also failed", ferr, "title", r.title)
				}
				continue
			}
			if err := d.Queue.AdvanceState(ctx, r.title, core.StateLoaded); err != nil {
				logger.Error("advance to loaded failed", err, "title", r.title)
				continue
			}
			if r.depth < d.Config.MaxDepth {
				if _, err := linkdiscovery.Discover(ctx, d.Store, r.title, r.result.Links, r.depth, d.Config.MaxDepth); err != nil {
					logger.Warn("link discovery failed", "title", r.title, "error", security.SanitizeError(err.Error()))
				}
			}
			if err := d.Queue.AdvanceState(ctx, r.title, core.StateProcessed); err != nil {
				logger.Error("advance to processed failed", err, "title", r.title)
			}
		}
	}
}
