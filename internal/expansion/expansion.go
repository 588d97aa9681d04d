// Package expansion drives the work queue to completion: claiming
// discovered articles, running the ingestion pipeline over them, then
// discovering their outgoing links for the next wave.
package expansion

import (
	"context"
	"time"

	"kgpack/internal/core"
	"kgpack/internal/graphstore"
	"kgpack/internal/ingestion"
	"kgpack/internal/linkdiscovery"
	"kgpack/internal/logger"
	"kgpack/internal/security"
	"kgpack/internal/workqueue"
)

// Config controls one expansion run.
type Config struct {
	MaxDepth      int
	BatchSize     int
	ClaimTimeout  time.Duration
	TargetCount   int
	MaxIterations int
}

// Driver runs the sequential reference expansion loop over one pack.
type Driver struct {
	Store    *graphstore.Store
	Queue    *workqueue.Queue
	Pipeline *ingestion.Pipeline
	Config   Config
}

// Run drives the loop to completion: target reached, stalled (no
// claimable and no discovered work left), or max_iterations exhausted.
func (d *Driver) Run(ctx context.Context) error {
	iterations := 0
	for {
		if d.Config.MaxIterations > 0 && iterations >= d.Config.MaxIterations {
			logger.Info("expansion stopped: max iterations reached", "iterations", iterations)
			return nil
		}
		iterations++

		loaded, err := d.Store.LoadedCount(ctx)
		if err != nil {
			return err
		}
		if d.Config.TargetCount > 0 && loaded >= d.Config.TargetCount {
			logger.Info("expansion stopped: target reached", "loaded", loaded)
			return nil
		}

		if iterations%5 == 0 {
			timeout := int(d.Config.ClaimTimeout.Seconds())
			if n, err := d.Queue.ReclaimStale(ctx, timeout); err != nil {
				logger.Warn("reclaim stale failed", "error", security.SanitizeError(err.Error()))
			} else if n > 0 {
				logger.Info("reclaimed stale articles", "count", n)
			}
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
				logger.Info("expansion stopped: stalled, no discovered work remains")
				return nil
			}
			time.Sleep(200 * time.Millisecond)
			continue
		}

		for _, c := range claimed {
			d.processOne(ctx, c.Title, c.Depth)
		}
	}
}

func (d *Driver) processOne(ctx context.Context, title string, depth int) {
	if err := d.Queue.UpdateHeartbeat(ctx, title); err != nil {
		logger.Warn("heartbeat failed", "title", title, "error", security.SanitizeError(err.Error()))
	}

	result, err := d.Pipeline.Ingest(ctx, title, "")
	if err != nil {
		if ferr := d.Queue.MarkFailed(ctx, title, err.Error()); ferr != nil {
			logger.Error("mark failed also failed", ferr, "title", title)
		}
		return
	}

	if err := d.Queue.AdvanceState(ctx, title, core.StateLoaded); err != nil {
		logger.Error("advance to loaded failed", err, "title", title)
		return
	}

	if depth < d.Config.MaxDepth {
		if _, err := linkdiscovery.Discover(ctx, d.Store, title, result.Links, depth, d.Config.MaxDepth); err != nil {
			logger.Warn("link discovery failed", "title", title, "error", security.SanitizeError(err.Error()))
		}
	}

	if err := d.Queue.AdvanceState(ctx, title, core.StateProcessed); err != nil {
		logger.Error("advance to processed failed", err, "title", title)
	}
}
