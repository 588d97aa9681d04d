// Package workqueue implements the crash-tolerant distributed work
// queue that coordinates concurrent workers claiming, heartbeating, and
// advancing Article nodes through the expansion_state machine
// (discovered → claimed → loaded → processed, plus failed) without
// double-processing or starvation under crash.
//
// State transitions here are conditional-predecessor-guarded UPDATEs
// rather than long-lived transactions (MarkFailed reads retry_count and
// then writes it with an unguarded UPDATE): the graph store's
// connection model auto-commits each statement, so a claim race is
// resolved by the UPDATE ... WHERE expansion_state = 'discovered'
// affecting zero rows for the losing caller rather than by locking.
package workqueue

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kgpack/internal/core"
	"kgpack/internal/graphstore"
	"kgpack/internal/logger"
	"kgpack/internal/security"
)

// ClaimedArticle is one article transitioned to 'claimed' by ClaimWork.
type ClaimedArticle struct {
	Title     string
	Depth     int
	ClaimedAt time.Time
}

// Queue is the work-queue state machine over one pack's graph store.
type Queue struct {
	store      *graphstore.Store
	maxRetries int
}

// New creates a work queue over store, terminally failing articles once
// retry_count reaches maxRetries.
func New(store *graphstore.Store, maxRetries int) *Queue {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Queue{store: store, maxRetries: maxRetries}
}

// legalPredecessors is the AdvanceState transition table from §4.1.
var legalPredecessors = map[core.ExpansionState][]core.ExpansionState{
	core.StateClaimed:    {core.StateDiscovered},
	core.StateLoaded:     {core.StateClaimed},
	core.StateProcessed:  {core.StateLoaded, core.StateClaimed},
	core.StateFailed:     {core.StateClaimed, core.StateDiscovered},
	core.StateDiscovered: {core.StateClaimed, core.StateFailed},
}

// ClaimWork atomically transitions up to batchSize articles from
// discovered to claimed, ordered by expansion_depth ascending (seeds
// first). Each claim is an individually guarded conditional UPDATE so
// that a losing concurrent caller simply sees zero rows affected and is
// silently dropped from the batch rather than erroring.
func (q *Queue) ClaimWork(ctx context.Context, batchSize int) ([]ClaimedArticle, error) {
	candidates, err := q.discoveredCandidates(ctx, batchSize*3)
	if err != nil {
		return nil, err
	}

	var claimed []ClaimedArticle
	for _, c := range candidates {
		if len(claimed) >= batchSize {
			break
		}
		now := time.Now().UTC()
		res, err := q.store.DB().ExecContext(ctx, `
			UPDATE articles SET expansion_state = 'claimed', claimed_at = ?
			WHERE title = ? AND expansion_state = 'discovered'`, now, c.title)
		if err != nil {
			logger.Error("claim work failed", err, "title", c.title)
			continue
		}
		n, err := res.RowsAffected()
		if err != nil || n == 0 {
			continue // lost the race to another worker; silently dropped
		}
		claimed = append(claimed, ClaimedArticle{Title: c.title, Depth: c.depth, ClaimedAt: now})
	}
	return claimed, nil
}

type discoveredRow struct {
	title string
	depth int
}

func (q *Queue) discoveredCandidates(ctx context.Context, limit int) ([]discoveredRow, error) {
	rows, err := q.store.DB().QueryContext(ctx, `
		SELECT title, expansion_depth FROM articles
		WHERE expansion_state = 'discovered'
		ORDER BY expansion_depth ASC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []discoveredRow
	for rows.Next() {
		var r discoveredRow
		if err := rows.Scan(&r.title, &r.depth); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpdateHeartbeat resets claimed_at to now while the article is still
// claimed; otherwise it is a no-op (the article may have been reclaimed
// or advanced already).
func (q *Queue) UpdateHeartbeat(ctx context.Context, title string) error {
	_, err := q.store.DB().ExecContext(ctx, `
		UPDATE articles SET claimed_at = ? WHERE title = ? AND expansion_state = 'claimed'`,
		time.Now().UTC(), title)
	return err
}

// ReclaimStale returns every article claimed longer than timeoutSec ago
// back to discovered, nulling claimed_at, and returns the count reclaimed.
func (q *Queue) ReclaimStale(ctx context.Context, timeoutSec int) (int, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(timeoutSec) * time.Second)
	res, err := q.store.DB().ExecContext(ctx, `
		UPDATE articles SET expansion_state = 'discovered', claimed_at = NULL
		WHERE expansion_state = 'claimed' AND claimed_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// AdvanceState transitions an article to newState only from a legal
// predecessor state, rejecting unknown states outright. Sets
// processed_at = now on transition to processed.
func (q *Queue) AdvanceState(ctx context.Context, title string, newState core.ExpansionState) error {
	predecessors, ok := legalPredecessors[newState]
	if !ok {
		return fmt.Errorf("workqueue: unknown target state %q", newState)
	}

	query := fmt.Sprintf(`UPDATE articles SET expansion_state = ? %s WHERE title = ? AND expansion_state IN (%s)`,
		setProcessedAtClause(newState), placeholders(len(predecessors)))
	args := []any{string(newState)}
	if newState == core.StateProcessed {
		args = append(args, time.Now().UTC())
	}
	args = append(args, title)
	for _, p := range predecessors {
		args = append(args, string(p))
	}

	res, err := q.store.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("workqueue: %q cannot advance to %q from its current state", title, newState)
	}
	return nil
}

func setProcessedAtClause(newState core.ExpansionState) string {
	if newState == core.StateProcessed {
		return ", processed_at = ?"
	}
	return ""
}

func placeholders(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += "?"
	}
	return out
}

// MarkFailed increments retry_count. If the new count reaches
// maxRetries, the article becomes terminally failed; otherwise it
// returns to discovered with claimed_at nulled for a future retry. The
// error text is redacted for credentials before it is logged, and is
// never persisted.
func (q *Queue) MarkFailed(ctx context.Context, title string, errText string) error {
	logger.Warn("article processing failed", "title", title, "error", security.SanitizeError(errText))

	row := q.store.DB().QueryRowContext(ctx, `SELECT retry_count FROM articles WHERE title = ?`, title)
	var retryCount int
	if err := row.Scan(&retryCount); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return err
	}
	retryCount++

	if retryCount >= q.maxRetries {
		_, err := q.store.DB().ExecContext(ctx, `
			UPDATE articles SET expansion_state = 'failed', retry_count = ?, claimed_at = NULL
			WHERE title = ?`, retryCount, title)
		return err
	}
	_, err := q.store.DB().ExecContext(ctx, `
		UPDATE articles SET expansion_state = 'discovered', retry_count = ?, claimed_at = NULL
		WHERE title = ?`, retryCount, title)
	return err
}

// GetQueueStats aggregates article counts per expansion_state. Store
// errors propagate to the caller.
func (q *Queue) GetQueueStats(ctx context.Context) (core.QueueStats, error) {
	return q.store.QueueStats(ctx)
}
