package graphstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kgpack/internal/core"
)

// InsertSeedArticle creates a new Article node in the 'discovered' state
// at depth 0. Used by expansion seed init. A PK collision (article already
// present) is not an error; the caller should check existence first via
// ArticleStates for batch seeding.
func (s *Store) InsertSeedArticle(ctx context.Context, title string) error {
	return execCtx(ctx, s.db, `
		INSERT INTO articles (title, expansion_state, expansion_depth)
		VALUES (?, 'discovered', 0)
		ON CONFLICT(title) DO NOTHING`, title)
}

// InsertDiscoveredArticle creates a new Article node at the given depth,
// used by link discovery when a candidate link is not yet in the graph.
func (s *Store) InsertDiscoveredArticle(ctx context.Context, title string, depth int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO articles (title, expansion_state, expansion_depth)
		VALUES (?, 'discovered', ?)`, title, depth)
	return err
}

// GetArticle fetches one Article node by title.
func (s *Store) GetArticle(ctx context.Context, title string) (*core.Article, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT title, category, word_count, expansion_state, expansion_depth,
		       claimed_at, processed_at, retry_count
		FROM articles WHERE title = ?`, title)
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return a, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*core.Article, error) {
	var a core.Article
	var claimedAt, processedAt sql.NullTime
	if err := row.Scan(&a.Title, &a.Category, &a.WordCount, &a.ExpansionState,
		&a.ExpansionDepth, &claimedAt, &processedAt, &a.RetryCount); err != nil {
		return nil, err
	}
	if claimedAt.Valid {
		t := claimedAt.Time
		a.ClaimedAt = &t
	}
	if processedAt.Valid {
		t := processedAt.Time
		a.ProcessedAt = &t
	}
	return &a, nil
}

// ArticleStates batch-fetches the expansion_state of every title present
// in titles, returning only the ones found. Used by link discovery to
// avoid one query per candidate link.
func (s *Store) ArticleStates(ctx context.Context, titles []string) (map[string]core.ExpansionState, error) {
	out := make(map[string]core.ExpansionState)
	if len(titles) == 0 {
		return out, nil
	}
	query, args := inClause(`SELECT title, expansion_state FROM articles WHERE title IN (%s)`, titles)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var title string
		var state core.ExpansionState
		if err := rows.Scan(&title, &state); err != nil {
			return nil, err
		}
		out[title] = state
	}
	return out, rows.Err()
}

// UpsertIngestedArticle creates or updates the Article node after a
// successful fetch: updates category/word_count and, for a new article,
// sets expansion_state='loaded' with processed_at=now and retry_count=0.
// For an existing article (e.g. a seed stub being filled in) it only
// refreshes category/word_count and leaves expansion_state to the
// caller's subsequent AdvanceState call.
func (s *Store) UpsertIngestedArticle(ctx context.Context, title, category string, wordCount int) error {
	existing, err := s.GetArticle(ctx, title)
	if err != nil {
		return err
	}
	if existing == nil {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO articles (title, category, word_count, expansion_state, expansion_depth, processed_at, retry_count)
			VALUES (?, ?, ?, 'loaded', 0, ?, 0)`, title, category, wordCount, time.Now().UTC())
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE articles SET category = ?, word_count = ? WHERE title = ?`, category, wordCount, title)
	return err
}

// ArticleExists reports whether an Article node with this title exists.
func (s *Store) ArticleExists(ctx context.Context, title string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM articles WHERE title = ?`, title).Scan(&n)
	return n > 0, err
}

// LoadedCount returns the number of articles with word_count > 0,
// i.e. "successfully loaded" regardless of exact expansion_state.
func (s *Store) LoadedCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM articles WHERE word_count > 0`).Scan(&n)
	return n, err
}

// QueueStats aggregates the article count per expansion_state.
func (s *Store) QueueStats(ctx context.Context) (core.QueueStats, error) {
	var stats core.QueueStats
	rows, err := s.db.QueryContext(ctx, `SELECT expansion_state, COUNT(1) FROM articles GROUP BY expansion_state`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return stats, err
		}
		switch core.ExpansionState(state) {
		case core.StateDiscovered:
			stats.Discovered = count
		case core.StateClaimed:
			stats.Claimed = count
		case core.StateLoaded:
			stats.Loaded = count
		case core.StateProcessed:
			stats.Processed = count
		case core.StateFailed:
			stats.Failed = count
		}
		stats.Total += count
	}
	return stats, rows.Err()
}

// FindTitlesContaining returns up to limit article titles containing
// fragment (case-insensitive), ordered by title length ascending so
// the closest match surfaces first.
func (s *Store) FindTitlesContaining(ctx context.Context, fragment string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title FROM articles WHERE title LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY LENGTH(title) ASC LIMIT ?`, fragment, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// FindExactTitle returns the canonical title matching query
// case-insensitively, or "" if none exists.
func (s *Store) FindExactTitle(ctx context.Context, query string) (string, error) {
	var title string
	err := s.db.QueryRowContext(ctx, `SELECT title FROM articles WHERE title = ? COLLATE NOCASE LIMIT 1`, query).Scan(&title)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return title, err
}

// inClause builds a "col IN (?, ?, ...)" fragment for a dynamic list of
// string args, substituted into a %s placeholder in query.
func inClause(query string, values []string) (string, []any) {
	placeholders := ""
	args := make([]any, len(values))
	for i, v := range values {
		if i > 0 {
			placeholders += ","
		}
		placeholders += "?"
		args[i] = v
	}
	return fmt.Sprintf(query, placeholders), args
}
