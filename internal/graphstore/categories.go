package graphstore

import "context"

// DeleteArticleCategoryEdges removes every IN_CATEGORY edge from an
// article, ahead of re-ingestion. Category nodes themselves (and their
// article_count) are left alone — they are shared, merge-created nodes.
func (s *Store) DeleteArticleCategoryEdges(ctx context.Context, articleTitle string) error {
	return execCtx(ctx, s.db, `DELETE FROM article_categories WHERE article_title = ?`, articleTitle)
}

// MergeCategory creates a Category node if absent and atomically
// increments its article_count, then links the article to it via
// IN_CATEGORY. Re-linking an already-linked pair is a no-op on the edge
// (PRIMARY KEY) without double-incrementing the counter.
func (s *Store) MergeCategory(ctx context.Context, articleTitle, categoryName string) error {
	if categoryName == "" {
		return nil
	}
	var alreadyLinked int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM article_categories WHERE article_title = ? AND category_name = ?`,
		articleTitle, categoryName).Scan(&alreadyLinked); err != nil {
		return err
	}
	if alreadyLinked > 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name, article_count) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET article_count = article_count + 1`, categoryName); err != nil {
		return err
	}
	return execCtx(ctx, s.db, `
		INSERT INTO article_categories (article_title, category_name) VALUES (?, ?)`,
		articleTitle, categoryName)
}

// ExistingLinkTargets returns the set of targets an article already has
// a LINKS_TO edge to, batched in one query for link discovery.
func (s *Store) ExistingLinkTargets(ctx context.Context, sourceTitle string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT target_title FROM links_to WHERE source_title = ?`, sourceTitle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, err
		}
		out[target] = true
	}
	return out, rows.Err()
}

// InsertLink creates a LINKS_TO edge, unless one already exists between
// this ordered pair with this link_type (at most one edge per ordered
// pair, per the invariant in §3.3).
func (s *Store) InsertLink(ctx context.Context, sourceTitle, targetTitle, linkType string) error {
	if linkType == "" {
		linkType = "internal"
	}
	return execCtx(ctx, s.db, `
		INSERT INTO links_to (source_title, target_title, link_type) VALUES (?, ?, ?)
		ON CONFLICT(source_title, target_title, link_type) DO NOTHING`,
		sourceTitle, targetTitle, linkType)
}

// OutgoingLinks returns the LINKS_TO targets of an article, capped at limit.
func (s *Store) OutgoingLinks(ctx context.Context, sourceTitle string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT target_title FROM links_to WHERE source_title = ? LIMIT ?`, sourceTitle, limit)
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

// OutgoingLinkCounts returns the number of outgoing LINKS_TO edges per
// article for the given titles, used by centrality/sparse-graph detection.
func (s *Store) OutgoingLinkCounts(ctx context.Context, titles []string) (map[string]int, error) {
	out := make(map[string]int)
	if len(titles) == 0 {
		return out, nil
	}
	query, args := inClause(`SELECT source_title, COUNT(1) FROM links_to WHERE source_title IN (%s) GROUP BY source_title`, titles)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		out[t] = n
	}
	return out, rows.Err()
}

// IncomingLinkCounts returns the number of incoming LINKS_TO edges per
// article for the given titles, the numerator of degree centrality.
func (s *Store) IncomingLinkCounts(ctx context.Context, titles []string) (map[string]int, error) {
	out := make(map[string]int)
	if len(titles) == 0 {
		return out, nil
	}
	query, args := inClause(`SELECT target_title, COUNT(1) FROM links_to WHERE target_title IN (%s) GROUP BY target_title`, titles)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		out[t] = n
	}
	return out, rows.Err()
}

// AverageOutDegree computes the average outgoing LINKS_TO count per
// Article, used by the reranker's sparse-graph detection (§8).
func (s *Store) AverageOutDegree(ctx context.Context) (float64, error) {
	var articles, edges int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM articles`).Scan(&articles); err != nil {
		return 0, err
	}
	if articles == 0 {
		return 0, nil
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM links_to`).Scan(&edges); err != nil {
		return 0, err
	}
	return float64(edges) / float64(articles), nil
}

// PathNeighbors traverses LINKS_TO up to maxHops hops from a seed title,
// emulating the spec's variable-length Cypher
// MATCH (s)-[:LINKS_TO*1..maxHops]->(r) WHERE r.word_count>0 via
// iterative BFS with an explicit visited set (bounded, acyclic-safe).
func (s *Store) PathNeighbors(ctx context.Context, seedTitle string, maxHops, limit int) ([]string, error) {
	visited := map[string]bool{seedTitle: true}
	frontier := []string{seedTitle}
	var found []string
	for hop := 0; hop < maxHops && len(found) < limit; hop++ {
		var next []string
		for _, title := range frontier {
			targets, err := s.OutgoingLinks(ctx, title, 200)
			if err != nil {
				return nil, err
			}
			for _, t := range targets {
				if visited[t] {
					continue
				}
				visited[t] = true
				wordCount, err := s.articleWordCount(ctx, t)
				if err != nil {
					return nil, err
				}
				if wordCount > 0 {
					found = append(found, t)
					if len(found) >= limit {
						break
					}
				}
				next = append(next, t)
			}
			if len(found) >= limit {
				break
			}
		}
		frontier = next
	}
	return found, nil
}

func (s *Store) articleWordCount(ctx context.Context, title string) (int, error) {
	var wc int
	err := s.db.QueryRowContext(ctx, `SELECT word_count FROM articles WHERE title = ?`, title).Scan(&wc)
	if err != nil {
		return 0, nil //nolint:nilerr // missing article treated as word_count 0, not an error
	}
	return wc, nil
}
