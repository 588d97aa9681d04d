package graphstore

import (
	"context"

	"kgpack/internal/core"
)

// DeleteArticleEntityEdges removes every HAS_ENTITY edge from an article,
// ahead of re-extraction. Entity nodes themselves are left alone — they
// are shared, merge-created nodes under the global entity-identity
// resolution (see SPEC_FULL.md §9).
func (s *Store) DeleteArticleEntityEdges(ctx context.Context, articleTitle string) error {
	return execCtx(ctx, s.db, `DELETE FROM article_entities WHERE article_title = ?`, articleTitle)
}

// DeleteArticleFacts removes every Fact node and HAS_FACT edge owned by
// an article (facts are article-scoped, unlike entities).
func (s *Store) DeleteArticleFacts(ctx context.Context, articleTitle string) error {
	if err := execCtx(ctx, s.db, `DELETE FROM article_facts WHERE article_title = ?`, articleTitle); err != nil {
		return err
	}
	return execCtx(ctx, s.db, `DELETE FROM facts WHERE article_title = ?`, articleTitle)
}

// MergeEntity creates an Entity node if absent (keyed by e.EntityID,
// which callers derive globally from the case-normalized name), or, if
// it already exists, replaces its description when the new one is
// non-empty (name and type are left unchanged), then links the article
// to it via HAS_ENTITY.
func (s *Store) MergeEntity(ctx context.Context, articleTitle string, e core.Entity) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO entities (entity_id, name, type, description) VALUES (?, ?, ?, ?)
		ON CONFLICT(entity_id) DO UPDATE SET
			description = CASE WHEN excluded.description != '' THEN excluded.description ELSE entities.description END`,
		e.EntityID, e.Name, e.Type, e.Description); err != nil {
		return err
	}
	return execCtx(ctx, s.db, `
		INSERT INTO article_entities (article_title, entity_id) VALUES (?, ?)
		ON CONFLICT(article_title, entity_id) DO NOTHING`, articleTitle, e.EntityID)
}

// GetEntity fetches one Entity node by its globally-scoped id.
func (s *Store) GetEntity(ctx context.Context, entityID string) (*core.Entity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT entity_id, name, type, description FROM entities WHERE entity_id = ?`, entityID)
	var e core.Entity
	if err := row.Scan(&e.EntityID, &e.Name, &e.Type, &e.Description); err != nil {
		return nil, err
	}
	return &e, nil
}

// EntitySourceArticles returns every article that has a HAS_ENTITY edge
// to the given entity, for FindEntity's source_articles field.
func (s *Store) EntitySourceArticles(ctx context.Context, entityID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT article_title FROM article_entities WHERE entity_id = ?`, entityID)
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

// InsertFact inserts one Fact node and its HAS_FACT edge.
func (s *Store) InsertFact(ctx context.Context, f core.Fact) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO facts (fact_id, article_title, content) VALUES (?, ?, ?)`,
		f.FactID, f.Article, f.Content); err != nil {
		return err
	}
	return execCtx(ctx, s.db, `
		INSERT INTO article_facts (article_title, fact_id) VALUES (?, ?)`, f.Article, f.FactID)
}

// GetFacts returns up to limit facts whose owning article is
// articleTitle. The title is matched against articles only; entity
// names are not resolved.
func (s *Store) GetFacts(ctx context.Context, articleTitle string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT content FROM facts WHERE article_title = ? LIMIT ?`, articleTitle, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FactsForArticles batch-fetches up to limit facts total across several
// articles, ordered by article title then insertion order — used by the
// hybrid retrieve path's "fetch top-5 facts" step.
func (s *Store) FactsForArticles(ctx context.Context, titles []string, limit int) ([]string, error) {
	if len(titles) == 0 {
		return nil, nil
	}
	query, args := inClause(`SELECT content FROM facts WHERE article_title IN (%s) ORDER BY article_title, rowid LIMIT ?`, titles)
	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// InsertEntityRelation inserts an ENTITY_RELATION edge between two
// entities. Callers must only invoke this when both endpoints already
// exist in the just-created entity map (the spec's ordering guarantee:
// entities before entity-relations).
func (s *Store) InsertEntityRelation(ctx context.Context, r core.EntityRelation) error {
	return execCtx(ctx, s.db, `
		INSERT INTO entity_relations (source_entity_id, relation, target_entity_id, context) VALUES (?, ?, ?, ?)
		ON CONFLICT(source_entity_id, relation, target_entity_id) DO NOTHING`,
		r.Source, r.Relation, r.Target, r.Context)
}

// RelationshipPath does a bounded BFS over ENTITY_RELATION edges from
// src to tgt, returning the relation path (one edge per hop) if found
// within maxHops, or nil if not (FindRelationshipPath, §6.5).
func (s *Store) RelationshipPath(ctx context.Context, src, tgt string, maxHops int) ([]core.EntityRelation, error) {
	type frame struct {
		entity string
		path   []core.EntityRelation
	}
	visited := map[string]bool{src: true}
	queue := []frame{{entity: src}}
	for hop := 0; hop < maxHops; hop++ {
		var next []frame
		for _, f := range queue {
			rows, err := s.db.QueryContext(ctx, `
				SELECT source_entity_id, relation, target_entity_id, context
				FROM entity_relations WHERE source_entity_id = ?`, f.entity)
			if err != nil {
				return nil, err
			}
			for rows.Next() {
				var r core.EntityRelation
				if err := rows.Scan(&r.Source, &r.Relation, &r.Target, &r.Context); err != nil {
					rows.Close()
					return nil, err
				}
				path := append(append([]core.EntityRelation{}, f.path...), r)
				if r.Target == tgt {
					rows.Close()
					return path, nil
				}
				if !visited[r.Target] {
					visited[r.Target] = true
					next = append(next, frame{entity: r.Target, path: path})
				}
			}
			rows.Close()
		}
		queue = next
	}
	return nil, nil
}
