package graphstore

import (
	"context"
	"database/sql"

	"kgpack/internal/core"
)

// DeleteSections removes every Section node (and its vec_sections
// embedding row) belonging to an article, ahead of re-ingestion. This is
// the "delete-then-insert" half of the idempotent re-ingest sequence.
func (s *Store) DeleteSections(ctx context.Context, articleTitle string) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM sections WHERE article_title = ?`, articleTitle)
	if err != nil {
		return err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	for _, id := range ids {
		if err := execCtx(ctx, s.db, `DELETE FROM vec_sections WHERE section_rowid = ?`, id); err != nil {
			return err
		}
	}
	return execCtx(ctx, s.db, `DELETE FROM sections WHERE article_title = ?`, articleTitle)
}

// InsertSection inserts one Section node with its HAS_SECTION ordering
// (section_index) and embedding, in a single combined write.
func (s *Store) InsertSection(ctx context.Context, sec core.Section) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sections (section_id, article_title, section_index, title, content, level, word_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sec.SectionID, sec.Article, sec.Index, sec.Title, sec.Content, sec.Level, sec.WordCount)
	if err != nil {
		return err
	}
	if len(sec.Embedding) == 0 {
		return nil
	}
	rowid, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return execCtx(ctx, s.db, `
		INSERT INTO vec_sections (section_rowid, embedding) VALUES (?, ?)`,
		rowid, serializeEmbedding(sec.Embedding))
}

// GetSections returns every Section belonging to an article, ordered by
// section_index (the HAS_SECTION composition order).
func (s *Store) GetSections(ctx context.Context, articleTitle string) ([]core.Section, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT section_id, article_title, section_index, title, content, level, word_count
		FROM sections WHERE article_title = ? ORDER BY section_index ASC`, articleTitle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []core.Section
	for rows.Next() {
		var sec core.Section
		if err := rows.Scan(&sec.SectionID, &sec.Article, &sec.Index, &sec.Title, &sec.Content, &sec.Level, &sec.WordCount); err != nil {
			return nil, err
		}
		out = append(out, sec)
	}
	return out, rows.Err()
}

// GetLeadSection returns section index 0 for an article, or nil if the
// article has no sections (used by the graph-aware RAG path's lead
// section fetch).
func (s *Store) GetLeadSection(ctx context.Context, articleTitle string) (*core.Section, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT section_id, article_title, section_index, title, content, level, word_count
		FROM sections WHERE article_title = ? AND section_index = 0`, articleTitle)
	var sec core.Section
	if err := row.Scan(&sec.SectionID, &sec.Article, &sec.Index, &sec.Title, &sec.Content, &sec.Level, &sec.WordCount); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &sec, nil
}

// DeleteChunks removes every Chunk node (and its vec_chunks embedding
// row) belonging to an article, ahead of re-ingestion.
func (s *Store) DeleteChunks(ctx context.Context, articleTitle string) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM chunks WHERE article_title = ?`, articleTitle)
	if err != nil {
		return err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, id)
	}
	rows.Close()
	for _, id := range ids {
		if err := execCtx(ctx, s.db, `DELETE FROM vec_chunks WHERE chunk_rowid = ?`, id); err != nil {
			return err
		}
	}
	return execCtx(ctx, s.db, `DELETE FROM chunks WHERE article_title = ?`, articleTitle)
}

// InsertChunk inserts one Chunk node with its HAS_CHUNK ordering and
// embedding.
func (s *Store) InsertChunk(ctx context.Context, c core.Chunk) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO chunks (chunk_id, article_title, section_index, chunk_index, content)
		VALUES (?, ?, ?, ?, ?)`, c.ChunkID, c.Article, c.SectionIndex, c.ChunkIndex, c.Content)
	if err != nil {
		return err
	}
	if len(c.Embedding) == 0 {
		return nil
	}
	rowid, err := res.LastInsertId()
	if err != nil {
		return err
	}
	return execCtx(ctx, s.db, `
		INSERT INTO vec_chunks (chunk_rowid, embedding) VALUES (?, ?)`,
		rowid, serializeEmbedding(c.Embedding))
}
