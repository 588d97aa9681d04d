package graphstore

import (
	"context"
	"math"
)

// SectionVectorHit is one row of a QUERY_VECTOR_INDEX('Section', ...)
// result: a section_id and its vector distance to the query embedding.
type SectionVectorHit struct {
	SectionID    string
	ArticleTitle string
	Distance     float64
}

// QuerySectionVectorIndex performs the spec's
// CALL QUERY_VECTOR_INDEX('Section', 'embedding_idx', $emb, k) via
// sqlite-vec's vec0 KNN match, returning the k nearest sections by
// vec0's L2 distance. Vectors are compared as stored; nothing here
// normalizes them.
func (s *Store) QuerySectionVectorIndex(ctx context.Context, embedding []float64, k int) ([]SectionVectorHit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.section_id, s.article_title, v.distance
		FROM vec_sections v
		JOIN sections s ON s.id = v.section_rowid
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance ASC`, serializeEmbedding(embedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SectionVectorHit
	for rows.Next() {
		var hit SectionVectorHit
		if err := rows.Scan(&hit.SectionID, &hit.ArticleTitle, &hit.Distance); err != nil {
			return nil, err
		}
		out = append(out, hit)
	}
	return out, rows.Err()
}

// SectionEmbeddingByArticle returns the embedding of an article's first
// section (index 0), used by semantic search's title fast-path so
// looking up an existing article title never needs a fresh embed call.
func (s *Store) SectionEmbeddingByArticle(ctx context.Context, articleTitle string) ([]float64, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT v.embedding
		FROM sections s JOIN vec_sections v ON v.section_rowid = s.id
		WHERE s.article_title = ? AND s.section_index = 0`, articleTitle)
	var blob []byte
	if err := row.Scan(&blob); err != nil {
		return nil, false, nil //nolint:nilerr // absent embedding is a normal fast-path miss
	}
	return deserializeEmbedding(blob), true, nil
}

func deserializeEmbedding(blob []byte) []float64 {
	n := len(blob) / 4
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		bits := uint32(blob[i*4]) | uint32(blob[i*4+1])<<8 | uint32(blob[i*4+2])<<16 | uint32(blob[i*4+3])<<24
		out[i] = float64(math.Float32frombits(bits))
	}
	return out
}
