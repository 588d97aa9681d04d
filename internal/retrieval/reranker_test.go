package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgpack/internal/core"
)

type fakeCentralityStore struct {
	out     map[string]int
	in      map[string]int
	avgDeg  float64
}

func (f fakeCentralityStore) OutgoingLinkCounts(ctx context.Context, titles []string) (map[string]int, error) {
	return f.out, nil
}

func (f fakeCentralityStore) IncomingLinkCounts(ctx context.Context, titles []string) (map[string]int, error) {
	return f.in, nil
}

func (f fakeCentralityStore) AverageOutDegree(ctx context.Context) (float64, error) {
	return f.avgDeg, nil
}

func TestCalculateCentralityNormalizesByBatchMax(t *testing.T) {
	store := fakeCentralityStore{
		out: map[string]int{"A": 4, "B": 1},
		in:  map[string]int{"A": 0, "B": 1},
	}
	centrality, err := CalculateCentrality(context.Background(), store, []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, centrality["A"])
	assert.Equal(t, 0.5, centrality["B"])
	assert.Equal(t, 0.0, centrality["C"])
}

func TestRerankKeepsOriginalOrderWhenTop1NotInFusedTop3(t *testing.T) {
	store := fakeCentralityStore{
		avgDeg: 5.0,
		out:    map[string]int{"A": 0, "B": 10, "C": 10, "D": 10, "E": 10, "F": 10, "G": 10, "H": 10, "I": 10, "J": 10},
		in:     map[string]int{"A": 0, "B": 10, "C": 10, "D": 10, "E": 10, "F": 10, "G": 10, "H": 10, "I": 10, "J": 10},
	}
	results := []core.SearchResult{
		{Title: "A", Similarity: 0.9},
		{Title: "B", Similarity: 0.5},
		{Title: "C", Similarity: 0.4},
		{Title: "D", Similarity: 0.3},
		{Title: "E", Similarity: 0.3},
		{Title: "F", Similarity: 0.3},
		{Title: "G", Similarity: 0.3},
		{Title: "H", Similarity: 0.3},
		{Title: "I", Similarity: 0.3},
		{Title: "J", Similarity: 0.3},
	}
	r := &Reranker{}
	out, err := r.Rerank(context.Background(), store, results, 0.6, 0.4, 60)
	require.NoError(t, err)
	assert.Equal(t, "A", out[0].Title)
}

func TestRerankForcesZeroCentralityWhenGraphSparse(t *testing.T) {
	store := fakeCentralityStore{
		avgDeg: 1.0,
		out:    map[string]int{"A": 5, "B": 0},
	}
	results := []core.SearchResult{
		{Title: "A", Similarity: 0.9},
		{Title: "B", Similarity: 0.8},
	}
	r := &Reranker{}
	out, err := r.Rerank(context.Background(), store, results, 0.6, 0.4, 60)
	require.NoError(t, err)
	assert.Equal(t, "A", out[0].Title)

	sparse, err := r.isSparse(context.Background(), store)
	require.NoError(t, err)
	assert.True(t, sparse)
}

func TestRerankRejectsWeightsThatDontSumToOne(t *testing.T) {
	store := fakeCentralityStore{avgDeg: 5.0}
	results := []core.SearchResult{{Title: "A", Similarity: 0.9}, {Title: "B", Similarity: 0.5}}
	r := &Reranker{}
	_, err := r.Rerank(context.Background(), store, results, 0.8, 0.5, 60)
	assert.Error(t, err)
}

func TestRerankRejectsNegativeWeight(t *testing.T) {
	store := fakeCentralityStore{avgDeg: 5.0}
	results := []core.SearchResult{{Title: "A", Similarity: 0.9}, {Title: "B", Similarity: 0.5}}
	r := &Reranker{}
	_, err := r.Rerank(context.Background(), store, results, 1.2, -0.2, 60)
	assert.Error(t, err)
}

func TestRerankAcceptsWeightsWithinTolerance(t *testing.T) {
	store := fakeCentralityStore{avgDeg: 5.0}
	results := []core.SearchResult{{Title: "A", Similarity: 0.9}, {Title: "B", Similarity: 0.5}}
	r := &Reranker{}
	_, err := r.Rerank(context.Background(), store, results, 0.70051, 0.2995, 60)
	assert.NoError(t, err)
}

func TestIsSparseCachesResultAcrossCalls(t *testing.T) {
	store := fakeCentralityStore{avgDeg: 0.5}
	r := &Reranker{}
	sparse1, err := r.isSparse(context.Background(), store)
	require.NoError(t, err)
	assert.True(t, sparse1)

	store2 := fakeCentralityStore{avgDeg: 100}
	sparse2, err := r.isSparse(context.Background(), store2)
	require.NoError(t, err)
	assert.True(t, sparse2, "cached sparse result should not re-query AverageOutDegree")
}
