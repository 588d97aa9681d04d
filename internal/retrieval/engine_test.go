package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryVectorPrimaryFastPathAvoidsPlannerOnTitleMatch(t *testing.T) {
	store := newTestStoreWithSections(t)
	gen := &fakeGenerator{text: "Go is a statically typed language. [1]"}
	e := &Engine{
		Store:    store,
		Embedder: fakeEmbedder{vec: []float64{1, 0, 0, 0, 0, 0, 0, 0}},
		Gen:      gen,
	}

	result, err := e.Query(context.Background(), "Go (programming language)", 5, false)
	require.NoError(t, err)
	assert.Equal(t, "vector_search", result.QueryType)
	assert.NotEmpty(t, result.Answer)
}

func TestQueryFallsBackToHybridWhenSimilarityBelowThreshold(t *testing.T) {
	store := newTestStoreWithSections(t)
	gen := &fakeGenerator{text: "synthesized answer"}
	e := &Engine{
		Store:    store,
		Embedder: fakeEmbedder{vec: []float64{0, 1, 0, 0, 0, 0, 0, 0}},
		Gen:      gen,
	}

	result, err := e.Query(context.Background(), "something entirely unrelated to either article", 5, false)
	require.NoError(t, err)
	assert.Equal(t, "hybrid", result.QueryType)
}

func TestQueryGraphRAGPathUsesTitleTraversal(t *testing.T) {
	store := newTestStoreWithSections(t)
	ctx := context.Background()
	require.NoError(t, store.InsertLink(ctx, "Go (programming language)", "Python", "internal"))

	gen := &fakeGenerator{text: `["Go (programming language)"]`}
	e := &Engine{Store: store, Gen: gen}

	result, err := e.Query(ctx, "Tell me about Go (programming language)", 5, true)
	require.NoError(t, err)
	assert.Equal(t, "graph_rag", result.QueryType)
}

func TestMultiQueryTimeoutFallsBackToSingleSemanticSearchOnce(t *testing.T) {
	store := newTestStoreWithSections(t)
	gen := &fakeGenerator{err: context.DeadlineExceeded}
	e := &Engine{
		Store:    store,
		Embedder: fakeEmbedder{vec: []float64{1, 0, 0, 0, 0, 0, 0, 0}},
		Gen:      gen,
		Config:   Config{EnableMultiQuery: true},
	}

	results, maxSim, err := e.VectorPrimaryRetrieve(context.Background(), "Go (programming language)", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Greater(t, maxSim, 0.9)
}
