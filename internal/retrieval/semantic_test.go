package retrieval

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgpack/internal/core"
	"kgpack/internal/graphstore"
	"kgpack/internal/llm"
)

type fakeEmbedder struct {
	vec []float64
	err error
}

func (f fakeEmbedder) GenerateEmbedding(text string) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.vec != nil {
		return f.vec, nil
	}
	return []float64{1, 0, 0, 0, 0, 0, 0, 0}, nil
}

func (f fakeEmbedder) EmbedBatch(texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		v, err := f.GenerateEmbedding(texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

type fakeGenerator struct {
	text string
	err  error
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string, opts llm.TextGenerationOptions) (string, error) {
	return f.text, f.err
}

func newTestStoreWithSections(t *testing.T) *graphstore.Store {
	t.Helper()
	store, err := graphstore.Open(filepath.Join(t.TempDir(), "pack.db"), 8)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.InsertSeedArticle(ctx, "Go (programming language)"))
	require.NoError(t, store.InsertSeedArticle(ctx, "Python"))
	require.NoError(t, store.InsertSection(ctx, core.Section{
		SectionID: "Go (programming language)#0", Article: "Go (programming language)",
		Title: "Intro", Content: "Go is a statically typed, compiled programming language.",
		Embedding: []float64{1, 0, 0, 0, 0, 0, 0, 0}, WordCount: 8,
	}))
	require.NoError(t, store.InsertSection(ctx, core.Section{
		SectionID: "Python#0", Article: "Python",
		Title: "Intro", Content: "Python is a dynamically typed scripting language.",
		Embedding: []float64{0, 0, 0, 0, 0, 0, 0, 1}, WordCount: 6,
	}))
	return store
}

func TestSemanticSearchOrdersByClosestDistance(t *testing.T) {
	store := newTestStoreWithSections(t)
	e := &Engine{Store: store, Embedder: fakeEmbedder{vec: []float64{1, 0, 0, 0, 0, 0, 0, 0}}}

	results, err := e.SemanticSearch(context.Background(), "statically typed language", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Go (programming language)", results[0].Title)
}

func TestSemanticSearchReusesArticleTitleEmbedding(t *testing.T) {
	store := newTestStoreWithSections(t)
	e := &Engine{Store: store, Embedder: fakeEmbedder{err: assert.AnError}}

	results, err := e.SemanticSearch(context.Background(), "Go (programming language)", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "Go (programming language)", results[0].Title)
}

func TestMultiQueryRetrieveFallsBackOnParaphraseFailure(t *testing.T) {
	store := newTestStoreWithSections(t)
	e := &Engine{
		Store:    store,
		Embedder: fakeEmbedder{vec: []float64{1, 0, 0, 0, 0, 0, 0, 0}},
		Gen:      &fakeGenerator{err: assert.AnError},
	}

	results, err := e.MultiQueryRetrieve(context.Background(), "what is Go", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestMultiQueryRetrieveMergesParaphraseResults(t *testing.T) {
	store := newTestStoreWithSections(t)
	e := &Engine{
		Store:    store,
		Embedder: fakeEmbedder{vec: []float64{1, 0, 0, 0, 0, 0, 0, 0}},
		Gen:      &fakeGenerator{text: `["What is the Go language?", "Describe Go programming"]`},
	}

	results, err := e.MultiQueryRetrieve(context.Background(), "Tell me about Go", 5)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}

func TestVectorPrimaryRetrieveReportsMaxSimilarity(t *testing.T) {
	store := newTestStoreWithSections(t)
	e := &Engine{Store: store, Embedder: fakeEmbedder{vec: []float64{1, 0, 0, 0, 0, 0, 0, 0}}}

	results, maxSim, err := e.VectorPrimaryRetrieve(context.Background(), "Go (programming language)", 5)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Greater(t, maxSim, 0.9)
}

func TestStripQuestionPrefixRemovesKnownPrefixes(t *testing.T) {
	assert.Equal(t, "Go", stripQuestionPrefix("what is Go?"))
	assert.Equal(t, "Rob Pike", stripQuestionPrefix("Who is Rob Pike"))
	assert.Equal(t, "the capital of France", stripQuestionPrefix("the capital of France?"))
}
