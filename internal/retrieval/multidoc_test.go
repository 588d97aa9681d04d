package retrieval

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandToRelatedArticlesRejectsOutOfRangeArgs(t *testing.T) {
	store := newTestStoreWithSections(t)
	ctx := context.Background()

	_, err := ExpandToRelatedArticles(ctx, store, []string{"Go (programming language)"}, 4, 10)
	assert.Error(t, err)

	_, err = ExpandToRelatedArticles(ctx, store, nil, 1, 10)
	assert.Error(t, err)

	_, err = ExpandToRelatedArticles(ctx, store, []string{"Go (programming language)"}, 1, 0)
	assert.Error(t, err)
}

func TestExpandToRelatedArticlesExcludesSeedsAndCaps(t *testing.T) {
	store := newTestStoreWithSections(t)
	ctx := context.Background()
	require.NoError(t, store.InsertSeedArticle(ctx, "Rust"))
	require.NoError(t, store.InsertLink(ctx, "Go (programming language)", "Python", "internal"))
	require.NoError(t, store.InsertLink(ctx, "Go (programming language)", "Rust", "internal"))

	related, err := ExpandToRelatedArticles(ctx, store, []string{"Go (programming language)"}, 1, 1)
	require.NoError(t, err)
	assert.Len(t, related, 1)
	assert.NotContains(t, related, "Go (programming language)")
}

func TestSynthesizeWithCitationsTruncatesAndNumbers(t *testing.T) {
	sources := []SynthesisSource{
		{Citation: 1, Title: "Go", Content: strings.Repeat("x", 600)},
		{Citation: 2, Title: "Python", Content: "short"},
	}
	prompt := SynthesizeWithCitations(sources, "what is Go")

	assert.Contains(t, prompt, "[1] Go:")
	assert.Contains(t, prompt, "[2] Python: short")
	assert.Contains(t, prompt, strings.Repeat("x", 500)+"...")
	assert.NotContains(t, prompt, strings.Repeat("x", 501))
}

func TestSynthesizeWithCitationsCapsAtSevenSources(t *testing.T) {
	sources := make([]SynthesisSource, 10)
	for i := range sources {
		sources[i] = SynthesisSource{Citation: i + 1, Title: "T", Content: "c"}
	}
	prompt := SynthesizeWithCitations(sources, "q")
	assert.Contains(t, prompt, "[7] T:")
	assert.NotContains(t, prompt, "[8] T:")
}

func TestBuildSynthesisSourcesCapsAtSeedPlusTwo(t *testing.T) {
	store := newTestStoreWithSections(t)
	ctx := context.Background()
	require.NoError(t, store.InsertSeedArticle(ctx, "Rust"))

	sources, err := BuildSynthesisSources(ctx, store, "Go (programming language)", []string{"Python", "Rust"})
	require.NoError(t, err)
	require.Len(t, sources, 3)
	assert.Equal(t, "Go (programming language)", sources[0].Title)
}
