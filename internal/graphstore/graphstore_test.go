package graphstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgpack/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pack.db")
	store, err := Open(path, 8)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInsertSeedArticleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	require.NoError(t, store.InsertSeedArticle(ctx, "Go (programming language)"))
	require.NoError(t, store.InsertSeedArticle(ctx, "Go (programming language)"))

	a, err := store.GetArticle(ctx, "Go (programming language)")
	require.NoError(t, err)
	assert.Equal(t, core.StateDiscovered, a.ExpansionState)
	assert.Equal(t, 0, a.ExpansionDepth)
}

func TestSectionsInsertThenDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.InsertSeedArticle(ctx, "Python"))

	sec := core.Section{
		SectionID: "Python#0",
		Article:   "Python",
		Index:     0,
		Title:     "History",
		Content:   "Python was created by Guido van Rossum.",
		Embedding: []float64{0.1, 0.2, 0.3, 0.4, 0.1, 0.2, 0.3, 0.4},
		WordCount: 6,
	}
	require.NoError(t, store.InsertSection(ctx, sec))

	sections, err := store.GetSections(ctx, "Python")
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, "Python#0", sections[0].SectionID)

	require.NoError(t, store.DeleteSections(ctx, "Python"))
	sections, err = store.GetSections(ctx, "Python")
	require.NoError(t, err)
	assert.Empty(t, sections)
}

func TestLinksToAtMostOneEdgePerOrderedPair(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.InsertSeedArticle(ctx, "A"))
	require.NoError(t, store.InsertSeedArticle(ctx, "B"))

	require.NoError(t, store.InsertLink(ctx, "A", "B", "internal"))
	require.NoError(t, store.InsertLink(ctx, "A", "B", "internal"))

	targets, err := store.ExistingLinkTargets(ctx, "A")
	require.NoError(t, err)
	assert.Len(t, targets, 1)
	assert.True(t, targets["B"])
}

func TestMergeCategoryIncrementsCountOnceAndLinksOnce(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.InsertSeedArticle(ctx, "Go"))
	require.NoError(t, store.InsertSeedArticle(ctx, "Rust"))

	require.NoError(t, store.MergeCategory(ctx, "Go", "Programming languages"))
	require.NoError(t, store.MergeCategory(ctx, "Go", "Programming languages"))
	require.NoError(t, store.MergeCategory(ctx, "Rust", "Programming languages"))

	var count int
	require.NoError(t, store.db.QueryRowContext(ctx, `SELECT article_count FROM categories WHERE name = ?`, "Programming languages").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestMergeEntityIsGlobalAcrossArticles(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.InsertSeedArticle(ctx, "Go (programming language)"))
	require.NoError(t, store.InsertSeedArticle(ctx, "Google"))

	e := core.Entity{EntityID: "rob pike", Name: "Rob Pike", Type: core.EntityPerson, Description: "co-creator of Go"}
	require.NoError(t, store.MergeEntity(ctx, "Go (programming language)", e))
	require.NoError(t, store.MergeEntity(ctx, "Google", core.Entity{EntityID: "rob pike", Name: "Rob Pike", Type: core.EntityPerson}))

	sources, err := store.EntitySourceArticles(ctx, "rob pike")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Go (programming language)", "Google"}, sources)

	got, err := store.GetEntity(ctx, "rob pike")
	require.NoError(t, err)
	assert.Equal(t, "co-creator of Go", got.Description)
}

func TestQuerySectionVectorIndexOrdersByDistance(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.InsertSeedArticle(ctx, "Near"))
	require.NoError(t, store.InsertSeedArticle(ctx, "Far"))

	require.NoError(t, store.InsertSection(ctx, core.Section{
		SectionID: "Near#0", Article: "Near", Index: 0,
		Embedding: []float64{1, 0, 0, 0, 0, 0, 0, 0},
	}))
	require.NoError(t, store.InsertSection(ctx, core.Section{
		SectionID: "Far#0", Article: "Far", Index: 0,
		Embedding: []float64{0, 0, 0, 0, 0, 0, 0, 1},
	}))

	hits, err := store.QuerySectionVectorIndex(ctx, []float64{1, 0, 0, 0, 0, 0, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "Near", hits[0].ArticleTitle)
}

func TestQueueStatsSumsAllStates(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.InsertSeedArticle(ctx, "A"))
	require.NoError(t, store.InsertDiscoveredArticle(ctx, "B", 1))

	stats, err := store.QueueStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Discovered)
	assert.Equal(t, 2, stats.Total)
}
