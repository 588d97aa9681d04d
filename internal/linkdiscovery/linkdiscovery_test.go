package linkdiscovery

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgpack/internal/graphstore"
)

func openTestStore(t *testing.T) *graphstore.Store {
	t.Helper()
	store, err := graphstore.Open(filepath.Join(t.TempDir(), "pack.db"), 8)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestIsValidLinkTargetFiltersNamespacesAndLists(t *testing.T) {
	assert.False(t, isValidLinkTarget("Category:Foo"))
	assert.False(t, isValidLinkTarget("wikipedia:Manual of Style"))
	assert.False(t, isValidLinkTarget("List of programming languages"))
	assert.False(t, isValidLinkTarget("Go (disambiguation)"))
	assert.False(t, isValidLinkTarget("Q"))
	assert.True(t, isValidLinkTarget("Go (programming language)"))
}

func TestDiscoverStopsAtMaxDepth(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.InsertSeedArticle(ctx, "Seed"))

	n, err := Discover(ctx, store, "Seed", []string{"New Article"}, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDiscoverInsertsNewArticlesAndCreatesEdges(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.InsertSeedArticle(ctx, "Seed"))
	require.NoError(t, store.InsertSeedArticle(ctx, "Existing"))

	n, err := Discover(ctx, store, "Seed", []string{"Existing", "Brand New", "Category:Junk"}, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	exists, err := store.ArticleExists(ctx, "Brand New")
	require.NoError(t, err)
	assert.True(t, exists)

	targets, err := store.ExistingLinkTargets(ctx, "Seed")
	require.NoError(t, err)
	assert.True(t, targets["Existing"])
	assert.True(t, targets["Brand New"])
	assert.False(t, targets["Category:Junk"])
}

func TestDiscoverIsIdempotentOnRepeatedEdges(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.InsertSeedArticle(ctx, "Seed"))

	_, err := Discover(ctx, store, "Seed", []string{"Target"}, 0, 3)
	require.NoError(t, err)
	n, err := Discover(ctx, store, "Seed", []string{"Target"}, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
