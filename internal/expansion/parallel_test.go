package expansion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgpack/internal/core"
)

func TestRunParallelProcessesAllClaimedArticles(t *testing.T) {
	ctx := context.Background()
	d, store := newTestDriver(t, nil)
	require.NoError(t, store.InsertSeedArticle(ctx, "Alpha"))
	require.NoError(t, store.InsertSeedArticle(ctx, "Beta"))
	require.NoError(t, store.InsertSeedArticle(ctx, "Gamma"))

	cfg := ParallelConfig{
		Config:        Config{MaxDepth: 0, BatchSize: 5, ClaimTimeout: time.Minute, TargetCount: 3, MaxIterations: 5},
		FetchPoolSize: 2,
		LLMPoolSize:   2,
	}
	require.NoError(t, d.RunParallel(ctx, cfg))

	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		a, err := store.GetArticle(ctx, title)
		require.NoError(t, err)
		assert.Equal(t, core.StateProcessed, a.ExpansionState)
	}
}
