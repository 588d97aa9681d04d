package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCypherFallbackNoopWhenDisabled(t *testing.T) {
	e := &Engine{Config: Config{EnableCypherFallback: false}}
	titles, err := e.CypherFallback(context.Background(), "who created Go")
	require.NoError(t, err)
	assert.Nil(t, titles)
}

func TestCypherFallbackRejectsUnsafeGeneratedQuery(t *testing.T) {
	e := &Engine{
		Config: Config{EnableCypherFallback: true},
		Gen:    &fakeGenerator{text: "MATCH (a) DELETE a"},
	}
	titles, err := e.CypherFallback(context.Background(), "delete everything")
	require.NoError(t, err)
	assert.Nil(t, titles)
}

func TestCypherFallbackCachesPlanByNormalizedQuestion(t *testing.T) {
	e := &Engine{
		Config: Config{EnableCypherFallback: true},
		Gen:    &fakeGenerator{text: "MATCH (a:Article) RETURN a LIMIT 10"},
	}
	_, err := e.CypherFallback(context.Background(), "  Who Created Go  ")
	require.NoError(t, err)

	cache, err := e.planCache()
	require.NoError(t, err)
	_, ok := cache.Get(planCacheKey("who created go"))
	assert.True(t, ok)
}

func TestPlanCacheKeyNormalizesCaseAndWhitespace(t *testing.T) {
	assert.Equal(t, "who created go", planCacheKey("  Who Created Go  "))
}
