package retrieval

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"kgpack/internal/llm"
	"kgpack/internal/logger"
	"kgpack/internal/security"
)

// QueryPlan records the retrieval strategy chosen for one question,
// cacheable because re-deriving it costs an LLM call.
type QueryPlan struct {
	QueryType   string   `json:"query_type"`
	SeedTitles  []string `json:"seed_titles"`
	Cypher      string   `json:"cypher,omitempty"`
	UseGraphRAG bool     `json:"use_graph_rag"`
}

// planCache is created lazily on first use since it is only consulted
// when the Cypher fallback path is enabled.
func (e *Engine) planCache() (*lru.Cache[string, QueryPlan], error) {
	if e.cachedPlans != nil {
		return e.cachedPlans, nil
	}
	size := e.Config.PlanCacheSize
	if size <= 0 {
		size = 128
	}
	cache, err := lru.New[string, QueryPlan](size)
	if err != nil {
		return nil, err
	}
	e.cachedPlans = cache
	return cache, nil
}

func planCacheKey(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

// CypherFallback asks the LLM to produce a Cypher query for question,
// validates it through security.ValidateCypher before ever touching
// the store, and returns the resulting titles. Disabled by default;
// only reachable when EnableCypherFallback is set.
func (e *Engine) CypherFallback(ctx context.Context, question string) ([]string, error) {
	if !e.Config.EnableCypherFallback {
		return nil, nil
	}

	cache, err := e.planCache()
	if err != nil {
		return nil, err
	}
	key := planCacheKey(question)
	if plan, ok := cache.Get(key); ok && plan.Cypher != "" {
		return e.runValidatedCypher(ctx, plan.Cypher)
	}

	prompt := "Write a single read-only Cypher MATCH query over a graph of Article/Entity/Category nodes " +
		"to answer this question. Return only the query text, nothing else.\n" + question
	text, err := e.Gen.GenerateText(ctx, prompt, llm.TextGenerationOptions{Timeout: 10 * time.Second})
	if err != nil {
		logger.Debug("cypher fallback generation failed", "error", err)
		return nil, nil
	}
	cypher := strings.TrimSpace(llm.StripJSONFence(text))

	cache.Add(key, QueryPlan{QueryType: "cypher_fallback", Cypher: cypher})
	return e.runValidatedCypher(ctx, cypher)
}

// runValidatedCypher enforces the security boundary on LLM-generated
// Cypher before it could ever reach the store. The pack's graph lives
// in SQLite (see internal/graphstore), which has no Cypher execution
// engine, so a validated query does not run against the store; the
// fallback degrades to no titles rather than executing untranslated
// Cypher as SQL.
func (e *Engine) runValidatedCypher(ctx context.Context, cypher string) ([]string, error) {
	_ = ctx
	if err := security.ValidateCypher(cypher); err != nil {
		logger.Debug("rejected generated cypher", "error", err, "query", cypher)
		return nil, nil
	}
	logger.Debug("cypher fallback validated but not executed: no cypher engine backs the sqlite store", "query", cypher)
	return nil, nil
}
