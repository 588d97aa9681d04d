// Package retrieval implements the vector-primary retrieval engine:
// semantic search, multi-query paraphrase fan-out, hybrid vector/graph/
// keyword scoring, reciprocal-rank-fusion reranking, multi-document
// expansion, few-shot example selection, and LLM answer synthesis.
package retrieval

import (
	"context"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"kgpack/internal/core"
	"kgpack/internal/graphstore"
	"kgpack/internal/llm"
	"kgpack/internal/logger"
)

// Engine composes the retrieval pipeline over one pack's graph store.
type Engine struct {
	Store    *graphstore.Store
	Embedder llm.Embedder
	Gen      llm.TextGenerator
	Config   Config
	FewShot  *FewShotManager

	cachedPlans *lru.Cache[string, QueryPlan]
}

// Config mirrors the relevant subset of the application config
// consumed by the retrieval engine.
type Config struct {
	SimilarityThreshold  float64
	ContentQualityMin    float64
	VectorWeight         float64
	GraphWeight          float64
	KeywordWeight        float64
	RerankVectorWeight   float64
	RerankGraphWeight    float64
	RRFK                 int
	PlanCacheSize        int
	EnableReranker       bool
	EnableMultiDoc       bool
	EnableFewShot        bool
	EnableMultiQuery     bool
	EnableCypherFallback bool
	FewShotExamplesPath  string
}

// SemanticSearch is the baseline vector retrieval step: fast-path
// reuse of an existing article's lead embedding when queryText is
// itself a title, else a fresh embedding, then a vector index lookup
// aggregated to one best-distance hit per article.
func (e *Engine) SemanticSearch(ctx context.Context, queryText string, topK int) ([]core.SearchResult, error) {
	embedding, err := e.resolveQueryEmbedding(ctx, queryText)
	if err != nil {
		return nil, err
	}

	hits, err := e.Store.QuerySectionVectorIndex(ctx, embedding, topK*3)
	if err != nil {
		return nil, err
	}

	bestByArticle := map[string]graphstore.SectionVectorHit{}
	for _, h := range hits {
		cur, ok := bestByArticle[h.ArticleTitle]
		if !ok || h.Distance < cur.Distance {
			bestByArticle[h.ArticleTitle] = h
		}
	}

	results := make([]core.SearchResult, 0, len(bestByArticle))
	for title, h := range bestByArticle {
		results = append(results, core.SearchResult{
			Title:      title,
			Similarity: clamp(1-h.Distance, 0, 1),
			Distance:   h.Distance,
		})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Title < results[j].Title
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (e *Engine) resolveQueryEmbedding(ctx context.Context, queryText string) ([]float64, error) {
	if emb, found, err := e.Store.SectionEmbeddingByArticle(ctx, queryText); err == nil && found {
		return emb, nil
	}
	return e.Embedder.GenerateEmbedding(queryText)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// MultiQueryRetrieve asks the LLM for two paraphrases of question,
// runs SemanticSearch across {question, para1, para2}, and merges by
// title keeping the best similarity per title. Any LLM failure or
// timeout silently falls back to a single SemanticSearch call.
func (e *Engine) MultiQueryRetrieve(ctx context.Context, question string, maxResults int) ([]core.SearchResult, error) {
	paraphrases, ok := e.paraphrase(ctx, question)
	if !ok {
		return e.SemanticSearch(ctx, question, maxResults)
	}

	queries := append([]string{question}, paraphrases...)
	best := map[string]core.SearchResult{}
	for _, q := range queries {
		results, err := e.SemanticSearch(ctx, q, maxResults)
		if err != nil {
			continue
		}
		for _, r := range results {
			if cur, ok := best[r.Title]; !ok || r.Similarity > cur.Similarity {
				best[r.Title] = r
			}
		}
	}

	out := make([]core.SearchResult, 0, len(best))
	for _, r := range best {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if maxResults > 0 && len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

func (e *Engine) paraphrase(ctx context.Context, question string) ([]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	prompt := "Give exactly two alternative phrasings of this question as a JSON array of two strings, nothing else:\n" + question
	text, err := e.Gen.GenerateText(ctx, prompt, llm.TextGenerationOptions{Timeout: 10 * time.Second})
	if err != nil {
		logger.Debug("multi-query paraphrase failed, falling back to single query", "error", err)
		return nil, false
	}

	cleaned := llm.StripJSONFence(text)
	paraphrases, ok := parseStringArray(cleaned)
	if !ok || len(paraphrases) == 0 {
		return nil, false
	}
	return paraphrases, true
}

// VectorPrimaryRetrieve dispatches to MultiQueryRetrieve or
// SemanticSearch depending on EnableMultiQuery, returning the results
// plus the top similarity score used to decide the vector-search fast
// path in the caller.
func (e *Engine) VectorPrimaryRetrieve(ctx context.Context, question string, maxResults int) ([]core.SearchResult, float64, error) {
	var (
		results []core.SearchResult
		err     error
	)
	if e.Config.EnableMultiQuery {
		results, err = e.MultiQueryRetrieve(ctx, question, maxResults)
	} else {
		results, err = e.SemanticSearch(ctx, question, maxResults)
	}
	if err != nil {
		return nil, 0, err
	}

	maxSim := 0.0
	if len(results) > 0 {
		maxSim = results[0].Similarity
	}
	return results, maxSim, nil
}

var questionPrefixes = []string{
	"what is", "what are", "explain", "describe", "define", "how does", "how do", "who is", "who was", "tell me about",
}

// stripQuestionPrefix removes a leading interrogative phrase so the
// remainder can be tried as a direct title match.
func stripQuestionPrefix(question string) string {
	lower := strings.ToLower(strings.TrimSpace(question))
	for _, p := range questionPrefixes {
		if strings.HasPrefix(lower, p) {
			rest := strings.TrimSpace(question[len(p):])
			return strings.TrimSuffix(rest, "?")
		}
	}
	return strings.TrimSuffix(strings.TrimSpace(question), "?")
}
