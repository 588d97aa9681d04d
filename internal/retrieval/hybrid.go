package retrieval

import (
	"context"
	"sort"
	"strings"

	"kgpack/internal/core"
)

const maxTitleHits = 3

// DirectTitleLookup strips a leading interrogative prefix from
// question, then tries an exact case-insensitive title match, falling
// back to a CONTAINS match ordered by title length ascending and
// capped at 3 hits.
func (e *Engine) DirectTitleLookup(ctx context.Context, question string) ([]string, error) {
	candidate := stripQuestionPrefix(question)
	if candidate == "" {
		return nil, nil
	}

	exact, err := e.Store.FindExactTitle(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if exact != "" {
		return []string{exact}, nil
	}

	return e.Store.FindTitlesContaining(ctx, candidate, maxTitleHits)
}

// scoredArticle accumulates weighted component scores for one title
// during hybrid retrieval.
type scoredArticle struct {
	title string
	score float64
}

// HybridRetrieve combines vector, graph-neighbor, and keyword-overlap
// signals into one ranked list, returning the top maxResults titles
// plus up to 5 supporting facts drawn from them.
func (e *Engine) HybridRetrieve(ctx context.Context, question string, maxResults int) ([]core.SearchResult, []string, error) {
	vectorWeight, graphWeight, keywordWeight := e.weights()

	vectorHits, err := e.SemanticSearch(ctx, question, maxResults)
	if err != nil {
		return nil, nil, err
	}

	scores := map[string]float64{}
	for _, h := range vectorHits {
		scores[h.Title] += h.Similarity * vectorWeight
	}

	top := vectorHits
	if len(top) > 3 {
		top = top[:3]
	}
	for _, h := range top {
		neighbors, err := e.Store.OutgoingLinks(ctx, h.Title, 10)
		if err != nil {
			continue
		}
		for _, n := range neighbors {
			scores[n] += graphWeight * 0.5
		}
	}

	keywords := significantKeywords(question, 3)
	for _, kw := range keywords {
		matches, err := e.Store.FindTitlesContaining(ctx, kw, 10)
		if err != nil {
			continue
		}
		for _, m := range matches {
			scores[m] += keywordWeight * 0.7
		}
	}

	ranked := make([]scoredArticle, 0, len(scores))
	for title, score := range scores {
		ranked = append(ranked, scoredArticle{title: title, score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].title < ranked[j].title
	})
	if maxResults > 0 && len(ranked) > maxResults {
		ranked = ranked[:maxResults]
	}

	results := make([]core.SearchResult, len(ranked))
	titles := make([]string, len(ranked))
	for i, r := range ranked {
		results[i] = core.SearchResult{Title: r.title, Similarity: clamp(r.score, 0, 1)}
		titles[i] = r.title
	}

	facts, err := e.Store.FactsForArticles(ctx, titles, 5)
	if err != nil {
		facts = nil
	}
	return results, facts, nil
}

func (e *Engine) weights() (vector, graph, keyword float64) {
	vector, graph, keyword = e.Config.VectorWeight, e.Config.GraphWeight, e.Config.KeywordWeight
	if vector == 0 && graph == 0 && keyword == 0 {
		return 0.5, 0.3, 0.2
	}
	return
}

// significantKeywords returns up to n distinct question words longer
// than 3 characters, lowercased, preserving first-occurrence order.
func significantKeywords(question string, n int) []string {
	var out []string
	seen := map[string]bool{}
	for _, w := range strings.Fields(question) {
		w = strings.ToLower(strings.Trim(w, ".,?!:;\"'()"))
		if len(w) <= 3 || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) >= n {
			break
		}
	}
	return out
}
