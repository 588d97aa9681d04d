package retrieval

import (
	"context"
	"fmt"
	"math"
	"sort"

	"kgpack/internal/core"
)

const sparseGraphThreshold = 2.0

// weightSumTolerance is the allowed drift of vectorWeight+graphWeight from 1.0.
const weightSumTolerance = 0.001

// Reranker combines vector similarity with graph centrality, forcing
// centrality to zero once the pack's graph is measured sparse (the
// density check is cached for the reranker's lifetime).
type Reranker struct {
	sparseCached bool
	sparse       bool
}

// graphstoreCentrality is the subset of *graphstore.Store the reranker
// needs; declared locally so reranker_test.go can substitute a fake
// without importing the concrete package's sqlite-backed Open.
type graphstoreCentrality interface {
	OutgoingLinkCounts(ctx context.Context, titles []string) (map[string]int, error)
	IncomingLinkCounts(ctx context.Context, titles []string) (map[string]int, error)
	AverageOutDegree(ctx context.Context) (float64, error)
}

// CalculateCentrality computes raw in+out degree centrality for each
// article, normalized by the batch maximum, filling articles absent
// from the graph with 0.
func CalculateCentrality(ctx context.Context, store graphstoreCentrality, articleTitles []string) (map[string]float64, error) {
	out, err := store.OutgoingLinkCounts(ctx, articleTitles)
	if err != nil {
		return nil, err
	}
	in, err := store.IncomingLinkCounts(ctx, articleTitles)
	if err != nil {
		return nil, err
	}

	raw := make(map[string]float64, len(articleTitles))
	maxDegree := 0.0
	for _, title := range articleTitles {
		degree := float64(out[title] + in[title])
		raw[title] = degree
		if degree > maxDegree {
			maxDegree = degree
		}
	}

	centrality := make(map[string]float64, len(articleTitles))
	for _, title := range articleTitles {
		if maxDegree == 0 {
			centrality[title] = 0
		} else {
			centrality[title] = raw[title] / maxDegree
		}
	}
	return centrality, nil
}

// isSparse reports whether the pack's graph has fewer than
// sparseGraphThreshold average outgoing links per article, caching
// the result across calls on the same Reranker.
func (r *Reranker) isSparse(ctx context.Context, store graphstoreCentrality) (bool, error) {
	if r.sparseCached {
		return r.sparse, nil
	}
	avg, err := store.AverageOutDegree(ctx)
	if err != nil {
		return false, err
	}
	r.sparse = avg < sparseGraphThreshold
	r.sparseCached = true
	return r.sparse, nil
}

// validateWeights rejects negative weights and weights that don't sum to
// 1 within weightSumTolerance.
func validateWeights(vectorWeight, graphWeight float64) error {
	if vectorWeight < 0 || graphWeight < 0 {
		return fmt.Errorf("retrieval: rerank weights must be non-negative, got vector=%v graph=%v", vectorWeight, graphWeight)
	}
	if math.Abs(vectorWeight+graphWeight-1.0) > weightSumTolerance {
		return fmt.Errorf("retrieval: rerank weights must sum to 1 (±%v), got %v", weightSumTolerance, vectorWeight+graphWeight)
	}
	return nil
}

// Rerank blends original vector ranking (weight 1.0, expressed via
// vectorWeight/graphWeight, which must be non-negative and sum to 1
// within weightSumTolerance) with graph centrality reranking using
// Reciprocal Rank Fusion, k=60. If the original top-1 result is not
// within the fused top-3, the original ranking is kept unchanged (to
// avoid demoting a strong vector match).
func (r *Reranker) Rerank(ctx context.Context, store graphstoreCentrality, results []core.SearchResult, vectorWeight, graphWeight float64, k int) ([]core.SearchResult, error) {
	if len(results) == 0 {
		return results, nil
	}
	if err := validateWeights(vectorWeight, graphWeight); err != nil {
		return results, err
	}
	if k <= 0 {
		k = 60
	}

	sparse, err := r.isSparse(ctx, store)
	if err != nil {
		return results, err
	}

	titles := make([]string, len(results))
	for i, res := range results {
		titles[i] = res.Title
	}

	centrality := make(map[string]float64, len(titles))
	if !sparse {
		centrality, err = CalculateCentrality(ctx, store, titles)
		if err != nil {
			return results, err
		}
	}

	graphRanked := append([]core.SearchResult(nil), results...)
	sort.SliceStable(graphRanked, func(i, j int) bool {
		return centrality[graphRanked[i].Title] > centrality[graphRanked[j].Title]
	})

	vectorRank := rankIndex(results)
	graphRank := rankIndex(graphRanked)

	type fused struct {
		title string
		score float64
	}
	fusedScores := make([]fused, 0, len(results))
	for _, title := range titles {
		score := vectorWeight*rrfScore(vectorRank[title], k) + graphWeight*rrfScore(graphRank[title], k)
		fusedScores = append(fusedScores, fused{title: title, score: score})
	}
	sort.SliceStable(fusedScores, func(i, j int) bool { return fusedScores[i].score > fusedScores[j].score })

	top3 := map[string]bool{}
	for i := 0; i < len(fusedScores) && i < 3; i++ {
		top3[fusedScores[i].title] = true
	}
	if !top3[results[0].Title] {
		return results, nil
	}

	fusedN := 5
	if fusedN > len(fusedScores) {
		fusedN = len(fusedScores)
	}
	byTitle := make(map[string]core.SearchResult, len(results))
	for _, res := range results {
		byTitle[res.Title] = res
	}
	out := make([]core.SearchResult, fusedN)
	for i := 0; i < fusedN; i++ {
		out[i] = byTitle[fusedScores[i].title]
	}
	return out, nil
}

func rankIndex(results []core.SearchResult) map[string]int {
	idx := make(map[string]int, len(results))
	for i, r := range results {
		idx[r.Title] = i
	}
	return idx
}

func rrfScore(rank, k int) float64 {
	return 1.0 / float64(k+rank+1)
}
