package retrieval

import (
	"context"

	"kgpack/internal/core"
	"kgpack/internal/llm"
)

const vectorSearchThreshold = 0.6

// QueryResult is what Engine.Query hands back: the synthesized answer
// plus the retrieved context and the query type it was served from.
type QueryResult struct {
	Answer    string
	QueryType string
	Sources   []core.SearchResult
	Facts     []string
}

// Query runs the full vector-primary retrieval pipeline: vector-primary
// search, direct title lookup augmentation, hybrid retrieval fallback,
// optional adaptive enhancements (reranking, multi-doc expansion,
// few-shot examples), and LLM synthesis. useGraphRAG switches to the
// opt-in graph-traversal path instead.
func (e *Engine) Query(ctx context.Context, question string, maxResults int, useGraphRAG bool) (QueryResult, error) {
	if useGraphRAG {
		return e.queryGraphRAG(ctx, question, maxResults)
	}

	results, maxSim, err := e.VectorPrimaryRetrieve(ctx, question, maxResults)
	if err != nil {
		return QueryResult{}, err
	}

	queryType := "hybrid"
	var facts []string
	if maxSim >= vectorSearchThreshold {
		queryType = "vector_search"
	} else {
		hybridResults, hybridFacts, err := e.HybridRetrieve(ctx, question, maxResults)
		if err == nil {
			results = hybridResults
			facts = hybridFacts
		}
	}

	titleHits, err := e.DirectTitleLookup(ctx, question)
	if err == nil && len(titleHits) > 0 {
		results = prependTitles(results, titleHits)
	}

	if e.Config.EnableReranker && len(results) > 1 {
		reranker := &Reranker{}
		vw, gw := e.Config.RerankVectorWeight, e.Config.RerankGraphWeight
		if vw == 0 && gw == 0 {
			vw, gw = 0.6, 0.4
		}
		if reranked, err := reranker.Rerank(ctx, e.Store, results, vw, gw, e.Config.RRFK); err == nil {
			results = reranked
		}
	}

	var fewShotExamples []FewShotExample
	if e.Config.EnableFewShot && e.FewShot != nil {
		if examples, err := e.FewShot.FindSimilarExamples(question, 2); err == nil {
			fewShotExamples = examples
		}
	}

	var sources []SynthesisSource
	if e.Config.EnableMultiDoc && len(results) > 0 {
		related, err := ExpandToRelatedArticles(ctx, e.Store, []string{results[0].Title}, 1, 2)
		if err == nil {
			sources, err = BuildSynthesisSources(ctx, e.Store, results[0].Title, related)
			if err != nil {
				sources = nil
			}
		}
	}
	if sources == nil {
		sources = resultsToSources(results)
	}

	answer, err := e.synthesize(ctx, question, sources, fewShotExamples)
	if err != nil {
		return QueryResult{}, err
	}

	return QueryResult{Answer: answer, QueryType: queryType, Sources: results, Facts: facts}, nil
}

func (e *Engine) queryGraphRAG(ctx context.Context, question string, maxResults int) (QueryResult, error) {
	titles, err := e.GraphAwareRetrieve(ctx, question, 2, maxResults)
	if err != nil {
		return QueryResult{}, err
	}

	prompt, err := e.BuildGraphRAGSources(ctx, titles, question)
	if err != nil {
		return QueryResult{}, err
	}

	answer, err := e.Gen.GenerateText(ctx, prompt, llm.TextGenerationOptions{})
	if err != nil {
		return QueryResult{}, err
	}

	results := make([]core.SearchResult, len(titles))
	for i, t := range titles {
		results[i] = core.SearchResult{Title: t}
	}
	return QueryResult{Answer: answer, QueryType: "graph_rag", Sources: results}, nil
}

func (e *Engine) synthesize(ctx context.Context, question string, sources []SynthesisSource, examples []FewShotExample) (string, error) {
	prompt := SynthesizeWithCitations(sources, question)
	if len(examples) > 0 {
		prompt = buildFewShotPrefix(examples) + prompt
	}
	return e.Gen.GenerateText(ctx, prompt, llm.TextGenerationOptions{})
}

func buildFewShotPrefix(examples []FewShotExample) string {
	prefix := "Examples of well-answered questions:\n"
	for _, ex := range examples {
		prefix += "Q: " + ex.Question + "\nA: " + ex.Answer + "\n"
	}
	return prefix + "\n"
}

func resultsToSources(results []core.SearchResult) []SynthesisSource {
	sources := make([]SynthesisSource, len(results))
	for i, r := range results {
		sources[i] = SynthesisSource{Citation: i + 1, Title: r.Title}
	}
	return sources
}

func prependTitles(results []core.SearchResult, titles []string) []core.SearchResult {
	seen := map[string]bool{}
	for _, r := range results {
		seen[r.Title] = true
	}
	var prefix []core.SearchResult
	for _, t := range titles {
		if seen[t] {
			continue
		}
		seen[t] = true
		prefix = append(prefix, core.SearchResult{Title: t, Similarity: 1.0})
	}
	return append(prefix, results...)
}
