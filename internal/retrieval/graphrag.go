package retrieval

import (
	"context"
	"strings"
	"time"
	"unicode"

	"kgpack/internal/llm"
	"kgpack/internal/logger"
)

const maxGraphRAGArticles = 15

// GraphAwareRetrieve is the opt-in path that reasons over article
// titles rather than section embeddings: it asks the LLM for 1-3 seed
// titles, falls back to a capitalized-word heuristic on failure, walks
// LINKS_TO outward up to maxHops hops from each seed, and returns a
// deduplicated, 15-article-capped title list with seeds first.
func (e *Engine) GraphAwareRetrieve(ctx context.Context, question string, maxHops, maxContextArticles int) ([]string, error) {
	seeds := e.extractSeedTitles(ctx, question)
	if len(seeds) == 0 {
		return nil, nil
	}

	seen := map[string]bool{}
	ordered := make([]string, 0, maxGraphRAGArticles)
	for _, s := range seeds {
		if seen[s] {
			continue
		}
		seen[s] = true
		ordered = append(ordered, s)
		if len(ordered) >= maxGraphRAGArticles {
			return ordered, nil
		}
	}

	for _, seed := range seeds {
		neighbors, err := e.Store.PathNeighbors(ctx, seed, maxHops, maxContextArticles)
		if err != nil {
			return nil, err
		}
		for _, n := range neighbors {
			if seen[n] {
				continue
			}
			seen[n] = true
			ordered = append(ordered, n)
			if len(ordered) >= maxGraphRAGArticles {
				return ordered, nil
			}
		}
	}
	return ordered, nil
}

func (e *Engine) extractSeedTitles(ctx context.Context, question string) []string {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	prompt := "List 1 to 3 article titles this question is about, as a JSON array of strings, nothing else:\n" + question
	text, err := e.Gen.GenerateText(ctx, prompt, llm.TextGenerationOptions{Timeout: 10 * time.Second})
	if err == nil {
		if titles, ok := parseStringArray(llm.StripJSONFence(text)); ok && len(titles) > 0 {
			return titles
		}
	}
	logger.Debug("seed title extraction failed, falling back to capitalized-word heuristic", "error", err)
	return capitalizedWordHeuristic(question)
}

// capitalizedWordHeuristic extracts runs of capitalized words from
// question, skipping stop words; a capitalized first word is kept
// unless it is a stop word.
func capitalizedWordHeuristic(question string) []string {
	words := strings.Fields(question)
	var candidates []string
	var run []string
	flush := func() {
		if len(run) > 0 {
			candidates = append(candidates, strings.Join(run, " "))
			run = nil
		}
	}
	for i, w := range words {
		trimmed := strings.Trim(w, ".,?!:;\"'()")
		if trimmed == "" {
			flush()
			continue
		}
		isCap := unicode.IsUpper(rune(trimmed[0]))
		if i == 0 {
			isCap = isCap && !stopWords[strings.ToLower(trimmed)]
		}
		if isCap && !stopWords[strings.ToLower(trimmed)] {
			run = append(run, trimmed)
		} else {
			flush()
		}
	}
	flush()
	return candidates
}

// BuildGraphRAGSources fetches the lead section of each title and
// renders a citation-numbered synthesis prompt fragment.
func (e *Engine) BuildGraphRAGSources(ctx context.Context, titles []string, question string) (string, error) {
	sources := make([]SynthesisSource, 0, len(titles))
	for i, t := range titles {
		section, err := e.Store.GetLeadSection(ctx, t)
		if err != nil {
			return "", err
		}
		content := ""
		if section != nil {
			content = section.Content
		}
		sources = append(sources, SynthesisSource{Citation: i + 1, Title: t, Content: content})
	}
	return SynthesizeWithCitations(sources, question), nil
}
