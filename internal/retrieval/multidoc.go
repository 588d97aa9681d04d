package retrieval

import (
	"context"
	"fmt"
	"strings"

	"kgpack/internal/graphstore"
)

// ExpandToRelatedArticles walks LINKS_TO outward from seeds up to
// maxHops hops, returning a deduplicated, seed-excluded article list
// capped at maxArticles.
func ExpandToRelatedArticles(ctx context.Context, store *graphstore.Store, seeds []string, maxHops, maxArticles int) ([]string, error) {
	if maxHops < 0 || maxHops > 3 {
		return nil, fmt.Errorf("maxHops must be between 0 and 3, got %d", maxHops)
	}
	if len(seeds) < 1 || len(seeds) > 100 {
		return nil, fmt.Errorf("seeds must contain between 1 and 100 titles, got %d", len(seeds))
	}
	if maxArticles < 1 || maxArticles > 100 {
		return nil, fmt.Errorf("maxArticles must be between 1 and 100, got %d", maxArticles)
	}

	seen := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		seen[s] = true
	}

	var related []string
	for _, seed := range seeds {
		neighbors, err := store.PathNeighbors(ctx, seed, maxHops, maxArticles)
		if err != nil {
			return nil, err
		}
		for _, n := range neighbors {
			if seen[n] {
				continue
			}
			seen[n] = true
			related = append(related, n)
			if len(related) >= maxArticles {
				return related, nil
			}
		}
	}
	return related, nil
}

const maxSynthesisSources = 7
const perArticleSynthesisChars = 500

// SynthesisSource is one article's lead content assigned a numbered
// citation for use in an LLM synthesis prompt.
type SynthesisSource struct {
	Citation int
	Title    string
	Content  string
}

// SynthesizeWithCitations builds a synthesis prompt fragment from the
// top-1 seed article plus up to 2 related neighbors, capped at 7 total
// sources, truncating each article's content to 500 characters and
// numbering it for bracketed citation.
func SynthesizeWithCitations(articles []SynthesisSource, query string) string {
	if len(articles) > maxSynthesisSources {
		articles = articles[:maxSynthesisSources]
	}

	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(query)
	b.WriteString("\n\nSources:\n")
	for i, a := range articles {
		content := a.Content
		if len(content) > perArticleSynthesisChars {
			content = content[:perArticleSynthesisChars] + "..."
		}
		fmt.Fprintf(&b, "[%d] %s: %s\n", i+1, a.Title, content)
	}
	b.WriteString("\nAnswer the question using only the numbered sources above, citing each claim like [1].")
	return b.String()
}

// BuildSynthesisSources assembles SynthesisSource entries for the seed
// article plus up to 2 related neighbors (capped at 7 total), fetching
// each one's lead section.
func BuildSynthesisSources(ctx context.Context, store *graphstore.Store, seed string, related []string) ([]SynthesisSource, error) {
	titles := []string{seed}
	for i := 0; i < len(related) && len(titles) < maxSynthesisSources; i++ {
		if i >= 2 {
			break
		}
		titles = append(titles, related[i])
	}

	sources := make([]SynthesisSource, 0, len(titles))
	for i, title := range titles {
		section, err := store.GetLeadSection(ctx, title)
		if err != nil {
			return nil, err
		}
		content := ""
		if section != nil {
			content = section.Content
		}
		sources = append(sources, SynthesisSource{Citation: i + 1, Title: title, Content: content})
	}
	return sources, nil
}
