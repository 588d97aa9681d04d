// Package linkdiscovery filters and records the outgoing links of a
// freshly ingested article, creating new discovered Article nodes for
// targets the graph store has not seen before.
package linkdiscovery

import (
	"context"
	"strings"

	"kgpack/internal/graphstore"
	"kgpack/internal/logger"
)

var namespacePrefixes = []string{
	"wikipedia:", "help:", "template:", "file:", "image:", "category:",
	"portal:", "talk:", "user:", "mediawiki:", "special:", "draft:",
	"module:", "book:", "timedtext:",
}

// isValidLinkTarget applies the case-insensitive namespace/prefix
// filters: too short, a non-main namespace, a list article, or a
// disambiguation page are all excluded from expansion.
func isValidLinkTarget(title string) bool {
	if len([]rune(title)) < 2 {
		return false
	}
	lower := strings.ToLower(title)
	for _, p := range namespacePrefixes {
		if strings.HasPrefix(lower, p) {
			return false
		}
	}
	if strings.HasPrefix(lower, "list of ") {
		return false
	}
	if strings.Contains(lower, "(disambiguation)") {
		return false
	}
	return true
}

// Discover runs the batched discovery algorithm for one source
// article's link list at currentDepth, returning the number of newly
// inserted Article nodes. It is a no-op once currentDepth reaches
// maxDepth.
func Discover(ctx context.Context, store *graphstore.Store, sourceTitle string, links []string, currentDepth, maxDepth int) (int, error) {
	if currentDepth >= maxDepth {
		return 0, nil
	}

	var valid []string
	seen := map[string]bool{}
	for _, l := range links {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] || !isValidLinkTarget(l) {
			continue
		}
		seen[l] = true
		valid = append(valid, l)
	}
	if len(valid) == 0 {
		return 0, nil
	}

	states, err := store.ArticleStates(ctx, valid)
	if err != nil {
		return 0, err
	}
	existingEdges, err := store.ExistingLinkTargets(ctx, sourceTitle)
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, target := range valid {
		if _, known := states[target]; !known {
			if err := store.InsertDiscoveredArticle(ctx, target, currentDepth+1); err != nil {
				// Two workers racing to discover the same new title
				// both attempt the insert; the loser hits a PK
				// violation, which is expected and not propagated.
				logger.Debug("link discovery insert race", "title", target, "error", err)
			} else {
				inserted++
			}
		}
		if existingEdges[target] {
			continue
		}
		if err := store.InsertLink(ctx, sourceTitle, target, "wikilink"); err != nil {
			logger.Debug("link discovery edge insert failed", "source", sourceTitle, "target", target, "error", err)
		}
	}

	return inserted, nil
}
