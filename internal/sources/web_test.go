package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSectionsDropsShortSections(t *testing.T) {
	w := NewWebSource("", 0, 0, 20, 0, nil)
	content := "## Short\ntiny\n\n## Long enough section\n" +
		"this section has plenty of characters to clear the minimum threshold easily"
	sections := w.ParseSections(content)
	require.Len(t, sections, 1)
	assert.Equal(t, "Long enough section", sections[0].Title)
}

func TestParseSectionsCapturesLeadingContentWithoutHeading(t *testing.T) {
	w := NewWebSource("", 0, 0, 10, 0, nil)
	content := "this is a leading paragraph with no heading above it at all"
	sections := w.ParseSections(content)
	require.Len(t, sections, 1)
	assert.Equal(t, "", sections[0].Title)
}

func TestGetLinksExtractsPlaceholders(t *testing.T) {
	w := NewWebSource("", 0, 0, 0, 0, nil)
	content := "See more here (link:https://example.com/a) and also (link:https://example.com/b)."
	links := w.GetLinks(content)
	assert.ElementsMatch(t, []string{"https://example.com/a", "https://example.com/b"}, links)
}

func TestWordCountIgnoresLinkPlaceholders(t *testing.T) {
	n := wordCount("one two three (link:https://example.com/some/long/path/that/would/inflate/count)")
	assert.Equal(t, 3, n)
}

func TestPageTitleFallsBackToURL(t *testing.T) {
	assert.Equal(t, "https://example.com/x", pageTitle("https://example.com/x", "no heading here"))
	assert.Equal(t, "My Title", pageTitle("https://example.com/x", "# My Title\n\nbody"))
}
