package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanWikitextStripsTemplatesRefsAndLinks(t *testing.T) {
	raw := "Go is a language{{cite web|url=x}} used widely.<ref>some citation</ref> See [[Rob Pike|Pike]] and [[Google]]."
	clean := cleanWikitext(raw)
	assert.NotContains(t, clean, "{{")
	assert.NotContains(t, clean, "<ref")
	assert.Contains(t, clean, "Pike")
	assert.Contains(t, clean, "Google")
}

func TestCleanWikitextStripsNestedTemplatesToFixedPoint(t *testing.T) {
	raw := "text {{outer {{inner}} }} more"
	clean := cleanWikitext(raw)
	assert.NotContains(t, clean, "{{")
	assert.NotContains(t, clean, "}}")
}

func TestCleanWikitextStripsFileLinks(t *testing.T) {
	raw := "intro [[File:Example.png|thumb|a caption]] trailing text"
	clean := cleanWikitext(raw)
	assert.NotContains(t, clean, "File:")
}

func TestGetLinksExcludesNamespacedTargets(t *testing.T) {
	w := NewWikipediaSource("", "", 0, 0, 0)
	links := w.GetLinks("See [[Rob Pike]] and [[Category:People]] and [[File:x.png]] and [[Ken Thompson|Ken]].")
	assert.ElementsMatch(t, []string{"Rob Pike", "Ken Thompson"}, links)
}

func TestExtractCategoriesFindsAll(t *testing.T) {
	cats := extractCategories("intro [[Category:Programming languages]] more [[Category:Software]]")
	assert.ElementsMatch(t, []string{"Programming languages", "Software"}, cats)
}

func TestSplitWikiSectionsHonorsHeadingLevels(t *testing.T) {
	clean := "Intro paragraph.\n\n== History ==\nHistory content.\n\n=== Early years ===\nEarly content."
	sections := splitWikiSections(clean)
	assert.Len(t, sections, 3)
	assert.Equal(t, "", sections[0].Title)
	assert.Equal(t, "History", sections[1].Title)
	assert.Equal(t, 2, sections[1].Level)
	assert.Equal(t, "Early years", sections[2].Title)
	assert.Equal(t, 3, sections[2].Level)
}

func TestSplitWikiSectionsNoHeadingsReturnsOneSection(t *testing.T) {
	sections := splitWikiSections("Just one paragraph of text.")
	assert.Len(t, sections, 1)
}
