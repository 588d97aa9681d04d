package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kgpack/internal/core"
	"kgpack/internal/llm"
)

type fakeGenerator struct {
	text string
	err  error
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string, opts llm.TextGenerationOptions) (string, error) {
	return f.text, f.err
}

func TestExtractParsesWellFormedJSON(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n" + `{
		"entities": [{"name": "Rob Pike", "type": "person", "properties": {}}],
		"relationships": [{"source": "Rob Pike", "relation": "Co-Authored", "target": "Go", "context": "created the language"}],
		"key_facts": ["Go was released in 2009."]
	}` + "\n```"}
	e := New(gen)

	result := e.Extract(context.Background(), "Go (programming language)", []core.ParsedSection{
		{Title: "History", Content: "Go was designed at Google."},
	}, 5, nil)

	require.Len(t, result.Entities, 1)
	assert.Equal(t, "Rob Pike", result.Entities[0].Name)
	assert.Equal(t, core.EntityPerson, result.Entities[0].Type)
	require.Len(t, result.Relationships, 1)
	assert.Equal(t, "authored", result.Relationships[0].Relation)
	assert.Equal(t, []string{"Go was released in 2009."}, result.KeyFacts)
}

func TestExtractReturnsEmptyResultOnAPIError(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("rate limited")}
	e := New(gen)
	result := e.Extract(context.Background(), "X", nil, 5, nil)
	assert.Equal(t, core.ExtractionResult{}, result)
}

func TestExtractReturnsEmptyResultOnMalformedJSON(t *testing.T) {
	gen := &fakeGenerator{text: "not json at all"}
	e := New(gen)
	result := e.Extract(context.Background(), "X", nil, 5, nil)
	assert.Equal(t, core.ExtractionResult{}, result)
}

func TestClassifyDomainPicksHighestScoringDomain(t *testing.T) {
	assert.Equal(t, "history", classifyDomain([]string{"Ancient wars", "Roman empire treaties"}))
	assert.Equal(t, "geography", classifyDomain([]string{"Mountain rivers of the region"}))
	assert.Equal(t, "", classifyDomain([]string{"Unrelated category"}))
}

func TestNormalizeRelationAppliesSynonymsAndFallsThrough(t *testing.T) {
	assert.Equal(t, "founded", normalizeRelation("Established"))
	assert.Equal(t, "caused", normalizeRelation("led_to"))
	assert.Equal(t, "authored", normalizeRelation("co-authored"))
	assert.Equal(t, "some_novel_relation", normalizeRelation("Some Novel Relation"))
}

func TestBuildPromptTruncatesToCharLimit(t *testing.T) {
	bigContent := ""
	for i := 0; i < 2000; i++ {
		bigContent += "word "
	}
	long := []core.ParsedSection{{Title: "Section", Content: bigContent}}
	prompt := buildPrompt("Title", long, 5, "")
	assert.Contains(t, prompt, truncationMarker)
}
