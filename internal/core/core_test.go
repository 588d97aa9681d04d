package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestArticleZeroValueHasEmptyState(t *testing.T) {
	var a Article
	assert.Equal(t, ExpansionState(""), a.ExpansionState)
	assert.Nil(t, a.ClaimedAt)
	assert.Nil(t, a.ProcessedAt)
}

func TestSectionIDConvention(t *testing.T) {
	s := Section{
		SectionID: "Python (programming language)#0",
		Article:   "Python (programming language)",
		Index:     0,
		Title:     "History",
		Content:   "Python was conceived in the late 1980s.",
		Embedding: []float64{0.1, 0.2, 0.3},
		Level:     2,
		WordCount: 7,
	}
	assert.Equal(t, "Python (programming language)#0", s.SectionID)
	assert.Len(t, s.Embedding, 3)
}

func TestChunkIDConvention(t *testing.T) {
	c := Chunk{
		ChunkID:      "Python|s0|c1",
		Article:      "Python",
		SectionIndex: 0,
		ChunkIndex:   1,
		Content:      "chunk text",
	}
	assert.Equal(t, "Python|s0|c1", c.ChunkID)
}

func TestEntityTypesAreClosed(t *testing.T) {
	types := []EntityType{EntityPerson, EntityPlace, EntityOrganization, EntityConcept, EntityEvent}
	assert.Len(t, types, 5)
}

func TestQueueStatsTotalsIndependentFields(t *testing.T) {
	qs := QueueStats{Discovered: 1, Claimed: 2, Loaded: 3, Processed: 4, Failed: 5, Total: 15}
	assert.Equal(t, 15, qs.Total)
	assert.Equal(t, qs.Discovered+qs.Claimed+qs.Loaded+qs.Processed+qs.Failed, qs.Total)
}

func TestSearchResultSimilarityComplementsDistance(t *testing.T) {
	r := SearchResult{Title: "Go (programming language)", Similarity: 0.95, Distance: 0.05}
	assert.InDelta(t, 1.0, r.Similarity+r.Distance, 0.0001)
}

func TestExtractionResultEmptyIsZeroValue(t *testing.T) {
	var er ExtractionResult
	assert.Empty(t, er.Entities)
	assert.Empty(t, er.Relationships)
	assert.Empty(t, er.KeyFacts)
}

func TestArticleClaimedAtPointerSemantics(t *testing.T) {
	now := time.Now()
	a := Article{
		Title:          "Go (programming language)",
		ExpansionState: StateClaimed,
		ClaimedAt:      &now,
	}
	assert.NotNil(t, a.ClaimedAt)
	assert.Equal(t, StateClaimed, a.ExpansionState)

	a.ExpansionState = StateDiscovered
	a.ClaimedAt = nil
	assert.Nil(t, a.ClaimedAt)
}
