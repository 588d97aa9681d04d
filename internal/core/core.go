// Package core defines the shared domain types for the knowledge pack
// graph: articles, sections, chunks, categories, entities, facts, and the
// edges that connect them.
package core

import "time"

// ExpansionState is a value in the Article work-queue state machine.
type ExpansionState string

const (
	StateDiscovered ExpansionState = "discovered"
	StateClaimed    ExpansionState = "claimed"
	StateLoaded     ExpansionState = "loaded"
	StateProcessed  ExpansionState = "processed"
	StateFailed     ExpansionState = "failed"
)

// EntityType enumerates the kinds of entities the LLM extractor produces.
type EntityType string

const (
	EntityPerson       EntityType = "person"
	EntityPlace        EntityType = "place"
	EntityOrganization EntityType = "organization"
	EntityConcept      EntityType = "concept"
	EntityEvent        EntityType = "event"
)

// SourceType identifies which ContentSource produced an Article.
type SourceType string

const (
	SourceWikipedia SourceType = "wikipedia"
	SourceWeb       SourceType = "web"
)

// Article is a node representing a source document, keyed by title.
type Article struct {
	Title          string         `json:"title"`
	Category       string         `json:"category"`
	WordCount      int            `json:"word_count"`
	ExpansionState ExpansionState `json:"expansion_state"`
	ExpansionDepth int            `json:"expansion_depth"`
	ClaimedAt      *time.Time     `json:"claimed_at,omitempty"`
	ProcessedAt    *time.Time     `json:"processed_at,omitempty"`
	RetryCount     int            `json:"retry_count"`
}

// Section is a heading-delimited slice of an article's content.
type Section struct {
	SectionID string    `json:"section_id"` // "{article_title}#{index}"
	Article   string    `json:"article"`
	Index     int       `json:"index"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Embedding []float64 `json:"embedding"`
	Level     int       `json:"level"`
	WordCount int       `json:"word_count"`
}

// Chunk is a fixed-size, overlapping slice of a section's prose.
type Chunk struct {
	ChunkID      string    `json:"chunk_id"` // "{title}|s{section_index}|c{chunk_index}"
	Article      string    `json:"article"`
	SectionIndex int       `json:"section_index"`
	ChunkIndex   int       `json:"chunk_index"`
	Content      string    `json:"content"`
	Embedding    []float64 `json:"embedding"`
}

// Category groups articles; ArticleCount is a merge-incremented counter.
type Category struct {
	Name         string `json:"name"`
	ArticleCount int    `json:"article_count"`
}

// Entity is an LLM-extracted named thing, keyed globally (see
// SPEC_FULL.md §9 for the entity-identity resolution).
type Entity struct {
	EntityID    string     `json:"entity_id"`
	Name        string     `json:"name"`
	Type        EntityType `json:"type"`
	Description string     `json:"description"`
}

// Fact is an LLM-extracted declarative statement, scoped to one article.
type Fact struct {
	FactID  string `json:"fact_id"` // "{article_title}|fact{index}"
	Article string `json:"article"`
	Content string `json:"content"`
}

// EntityRelation is a directed typed relation between two entities.
type EntityRelation struct {
	Source   string `json:"source"`
	Relation string `json:"relation"`
	Target   string `json:"target"`
	Context  string `json:"context"`
}

// SourceArticle is the uniform result of a ContentSource fetch, before
// section parsing.
type SourceArticle struct {
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Links      []string   `json:"links"`
	Categories []string   `json:"categories"`
	SourceURL  string     `json:"source_url"`
	SourceType SourceType `json:"source_type"`
}

// ParsedSection is a section extracted from raw content, before embedding.
type ParsedSection struct {
	Title   string
	Content string
	Level   int
}

// ExtractionResult is the LLM extractor's output for one article.
type ExtractionResult struct {
	Entities      []ExtractedEntity
	Relationships []ExtractedRelationship
	KeyFacts      []string
}

// ExtractedEntity is a raw entity mention before graph merge.
type ExtractedEntity struct {
	Name       string
	Type       EntityType
	Properties map[string]string
}

// ExtractedRelationship is a raw relation before normalization.
type ExtractedRelationship struct {
	Source   string
	Relation string
	Target   string
	Context  string
}

// QueueStats summarizes the work queue's state distribution.
type QueueStats struct {
	Discovered int `json:"discovered"`
	Claimed    int `json:"claimed"`
	Loaded     int `json:"loaded"`
	Processed  int `json:"processed"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
}

// SearchResult is one hit from semantic search over Section/Chunk
// embeddings.
type SearchResult struct {
	Title      string  `json:"title"`
	Similarity float64 `json:"similarity"`
	Distance   float64 `json:"distance"`
}
