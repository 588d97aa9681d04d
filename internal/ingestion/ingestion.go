// Package ingestion runs the per-article pipeline: fetch, parse,
// embed, optionally LLM-extract, and write everything into the graph
// store as a single sequence of idempotent, delete-then-insert
// statements.
package ingestion

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"kgpack/internal/core"
	"kgpack/internal/extractor"
	"kgpack/internal/graphstore"
	"kgpack/internal/llm"
	"kgpack/internal/logger"
	"kgpack/internal/sources"
)

// Source is the subset of sources.ContentSource the pipeline needs.
type Source interface {
	FetchArticle(ctx context.Context, titleOrURL string) (core.SourceArticle, error)
	ParseSections(content string) []core.ParsedSection
	GetLinks(content string) []string
}

// Pipeline ingests one article at a time into store.
type Pipeline struct {
	Source             Source
	Embedder           llm.Embedder
	Extractor          *extractor.Extractor
	Store              *graphstore.Store
	ChunkSize          int
	ChunkOverlap       int
	MaxExtractSections int
}

// Result is the outcome of ingesting one article.
type Result struct {
	Links     []string
	WordCount int
	Extracted bool
}

var reRedirect = regexp.MustCompile(`(?i)^#REDIRECT\s*\[\[([^\]|]+)`)

// Ingest runs the full pipeline for titleOrURL, writing into Store.
// category is stored on the Article node; at most 3 of the fetched
// article's own categories are linked as category edges. Ingestion
// itself does not decide whether to expand further.
func (p *Pipeline) Ingest(ctx context.Context, titleOrURL, category string) (Result, error) {
	article, err := p.Source.FetchArticle(ctx, titleOrURL)
	if err != nil {
		return Result{}, err
	}

	if target := redirectTarget(article.Content); target != "" {
		redirected, rerr := p.Source.FetchArticle(ctx, target)
		if rerr != nil {
			if rerr == sources.ErrArticleNotFound {
				return Result{}, nil
			}
			return Result{}, fmt.Errorf("ingestion: following redirect to %q: %w", target, rerr)
		}
		article = redirected
	}

	sections := p.Source.ParseSections(article.Content)

	wordCount := 0
	for _, s := range sections {
		wordCount += len(strings.Fields(s.Content))
	}

	if err := p.Store.UpsertIngestedArticle(ctx, article.Title, category, wordCount); err != nil {
		return Result{}, fmt.Errorf("ingestion: upserting article: %w", err)
	}

	if len(sections) == 0 {
		return Result{Links: article.Links, WordCount: 0}, nil
	}

	embeddings, err := p.embedSections(sections)
	if err != nil {
		logger.Debug("section embedding failed", "article", article.Title, "error", err)
		embeddings = make([][]float64, len(sections))
	}

	if err := p.writeSections(ctx, article.Title, sections, embeddings); err != nil {
		return Result{}, fmt.Errorf("ingestion: writing sections: %w", err)
	}

	p.writeChunks(ctx, article.Title, sections)

	if err := p.writeCategories(ctx, article.Title, article.Categories); err != nil {
		return Result{}, fmt.Errorf("ingestion: writing categories: %w", err)
	}

	extracted := false
	if p.Extractor != nil {
		result := p.Extractor.Extract(ctx, article.Title, sections, p.MaxExtractSections, article.Categories)
		if len(result.Entities) > 0 || len(result.Relationships) > 0 || len(result.KeyFacts) > 0 {
			if err := p.writeExtraction(ctx, article.Title, result); err != nil {
				logger.Debug("writing extraction failed", "article", article.Title, "error", err)
			} else {
				extracted = true
			}
		}
	}

	return Result{Links: article.Links, WordCount: wordCount, Extracted: extracted}, nil
}

func redirectTarget(content string) string {
	m := reRedirect.FindStringSubmatch(strings.TrimSpace(content))
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func (p *Pipeline) embedSections(sections []core.ParsedSection) ([][]float64, error) {
	texts := make([]string, len(sections))
	for i, s := range sections {
		texts[i] = s.Title + "\n" + s.Content
	}
	return p.Embedder.EmbedBatch(texts)
}

func (p *Pipeline) writeSections(ctx context.Context, title string, sections []core.ParsedSection, embeddings [][]float64) error {
	if err := p.Store.DeleteSections(ctx, title); err != nil {
		return err
	}
	for i, s := range sections {
		var emb []float64
		if i < len(embeddings) {
			emb = embeddings[i]
		}
		sec := core.Section{
			SectionID: fmt.Sprintf("%s#%d", title, i),
			Article:   title,
			Index:     i,
			Title:     s.Title,
			Content:   s.Content,
			Embedding: emb,
			Level:     s.Level,
			WordCount: len(strings.Fields(s.Content)),
		}
		if err := p.Store.InsertSection(ctx, sec); err != nil {
			return err
		}
	}
	return nil
}

// writeChunks splits each section into overlapping chunks and embeds
// them individually; failures here are logged at debug and do not
// propagate, matching the "optional" status of chunking in the spec.
func (p *Pipeline) writeChunks(ctx context.Context, title string, sections []core.ParsedSection) {
	if err := p.Store.DeleteChunks(ctx, title); err != nil {
		logger.Debug("delete chunks failed", "article", title, "error", err)
		return
	}
	chunkIdx := 0
	for secIdx, s := range sections {
		for _, text := range chunkText(s.Content, p.ChunkSize, p.ChunkOverlap) {
			var emb []float64
			if vecs, err := p.Embedder.EmbedBatch([]string{text}); err == nil && len(vecs) == 1 {
				emb = vecs[0]
			} else if err != nil {
				logger.Debug("chunk embedding failed", "article", title, "error", err)
			}
			c := core.Chunk{
				ChunkID:      fmt.Sprintf("%s|s%d|c%d", title, secIdx, chunkIdx),
				Article:      title,
				SectionIndex: secIdx,
				ChunkIndex:   chunkIdx,
				Content:      text,
				Embedding:    emb,
			}
			if err := p.Store.InsertChunk(ctx, c); err != nil {
				logger.Debug("insert chunk failed", "article", title, "error", err)
			}
			chunkIdx++
		}
	}
}

func (p *Pipeline) writeCategories(ctx context.Context, title string, categories []string) error {
	if err := p.Store.DeleteArticleCategoryEdges(ctx, title); err != nil {
		return err
	}
	n := len(categories)
	if n > 3 {
		n = 3
	}
	for _, c := range categories[:n] {
		if err := p.Store.MergeCategory(ctx, title, c); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) writeExtraction(ctx context.Context, title string, result core.ExtractionResult) error {
	if err := p.Store.DeleteArticleEntityEdges(ctx, title); err != nil {
		return err
	}
	if err := p.Store.DeleteArticleFacts(ctx, title); err != nil {
		return err
	}

	entityIDs := make(map[string]bool, len(result.Entities))
	for _, e := range result.Entities {
		entityID := strings.ToLower(strings.TrimSpace(e.Name))
		if entityID == "" {
			continue
		}
		description := ""
		if d, ok := e.Properties["description"]; ok {
			description = d
		}
		if err := p.Store.MergeEntity(ctx, title, core.Entity{
			EntityID:    entityID,
			Name:        e.Name,
			Type:        e.Type,
			Description: description,
		}); err != nil {
			return err
		}
		entityIDs[entityID] = true
	}

	for i, fact := range result.KeyFacts {
		f := core.Fact{
			FactID:  fmt.Sprintf("%s|fact%d", title, i),
			Article: title,
			Content: fact,
		}
		if err := p.Store.InsertFact(ctx, f); err != nil {
			return err
		}
	}

	for _, rel := range result.Relationships {
		srcID := strings.ToLower(strings.TrimSpace(rel.Source))
		tgtID := strings.ToLower(strings.TrimSpace(rel.Target))
		if !entityIDs[srcID] || !entityIDs[tgtID] {
			continue
		}
		if err := p.Store.InsertEntityRelation(ctx, core.EntityRelation{
			Source:   srcID,
			Relation: rel.Relation,
			Target:   tgtID,
			Context:  rel.Context,
		}); err != nil {
			return err
		}
	}
	return nil
}
