// Package extractor pulls entities, relationships, and key facts out
// of an article's sections via the LLM, normalizing the raw relation
// strings onto a fixed set of canonical relation names.
package extractor

import (
	"context"
	"encoding/json"
	"strings"

	"kgpack/internal/core"
	"kgpack/internal/llm"
	"kgpack/internal/logger"
)

const (
	defaultMaxSections = 5
	maxPromptChars     = 8000
	truncationMarker   = "...[truncated]"
)

// Extractor drives the LLM entity/relationship/fact extraction for one
// article's sections.
type Extractor struct {
	gen llm.TextGenerator
}

// New creates an Extractor over gen.
func New(gen llm.TextGenerator) *Extractor {
	return &Extractor{gen: gen}
}

type rawExtraction struct {
	Entities []struct {
		Name       string            `json:"name"`
		Type       string            `json:"type"`
		Properties map[string]string `json:"properties"`
	} `json:"entities"`
	Relationships []struct {
		Source   string `json:"source"`
		Relation string `json:"relation"`
		Target   string `json:"target"`
		Context  string `json:"context"`
	} `json:"relationships"`
	KeyFacts []string `json:"key_facts"`
}

// Extract builds a prompt from articleTitle and sections (capped at
// maxSections, 5 when <= 0), optionally steered by a domain hint
// derived from categories, and parses the LLM's JSON response. Any
// failure — API error or malformed JSON — yields a zero-value
// ExtractionResult rather than an error, since extraction is best
// effort and must never fail ingestion.
func (e *Extractor) Extract(ctx context.Context, articleTitle string, sections []core.ParsedSection, maxSections int, categories []string) core.ExtractionResult {
	if maxSections <= 0 {
		maxSections = defaultMaxSections
	}

	prompt := buildPrompt(articleTitle, sections, maxSections, classifyDomain(categories))

	text, err := e.gen.GenerateText(ctx, prompt, llm.TextGenerationOptions{})
	if err != nil {
		logger.Debug("extraction LLM call failed", "article", articleTitle, "error", err)
		return core.ExtractionResult{}
	}

	cleaned := llm.StripJSONFence(text)
	var raw rawExtraction
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		logger.Debug("extraction JSON parse failed", "article", articleTitle, "error", err)
		return core.ExtractionResult{}
	}

	result := core.ExtractionResult{KeyFacts: raw.KeyFacts}
	for _, re := range raw.Entities {
		result.Entities = append(result.Entities, core.ExtractedEntity{
			Name:       re.Name,
			Type:       classifyEntityType(re.Type),
			Properties: re.Properties,
		})
	}
	for _, rr := range raw.Relationships {
		result.Relationships = append(result.Relationships, core.ExtractedRelationship{
			Source:   rr.Source,
			Relation: normalizeRelation(rr.Relation),
			Target:   rr.Target,
			Context:  rr.Context,
		})
	}
	return result
}

func buildPrompt(title string, sections []core.ParsedSection, maxSections int, domainHint string) string {
	var sb strings.Builder
	sb.WriteString("Title: " + title + "\n\n")

	n := maxSections
	if n > len(sections) {
		n = len(sections)
	}
	for _, s := range sections[:n] {
		if s.Title != "" {
			sb.WriteString(s.Title + "\n")
		}
		sb.WriteString(s.Content + "\n\n")
	}

	body := sb.String()
	if len(body) > maxPromptChars {
		body = body[:maxPromptChars-len(truncationMarker)] + truncationMarker
	}

	var prompt strings.Builder
	prompt.WriteString(body)
	if domainHint != "" {
		prompt.WriteString("\n\nFocus especially on " + domainHint + "-relevant entities and relationships.\n")
	}
	prompt.WriteString("\nRespond with a JSON object of the form " +
		`{"entities": [{"name": "", "type": "", "properties": {}}], ` +
		`"relationships": [{"source": "", "relation": "", "target": "", "context": ""}], ` +
		`"key_facts": [""]}` + ". Respond with JSON only.")
	return prompt.String()
}

func classifyEntityType(t string) core.EntityType {
	switch core.EntityType(strings.ToLower(strings.TrimSpace(t))) {
	case core.EntityPerson:
		return core.EntityPerson
	case core.EntityPlace:
		return core.EntityPlace
	case core.EntityOrganization:
		return core.EntityOrganization
	case core.EntityEvent:
		return core.EntityEvent
	default:
		return core.EntityConcept
	}
}

var domainKeywords = map[string][]string{
	"history":   {"war", "empire", "revolution", "dynasty", "century", "ancient", "medieval", "treaty"},
	"science":   {"theory", "particle", "chemical", "physics", "biology", "species", "equation", "experiment"},
	"biography": {"born", "died", "life", "career", "biography", "married", "childhood"},
	"geography": {"river", "mountain", "country", "region", "city", "continent", "border", "population"},
}

var domainOrder = []string{"history", "science", "biography", "geography"}

// classifyDomain keyword-scores the category strings against fixed
// sets and returns the highest-scoring domain, breaking ties by
// domainOrder's fixed iteration order. Score 0 across the board
// returns "" (no hint).
func classifyDomain(categories []string) string {
	joined := strings.ToLower(strings.Join(categories, " "))

	best := ""
	bestScore := 0
	for _, domain := range domainOrder {
		score := 0
		for _, kw := range domainKeywords[domain] {
			if strings.Contains(joined, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = domain
		}
	}
	return best
}

var relationSynonyms = map[string]string{
	"established":     "founded",
	"founded_by":      "founded",
	"co-founded":      "founded",
	"cofounded":       "founded",
	"co_founded":      "founded",
	"invented_by":     "invented",
	"discovered_by":   "discovered",
	"co-authored":     "authored",
	"coauthored":      "authored",
	"co_authored":     "authored",
	"written_by":      "authored",
	"wrote":           "authored",
	"authored_by":     "authored",
	"built":           "created",
	"designed":        "created",
	"designed_by":     "created",
	"built_by":        "created",
	"made_by":         "created",
	"developed_by":    "developed",
	"led_to":          "caused",
	"resulted_from":   "caused",
	"influenced_by":   "influenced",
	"inspired_by":     "inspired",
	"part_of_a":       "part_of",
	"member_of":       "part_of",
	"belongs_to":      "part_of",
	"uses_a":          "uses",
	"utilizes":        "uses",
	"requires_a":      "requires",
	"depends_on":      "requires",
	"resulted_in":     "resulted_in",
	"caused_by":       "caused",
	"fought_against":  "fought_in",
	"fought_with":     "fought_in",
	"participated":    "participated_in",
	"took_part_in":    "participated_in",
	"born_at":         "born_in",
	"born":            "born_in",
	"died_at":         "died_in",
	"died":            "died_in",
	"located_at":      "located_in",
	"based_in":        "located_in",
	"situated_in":     "located_in",
	"related":         "related_to",
	"associated_with": "related_to",
	"connected_to":    "related_to",
	"directed_by":     "directed",
	"led_by":          "led",
	"headed":          "led",
	"headed_by":       "led",
}

// normalizeRelation lowercases, converts spaces/hyphens to
// underscores, and maps through the synonym table. Unknown relations
// pass through after lowercase/underscore normalization.
func normalizeRelation(rel string) string {
	norm := strings.ToLower(strings.TrimSpace(rel))
	norm = strings.ReplaceAll(norm, " ", "_")
	norm = strings.ReplaceAll(norm, "-", "_")
	if canon, ok := relationSynonyms[norm]; ok {
		return canon
	}
	return norm
}
