// Package pack implements the knowledge pack lifecycle: manifest I/O and
// validation, tarball packaging/unpackaging, install/update, and the
// on-disk pack registry.
package pack

import (
	"encoding/json"
	"os"
)

// GraphStats summarizes the size of a pack's graph.
type GraphStats struct {
	Articles      int `json:"articles"`
	Entities      int `json:"entities"`
	Relationships int `json:"relationships"`
	SizeMB        int `json:"size_mb"`
}

// EvalScores summarizes a pack's evaluation run, if one has been recorded.
type EvalScores struct {
	Accuracy          float64 `json:"accuracy"`
	HallucinationRate float64 `json:"hallucination_rate"`
	CitationQuality   float64 `json:"citation_quality"`
}

// Manifest is the on-disk manifest.json schema for a pack.
type Manifest struct {
	Name        string      `json:"name"`
	Version     string      `json:"version"`
	Description string      `json:"description"`
	GraphStats  GraphStats  `json:"graph_stats"`
	EvalScores  *EvalScores `json:"eval_scores,omitempty"`
	SourceURLs  []string    `json:"source_urls,omitempty"`
	CreatedAt   string      `json:"created_at"`
	License     string      `json:"license"`
	Author      string      `json:"author,omitempty"`
	Topics      []string    `json:"topics,omitempty"`
}

// manifestAlias lets LoadManifest accept the legacy "created" field name
// as a back-compat alias for "created_at" without changing the type
// SaveManifest writes.
type manifestAlias struct {
	Manifest
	Created string `json:"created,omitempty"`
}

// LoadManifest reads and parses manifest.json at path, resolving the
// legacy "created" field into CreatedAt when "created_at" is absent.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var alias manifestAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return nil, err
	}

	m := alias.Manifest
	if m.CreatedAt == "" && alias.Created != "" {
		m.CreatedAt = alias.Created
	}
	return &m, nil
}

// SaveManifest writes m as indented JSON to path.
func SaveManifest(path string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
