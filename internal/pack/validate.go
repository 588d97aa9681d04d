package pack

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(-[\w.]+)?(\+[\w.]+)?$`)

// ValidateManifest checks field-level invariants on a loaded manifest:
// non-empty name/description/license, semver version, non-negative graph
// stats, and eval scores (when present) within [0,1].
func ValidateManifest(m *Manifest) error {
	if m.Name == "" {
		return fmt.Errorf("manifest: name must not be empty")
	}
	if m.Description == "" {
		return fmt.Errorf("manifest: description must not be empty")
	}
	if m.License == "" {
		return fmt.Errorf("manifest: license must not be empty")
	}
	if !semverPattern.MatchString(m.Version) {
		return fmt.Errorf("manifest: version %q is not valid semver", m.Version)
	}

	if m.GraphStats.Articles < 0 || m.GraphStats.Entities < 0 ||
		m.GraphStats.Relationships < 0 || m.GraphStats.SizeMB < 0 {
		return fmt.Errorf("manifest: graph_stats fields must be non-negative")
	}

	if m.EvalScores != nil {
		for name, v := range map[string]float64{
			"accuracy":           m.EvalScores.Accuracy,
			"hallucination_rate": m.EvalScores.HallucinationRate,
			"citation_quality":   m.EvalScores.CitationQuality,
		} {
			if v < 0 || v > 1 {
				return fmt.Errorf("manifest: eval_scores.%s must be in [0,1], got %v", name, v)
			}
		}
	}

	if m.SourceURLs != nil && len(m.SourceURLs) == 0 {
		return fmt.Errorf("manifest: source_urls must be non-empty if present")
	}

	return nil
}

var requiredPackFiles = []string{"manifest.json", "skill.md", "kg_config.json"}

// ValidatePackStructure checks that dir contains every required pack
// file, that pack.db exists (file or directory), and that manifest.json
// and kg_config.json are valid JSON.
func ValidatePackStructure(dir string) error {
	for _, name := range requiredPackFiles {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("pack structure: missing required file %s: %w", name, err)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "pack.db")); err != nil {
		return fmt.Errorf("pack structure: missing pack.db: %w", err)
	}

	if err := validateJSONFile(filepath.Join(dir, "manifest.json")); err != nil {
		return fmt.Errorf("pack structure: invalid manifest.json: %w", err)
	}
	if err := validateJSONFile(filepath.Join(dir, "kg_config.json")); err != nil {
		return fmt.Errorf("pack structure: invalid kg_config.json: %w", err)
	}

	return nil
}

func validateJSONFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var v any
	return json.Unmarshal(data, &v)
}
