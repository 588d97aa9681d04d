package pack

import (
	"fmt"
	"strings"
)

// triggerKeywords maps a pack-name fragment to trigger keywords a skill
// router can match a user query against, per the "physics-expert ->
// quantum, relativity" heuristic.
var triggerKeywords = map[string][]string{
	"physics":   {"quantum", "relativity", "particle", "force", "energy"},
	"chemistry": {"reaction", "molecule", "compound", "element", "bond"},
	"biology":   {"cell", "organism", "species", "evolution", "gene"},
	"history":   {"war", "empire", "century", "revolution", "dynasty"},
	"geography": {"country", "continent", "river", "mountain", "capital"},
	"math":      {"theorem", "equation", "proof", "algebra", "geometry"},
	"medicine":  {"disease", "treatment", "symptom", "diagnosis", "drug"},
	"law":       {"statute", "court", "contract", "liability", "jurisdiction"},
	"finance":   {"market", "investment", "currency", "asset", "interest"},
	"tech":      {"software", "algorithm", "network", "protocol", "database"},
}

// GenerateSkillKeywords derives trigger keywords for packName by matching
// known domain fragments against its hyphen/underscore-separated parts,
// falling back to the parts themselves when nothing matches.
func GenerateSkillKeywords(packName string) []string {
	parts := strings.FieldsFunc(strings.ToLower(packName), func(r rune) bool {
		return r == '-' || r == '_'
	})

	var keywords []string
	seen := map[string]bool{}
	for _, part := range parts {
		if kws, ok := triggerKeywords[part]; ok {
			for _, kw := range kws {
				if !seen[kw] {
					seen[kw] = true
					keywords = append(keywords, kw)
				}
			}
		}
	}
	if len(keywords) == 0 {
		return parts
	}
	return keywords
}

// GenerateSkillMarkdown renders a skill.md descriptor with YAML
// frontmatter (name, version, description, triggers) and a short
// markdown body, derived from m.
func GenerateSkillMarkdown(m *Manifest) string {
	keywords := GenerateSkillKeywords(m.Name)

	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "name: %s\n", m.Name)
	fmt.Fprintf(&b, "version: %s\n", m.Version)
	fmt.Fprintf(&b, "description: %s\n", m.Description)
	fmt.Fprintf(&b, "triggers: [%s]\n", strings.Join(keywords, ", "))
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n", m.Name)
	b.WriteString(m.Description)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Covers %d articles, %d entities, %d relationships.\n",
		m.GraphStats.Articles, m.GraphStats.Entities, m.GraphStats.Relationships)
	return b.String()
}
