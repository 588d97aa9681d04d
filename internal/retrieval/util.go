package retrieval

import "encoding/json"

// parseStringArray parses a JSON array of strings, returning ok=false
// on any malformed input rather than propagating a parse error.
func parseStringArray(s string) ([]string, bool) {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, false
	}
	return out, true
}

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true, "were": true,
	"of": true, "in": true, "on": true, "at": true, "to": true, "for": true, "and": true,
	"or": true, "but": true, "with": true, "what": true, "who": true, "how": true, "does": true,
	"do": true, "did": true, "this": true, "that": true, "it": true, "as": true, "by": true,
	"be": true, "from": true, "about": true,
}
