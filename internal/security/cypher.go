package security

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidateCypher is the mandatory security boundary in front of every
// Cypher string the system did not itself hand-write: LLM-generated
// queries from the Cypher-fallback retriever. Hand-written queries
// issued by ingestion, the work queue, and link discovery never pass
// through this validator.
func ValidateCypher(query string) error {
	stripped := stripLiteralsAndComments(query)
	trimmed := strings.TrimSpace(stripped)
	upper := strings.ToUpper(trimmed)

	if !strings.HasPrefix(upper, "MATCH ") && !strings.HasPrefix(upper, "CALL QUERY_VECTOR_INDEX") {
		return fmt.Errorf("cypher query must begin with MATCH or CALL QUERY_VECTOR_INDEX")
	}

	for _, kw := range blockedKeywords {
		if strings.Contains(upper, kw) {
			return fmt.Errorf("cypher query contains disallowed keyword %q", strings.TrimSpace(kw))
		}
	}

	if hasUnboundedPath(stripped) {
		return fmt.Errorf("cypher query contains an unbounded variable-length path; use [*1..N]")
	}

	return nil
}

var blockedKeywords = []string{
	"CREATE ", "DELETE ", "DETACH ", "DROP ", "SET ", "MERGE ", "REMOVE ",
	"LOAD ", "COPY ", "ALTER ", "INSTALL ", "EXPORT ", "IMPORT ",
}

var (
	bracketPattern = regexp.MustCompile(`\[[^\]]*\]`)
	boundedPathPattern = regexp.MustCompile(`\*\d+\.\.\d+`)
)

// hasUnboundedPath reports whether any relationship bracket contains a
// variable-length quantifier (`*`) without a fully bounded `*N..M`
// form: bare `[*]`, `[:REL*]`, and half-open `[*2..]` all count as
// unbounded.
func hasUnboundedPath(query string) bool {
	for _, bracket := range bracketPattern.FindAllString(query, -1) {
		if strings.Contains(bracket, "*") && !boundedPathPattern.MatchString(bracket) {
			return true
		}
	}
	return false
}

func stripLiteralsAndComments(query string) string {
	var sb strings.Builder
	runes := []rune(query)
	i := 0
	for i < len(runes) {
		switch {
		case runes[i] == '\'' || runes[i] == '"':
			quote := runes[i]
			i++
			for i < len(runes) && runes[i] != quote {
				i++
			}
			i++ // consume closing quote
		case i+1 < len(runes) && runes[i] == '/' && runes[i+1] == '/':
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case i+1 < len(runes) && runes[i] == '/' && runes[i+1] == '*':
			i += 2
			for i+1 < len(runes) && !(runes[i] == '*' && runes[i+1] == '/') {
				i++
			}
			i += 2
		default:
			sb.WriteRune(runes[i])
			i++
		}
	}
	return sb.String()
}
