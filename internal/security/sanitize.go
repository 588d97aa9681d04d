package security

import "regexp"

const redacted = "***REDACTED***"

// These patterns mirror the original processor's four-step redaction
// pipeline: labeled key=value/key: value tokens, quoted bearer-style
// tokens, Authorization headers, and JSON/dict-style "api_key": "..."
// pairs. Length bounds (20-128, 30-128) avoid false positives on short,
// legitimate identifiers.
var (
	labeledKeyPattern = regexp.MustCompile(`(?i)\b(api[_-]?key|token|secret[_-]?key|bearer|authorization)[=:\s]+['"]?([a-zA-Z0-9_-]{20,128})['"]?`)
	quotedTokenPattern = regexp.MustCompile(`(['"])(sk-[a-zA-Z0-9_-]{20,128}|[a-zA-Z0-9_-]{30,128})(['"])`)
	authHeaderPattern  = regexp.MustCompile(`(?i)(Authorization:\s*)(Bearer\s+)?[a-zA-Z0-9_-]+`)
	dictKeyPattern     = regexp.MustCompile(`(?i)(["']api[_-]?key["']\s*:\s*["'])([a-zA-Z0-9_-]{20,128})(["'])`)
)

// SanitizeError redacts plausible credentials from an error string before
// it is logged or surfaced to a caller. It never raises: unmatched input
// passes through unchanged.
func SanitizeError(msg string) string {
	msg = labeledKeyPattern.ReplaceAllString(msg, "$1="+redacted)
	msg = quotedTokenPattern.ReplaceAllString(msg, "$1"+redacted+"$3")
	msg = authHeaderPattern.ReplaceAllString(msg, "$1"+redacted)
	msg = dictKeyPattern.ReplaceAllString(msg, "$1"+redacted+"$3")
	return msg
}
