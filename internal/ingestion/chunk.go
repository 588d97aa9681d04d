package ingestion

import (
	"strings"
	"unicode/utf8"
)

const (
	defaultChunkSize    = 2000
	defaultChunkOverlap = 400
)

var sentenceBoundaries = []string{". ", "? ", "! ", ".\n", "?\n", "!\n"}

// chunkText splits content into overlapping chunks of chunkSize runes
// (400 default overlap), preferring to break on a sentence boundary
// found within [start+chunkSize/2, start+chunkSize+200]. Content
// shorter than chunkSize yields a single chunk.
func chunkText(content string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = defaultChunkOverlap
	}

	runes := []rune(content)
	if len(runes) <= chunkSize {
		trimmed := strings.TrimSpace(content)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = findSentenceBreak(runes, start, chunkSize)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// findSentenceBreak searches the window [start+chunkSize/2,
// start+chunkSize+200] for the latest sentence-ending boundary,
// falling back to the hard chunkSize cut if none is found.
func findSentenceBreak(runes []rune, start, chunkSize int) int {
	windowStart := start + chunkSize/2
	windowEnd := start + chunkSize + 200
	if windowEnd > len(runes) {
		windowEnd = len(runes)
	}
	if windowStart >= windowEnd {
		hard := start + chunkSize
		if hard > len(runes) {
			hard = len(runes)
		}
		return hard
	}

	window := string(runes[windowStart:windowEnd])
	best := -1
	for _, b := range sentenceBoundaries {
		if idx := strings.LastIndex(window, b); idx >= 0 {
			pos := windowStart + utf8.RuneCountInString(window[:idx]) + len(b)
			if pos > best {
				best = pos
			}
		}
	}
	if best == -1 {
		hard := start + chunkSize
		if hard > len(runes) {
			hard = len(runes)
		}
		return hard
	}
	return best
}
