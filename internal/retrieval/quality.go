package retrieval

import "strings"

const contentQualityThreshold = 0.3

// ContentQualityScore blends a length score (content gets no credit
// below 20 words, then scales up to a cap of 0.8 as it approaches 200
// words) with a keyword-overlap score against question, ignoring stop
// words. An empty question skips the overlap component entirely.
func ContentQualityScore(content, question string) float64 {
	words := strings.Fields(content)
	wordCount := len(words)
	if wordCount < 20 {
		return 0.0
	}

	lengthScore := 0.2 + (float64(wordCount)/200.0)*0.6
	if lengthScore > 0.8 {
		lengthScore = 0.8
	}

	if strings.TrimSpace(question) == "" {
		return lengthScore
	}

	overlapScore := keywordOverlapScore(content, question)
	score := lengthScore*0.6 + overlapScore*0.4
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// PassesQualityThreshold reports whether content clears
// contentQualityThreshold relative to question.
func PassesQualityThreshold(content, question string) bool {
	return ContentQualityScore(content, question) >= contentQualityThreshold
}

func keywordOverlapScore(content, question string) float64 {
	qWords := significantWordSet(question)
	if len(qWords) == 0 {
		return 0
	}
	cWords := significantWordSet(content)

	hits := 0
	for w := range qWords {
		if cWords[w] {
			hits++
		}
	}
	return float64(hits) / float64(len(qWords))
}

func significantWordSet(text string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,?!:;\"'()")
		if w == "" || stopWords[w] {
			continue
		}
		out[w] = true
	}
	return out
}
