package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentQualityScoreZeroBelowWordCountFloor(t *testing.T) {
	assert.Equal(t, 0.0, ContentQualityScore("too short", "a question"))
}

func TestContentQualityScoreNoFilterWhenQuestionEmpty(t *testing.T) {
	content := strings.Repeat("word ", 50)
	score := ContentQualityScore(content, "")
	assert.Greater(t, score, 0.0)
}

func TestContentQualityScoreRewardsKeywordOverlap(t *testing.T) {
	content := strings.Repeat("word ", 50) + "golang concurrency channels goroutines"
	withOverlap := ContentQualityScore(content, "what are golang goroutines")
	withoutOverlap := ContentQualityScore(content, "what is the weather today")
	assert.Greater(t, withOverlap, withoutOverlap)
}

func TestPassesQualityThresholdRejectsLowScores(t *testing.T) {
	assert.False(t, PassesQualityThreshold("short", "question"))
}

func TestPassesQualityThresholdAcceptsLongRelevantContent(t *testing.T) {
	content := strings.Repeat("word ", 200) + "golang concurrency patterns"
	assert.True(t, PassesQualityThreshold(content, "explain golang concurrency"))
}
