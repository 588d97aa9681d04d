package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkTextShortContentIsSingleChunk(t *testing.T) {
	chunks := chunkText("a short section of text", 2000, 400)
	assert.Equal(t, []string{"a short section of text"}, chunks)
}

func TestChunkTextEmptyContentYieldsNoChunks(t *testing.T) {
	assert.Empty(t, chunkText("   ", 2000, 400))
}

func TestChunkTextPrefersSentenceBoundary(t *testing.T) {
	sentence := "This is one sentence that repeats over and over. "
	content := strings.Repeat(sentence, 80)
	chunks := chunkText(content, 2000, 400)
	if assert.Greater(t, len(chunks), 1) {
		assert.True(t, strings.HasSuffix(chunks[0], "."))
	}
}

func TestChunkTextSplitsLongContentIntoMultipleChunks(t *testing.T) {
	content := strings.Repeat("word ", 1000)
	chunks := chunkText(content, 2000, 400)
	assert.Greater(t, len(chunks), 1)
}
