package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarityIdenticalVectors(t *testing.T) {
	v := []float64{0.6, 0.8}
	assert.InDelta(t, 1.0, CosineSimilarity(v, v), 0.0001)
}

func TestCosineSimilarityOrthogonalVectors(t *testing.T) {
	assert.InDelta(t, 0.0, CosineSimilarity([]float64{1, 0}, []float64{0, 1}), 0.0001)
}

func TestCosineSimilarityMismatchedLengthIsZero(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity([]float64{1, 2}, []float64{1, 2, 3}))
}

func TestCosineSimilarityZeroVectorIsZero(t *testing.T) {
	assert.Equal(t, 0.0, CosineSimilarity([]float64{0, 0}, []float64{1, 1}))
}

func TestStripJSONFenceRemovesJSONFence(t *testing.T) {
	in := "```json\n{\"a\": 1}\n```"
	assert.Equal(t, `{"a": 1}`, StripJSONFence(in))
}

func TestStripJSONFenceRemovesBareFence(t *testing.T) {
	in := "```\n[1,2,3]\n```"
	assert.Equal(t, "[1,2,3]", StripJSONFence(in))
}

func TestStripJSONFencePassesThroughUnfenced(t *testing.T) {
	in := `{"a": 1}`
	assert.Equal(t, in, StripJSONFence(in))
}
