// Package llm wraps the Gemini generative API client used for entity
// extraction, query planning, multi-query paraphrase, and answer
// synthesis, plus the embedding model used throughout retrieval.
package llm

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"google.golang.org/genai"
)

const (
	// DefaultModel is the default Gemini model for extraction/synthesis.
	DefaultModel = "gemini-flash-lite-latest"
	// DefaultEmbeddingModel is the default model for generating embeddings.
	DefaultEmbeddingModel = "gemini-embedding-001"
	// DefaultEmbeddingDimensions is the output dimension for embeddings
	// (Matryoshka-truncated to match the graph store's fixed-width vector
	// column).
	DefaultEmbeddingDimensions = int32(384)
)

// TextGenerator is the minimal surface extractor/retrieval packages need
// from an LLM client; satisfied by *Client, and by fakes in tests.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, opts TextGenerationOptions) (string, error)
}

// Embedder is the minimal surface for generating text embeddings;
// satisfied by *Client, and by fakes in tests.
type Embedder interface {
	GenerateEmbedding(text string) ([]float64, error)
	EmbedBatch(texts []string) ([][]float64, error)
}

// Client wraps the Gemini client for text generation and embeddings.
type Client struct {
	apiKey         string
	modelName      string
	embeddingModel string
	embeddingDims  int32
	gClient        *genai.Client
}

// TextGenerationOptions controls one generation call.
type TextGenerationOptions struct {
	MaxTokens   int32
	Temperature float32
	Model       string // overrides the client's default model when set
	Timeout     time.Duration
}

// NewClient creates a new LLM client. API key resolution order matches the
// project convention: GEMINI_API_KEY, then GOOGLE_GEMINI_API_KEY, then
// GOOGLE_AI_API_KEY, then viper's "llm.api_key".
func NewClient(modelName string) (*Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		if apiKey = os.Getenv("GOOGLE_GEMINI_API_KEY"); apiKey == "" {
			if apiKey = os.Getenv("GOOGLE_AI_API_KEY"); apiKey == "" {
				apiKey = viper.GetString("llm.api_key")
			}
		}
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required: set GEMINI_API_KEY or llm.api_key in config")
	}

	if modelName == "" {
		modelName = viper.GetString("llm.model")
		if modelName == "" {
			modelName = DefaultModel
		}
	}

	embeddingModel := viper.GetString("llm.embedding_model")
	if embeddingModel == "" {
		embeddingModel = DefaultEmbeddingModel
	}
	dims := int32(viper.GetInt("llm.embedding_dims"))
	if dims == 0 {
		dims = DefaultEmbeddingDimensions
	}

	ctx := context.Background()
	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		apiKey:         apiKey,
		modelName:      modelName,
		embeddingModel: embeddingModel,
		embeddingDims:  dims,
		gClient:        gClient,
	}, nil
}

// GenerateText generates text from a prompt, optionally against a
// non-default model (used for the fast/small multi-query paraphrase
// model distinct from the synthesis model).
func (c *Client) GenerateText(ctx context.Context, prompt string, opts TextGenerationOptions) (string, error) {
	model := opts.Model
	if model == "" {
		model = c.modelName
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	resp, err := c.gClient.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// GenerateEmbedding generates a vector embedding for text, truncated to
// the configured dimensionality via Matryoshka output. The values are
// returned as the API gives them; the truncated vector is not
// re-normalized to unit length.
func (c *Client) GenerateEmbedding(text string) ([]float64, error) {
	ctx := context.Background()

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: text}},
		Role:  "user",
	}}

	dims := c.embeddingDims
	cfg := &genai.EmbedContentConfig{OutputDimensionality: &dims}

	resp, err := c.gClient.Models.EmbedContent(ctx, c.embeddingModel, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
		return nil, fmt.Errorf("no embedding values returned from API")
	}

	values := resp.Embeddings[0].Values
	embedding := make([]float64, len(values))
	for i, v := range values {
		embedding[i] = float64(v)
	}
	return embedding, nil
}

// EmbedBatch generates one embedding per text in a single API call,
// used by ingestion to embed all of an article's sections (or chunks)
// at once rather than one request per section.
func (c *Client) EmbedBatch(texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	ctx := context.Background()

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: t}}, Role: "user"}
	}

	dims := c.embeddingDims
	cfg := &genai.EmbedContentConfig{OutputDimensionality: &dims}

	resp, err := c.gClient.Models.EmbedContent(ctx, c.embeddingModel, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to generate batch embeddings: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("no response from embedding API")
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings from API, got %d", len(texts), len(resp.Embeddings))
	}

	out := make([][]float64, len(texts))
	for i, e := range resp.Embeddings {
		values := e.Values
		embedding := make([]float64, len(values))
		for j, v := range values {
			embedding[j] = float64(v)
		}
		out[i] = embedding
	}
	return out, nil
}

// StripJSONFence removes a leading ```json / trailing ``` markdown fence
// if present, a recurring need across extraction, query planning, and
// multi-query paraphrase parsing.
func StripJSONFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// CosineSimilarity calculates the cosine similarity between two
// embeddings, returning 0 for mismatched lengths or zero vectors.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
