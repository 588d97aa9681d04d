package retrieval

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"kgpack/internal/llm"
)

const maxFewShotExamples = 1000

// FewShotExample is one question/answer pair loaded from the examples
// file, with its question embedded once at load time.
type FewShotExample struct {
	Question  string   `json:"question"`
	Answer    string   `json:"answer"`
	Embedding []float64 `json:"-"`
}

// FewShotManager selects the examples most similar to an incoming
// query, caching embedded examples in an LRU bounded at
// maxFewShotExamples to guard against an oversized examples file.
type FewShotManager struct {
	embedder  llm.Embedder
	cache     *lru.Cache[string, FewShotExample]
	order     []string
}

// NewFewShotManager loads examples from a JSON array or JSONL file at
// path, embedding each question immediately. A path that does not
// exist yields an empty, harmless manager.
func NewFewShotManager(embedder llm.Embedder, path string) (*FewShotManager, error) {
	cache, err := lru.New[string, FewShotExample](maxFewShotExamples)
	if err != nil {
		return nil, err
	}
	m := &FewShotManager{embedder: embedder, cache: cache}
	if path == "" {
		return m, nil
	}

	examples, err := loadFewShotFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, err
	}

	for i, ex := range examples {
		if i >= maxFewShotExamples {
			break
		}
		emb, err := embedder.GenerateEmbedding(ex.Question)
		if err != nil {
			continue
		}
		ex.Embedding = emb
		key := fmt.Sprintf("%d:%s", i, ex.Question)
		m.cache.Add(key, ex)
		m.order = append(m.order, key)
	}
	return m, nil
}

func loadFewShotFile(path string) ([]FewShotExample, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var examples []FewShotExample
		if err := json.Unmarshal(data, &examples); err != nil {
			return nil, err
		}
		return examples, nil
	}

	var examples []FewShotExample
	scanner := bufio.NewScanner(strings.NewReader(trimmed))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ex FewShotExample
		if err := json.Unmarshal([]byte(line), &ex); err != nil {
			return nil, err
		}
		examples = append(examples, ex)
	}
	return examples, scanner.Err()
}

// FindSimilarExamples ranks cached examples by cosine similarity to
// query and returns the top k (2 by default), breaking ties by
// original load order.
func (m *FewShotManager) FindSimilarExamples(query string, k int) ([]FewShotExample, error) {
	if m == nil || len(m.order) == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = 2
	}

	queryEmbedding, err := m.embedder.GenerateEmbedding(query)
	if err != nil {
		return nil, err
	}

	type scored struct {
		example FewShotExample
		score   float64
		pos     int
	}
	scoredExamples := make([]scored, 0, len(m.order))
	for pos, key := range m.order {
		ex, ok := m.cache.Get(key)
		if !ok {
			continue
		}
		scoredExamples = append(scoredExamples, scored{
			example: ex,
			score:   llm.CosineSimilarity(queryEmbedding, ex.Embedding),
			pos:     pos,
		})
	}

	sort.SliceStable(scoredExamples, func(i, j int) bool {
		if scoredExamples[i].score != scoredExamples[j].score {
			return scoredExamples[i].score > scoredExamples[j].score
		}
		return scoredExamples[i].pos < scoredExamples[j].pos
	})

	if k > len(scoredExamples) {
		k = len(scoredExamples)
	}
	out := make([]FewShotExample, k)
	for i := 0; i < k; i++ {
		out[i] = scoredExamples[i].example
	}
	return out, nil
}
