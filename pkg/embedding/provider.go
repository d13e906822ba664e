package embedding

import "fmt"

// Task types hint the provider at the asymmetric embedding mode. Providers
// that do not distinguish (Ollama, Jina) ignore them.
const (
	TaskTypeDocument = "retrieval_document"
	TaskTypeQuery    = "retrieval_query"
)

type EmbeddingResponseEmbedding struct {
	Values []float32 `json:"values"`
}

type EmbeddingResponse struct {
	Embedding EmbeddingResponseEmbedding `json:"embedding"`
}

// EmbeddingProvider generates one embedding vector per text. Implementations
// must never return a zero-length vector with a nil error.
type EmbeddingProvider interface {
	Generate(text string, taskType string) (*EmbeddingResponse, error)
}

// GenerateBatch embeds texts one by one, failing on the first provider error.
// Document ingestion uses it so a chunk batch is either fully embedded or
// rejected as a whole.
func GenerateBatch(provider EmbeddingProvider, texts []string, taskType string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		resp, err := provider.Generate(text, taskType)
		if err != nil {
			return nil, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		if resp == nil || len(resp.Embedding.Values) == 0 {
			return nil, fmt.Errorf("embed chunk %d: provider returned empty vector", i)
		}
		vectors = append(vectors, resp.Embedding.Values)
	}
	return vectors, nil
}
