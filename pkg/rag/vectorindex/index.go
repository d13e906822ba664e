package vectorindex

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
)

// DefaultFetchMultiplier is the initial over-fetch factor for tenant-scoped
// queries: the index ranks k*multiplier candidates by pure similarity before
// filtering to the requesting tenant.
const DefaultFetchMultiplier = 5

var (
	ErrEmptyEmbedding    = errors.New("vectorindex: chunk has empty embedding")
	ErrDimensionMismatch = errors.New("vectorindex: embedding dimension mismatch")
)

// Chunk is the unit of retrieval: a tenant-tagged text span with its
// embedding vector.
type Chunk struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id"`
	Source     string    `json:"source"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding"`
}

// Index is an in-memory cosine-similarity index over tenant-tagged chunks.
// A single RWMutex guards the whole structure: writes are exclusive, queries
// share read access (single-writer/multi-reader per the concurrency model).
type Index struct {
	mu              sync.RWMutex
	chunks          []Chunk
	dim             int
	fetchMultiplier int
	logger          *log.Logger
}

func NewIndex(fetchMultiplier int, logger *log.Logger) *Index {
	if fetchMultiplier <= 0 {
		fetchMultiplier = DefaultFetchMultiplier
	}
	return &Index{
		fetchMultiplier: fetchMultiplier,
		logger:          logger,
	}
}

// Add appends chunks to the index. All embeddings must be non-empty and
// share one dimension; a batch is rejected as a whole so the index never
// holds a partial write.
func (ix *Index) Add(chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	dim := ix.dim
	for _, c := range chunks {
		if len(c.Embedding) == 0 {
			return ErrEmptyEmbedding
		}
		if dim == 0 {
			dim = len(c.Embedding)
		}
		if len(c.Embedding) != dim {
			return fmt.Errorf("%w: got %d, index holds %d", ErrDimensionMismatch, len(c.Embedding), dim)
		}
	}

	ix.dim = dim
	ix.chunks = append(ix.chunks, chunks...)
	return nil
}

// Rebuild atomically replaces the entire contents, used at startup when the
// index is reconstructed from the durable chunk store.
func (ix *Index) Rebuild(chunks []Chunk) error {
	ix.mu.Lock()
	old := ix.chunks
	ix.chunks = nil
	ix.dim = 0
	ix.mu.Unlock()

	if err := ix.Add(chunks); err != nil {
		// Restore previous contents; a failed rebuild must not wipe the index.
		ix.mu.Lock()
		ix.chunks = old
		ix.dim = dimOf(old)
		ix.mu.Unlock()
		return err
	}
	return nil
}

// RemoveBySource drops every chunk of one tenant's source document.
func (ix *Index) RemoveBySource(tenantID, source string) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	kept := ix.chunks[:0]
	removed := 0
	for _, c := range ix.chunks {
		if c.TenantID == tenantID && c.Source == source {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	ix.chunks = kept
	if len(ix.chunks) == 0 {
		ix.dim = 0
	}
	return removed
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.chunks)
}

type scoredChunk struct {
	chunk Chunk
	score float64
}

// Query returns up to k chunks owned by tenantID, ranked by descending
// cosine similarity. It over-fetches k*multiplier candidates by pure
// similarity, filters by tenant, and doubles the multiplier until k matches
// are found or the whole index has been ranked. It may return fewer than k;
// it never pads with cross-tenant chunks.
func (ix *Index) Query(embedding []float32, k int, tenantID string) ([]Chunk, error) {
	if k <= 0 {
		return nil, nil
	}
	if len(embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.chunks) == 0 {
		return nil, nil
	}
	if len(embedding) != ix.dim {
		return nil, fmt.Errorf("%w: query %d, index %d", ErrDimensionMismatch, len(embedding), ix.dim)
	}

	ranked := make([]scoredChunk, 0, len(ix.chunks))
	for _, c := range ix.chunks {
		ranked = append(ranked, scoredChunk{chunk: c, score: cosineSimilarity(embedding, c.Embedding)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	for multiplier := ix.fetchMultiplier; ; multiplier *= 2 {
		fetch := k * multiplier
		if fetch > len(ranked) {
			fetch = len(ranked)
		}

		matched := make([]Chunk, 0, k)
		for _, sc := range ranked[:fetch] {
			if sc.chunk.TenantID != tenantID {
				continue
			}
			matched = append(matched, sc.chunk)
			if len(matched) == k {
				return matched, nil
			}
		}

		if fetch == len(ranked) {
			// Index exhausted: return what the tenant owns, possibly < k.
			if ix.logger != nil && len(matched) < k {
				ix.logger.Printf("[INDEX] tenant=%s under-filled query: %d/%d after full scan", tenantID, len(matched), k)
			}
			return matched, nil
		}
	}
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func dimOf(chunks []Chunk) int {
	if len(chunks) == 0 {
		return 0
	}
	return len(chunks[0].Embedding)
}
