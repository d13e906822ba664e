package context

import (
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"medicore-triage-be/pkg/embedding"
	"medicore-triage-be/pkg/rag/vectorindex"
)

const (
	// DefaultTopK is how many chunks a query retrieves before packing.
	DefaultTopK = 5

	// DefaultMaxChars caps the assembled context string.
	DefaultMaxChars = 3000

	taskTypeQuery = "retrieval_query"
)

// Assembler turns a free-text query into a bounded context string for the
// generation prompt: embed the query, retrieve the tenant's top chunks, then
// greedily pack them until the character budget is spent.
type Assembler struct {
	index             *vectorindex.Index
	embeddingProvider embedding.EmbeddingProvider
	topK              int
	maxChars          int
	logger            *log.Logger
}

func NewAssembler(
	index *vectorindex.Index,
	embeddingProvider embedding.EmbeddingProvider,
	topK int,
	maxChars int,
	logger *log.Logger,
) *Assembler {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Assembler{
		index:             index,
		embeddingProvider: embeddingProvider,
		topK:              topK,
		maxChars:          maxChars,
		logger:            logger,
	}
}

// Assemble returns the packed context for one tenant-scoped query. An empty
// string with a nil error means the tenant has no relevant knowledge; the
// caller decides whether to generate without grounding.
func (a *Assembler) Assemble(query, tenantID string) (string, error) {
	resp, err := a.embeddingProvider.Generate(query, taskTypeQuery)
	if err != nil {
		return "", fmt.Errorf("context: embed query: %w", err)
	}
	if resp == nil || len(resp.Embedding.Values) == 0 {
		return "", fmt.Errorf("context: embedding provider returned empty vector")
	}

	chunks, err := a.index.Query(resp.Embedding.Values, a.topK, tenantID)
	if err != nil {
		return "", fmt.Errorf("context: retrieve: %w", err)
	}
	if len(chunks) == 0 {
		a.logger.Printf("[CONTEXT] tenant=%s no chunks retrieved", tenantID)
		return "", nil
	}

	packed := a.pack(chunks)
	a.logger.Printf("[CONTEXT] tenant=%s packed %d/%d chunks into %d chars", tenantID, packed.used, len(chunks), len(packed.text))
	return packed.text, nil
}

type packResult struct {
	text string
	used int
}

// pack joins chunks with blank lines in retrieval order. A chunk that would
// overflow the budget is truncated to the remaining space; everything after
// it is dropped.
func (a *Assembler) pack(chunks []vectorindex.Chunk) packResult {
	var sb strings.Builder
	used := 0

	for _, c := range chunks {
		content := c.Content
		if content == "" {
			continue
		}

		separator := 0
		if sb.Len() > 0 {
			separator = 2
		}

		remaining := a.maxChars - sb.Len() - separator
		if remaining <= 0 {
			break
		}

		truncated := false
		if len(content) > remaining {
			// Cut on a rune boundary so the context stays valid UTF-8.
			cut := remaining
			for cut > 0 && !utf8.RuneStart(content[cut]) {
				cut--
			}
			content = content[:cut]
			truncated = true
		}
		if content == "" {
			break
		}
		if separator > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(content)
		used++

		if truncated {
			break
		}
	}

	return packResult{text: sb.String(), used: used}
}
