package context

import (
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"unicode/utf8"

	"medicore-triage-be/pkg/embedding"
	"medicore-triage-be/pkg/rag/vectorindex"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Generate(text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: f.vector},
	}, nil
}

func newTestAssembler(t *testing.T, chunks []vectorindex.Chunk, maxChars int) *Assembler {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	ix := vectorindex.NewIndex(vectorindex.DefaultFetchMultiplier, logger)
	if err := ix.Add(chunks); err != nil {
		t.Fatalf("Add: %v", err)
	}
	return NewAssembler(ix, &fakeEmbedder{vector: []float32{1, 0}}, DefaultTopK, maxChars, logger)
}

func tenantChunk(id, tenant, content string, x, y float32) vectorindex.Chunk {
	return vectorindex.Chunk{ID: id, TenantID: tenant, Content: content, Embedding: []float32{x, y}}
}

func TestAssembleJoinsChunksWithBlankLines(t *testing.T) {
	a := newTestAssembler(t, []vectorindex.Chunk{
		tenantChunk("c1", "tenant-a", "first chunk", 1, 0),
		tenantChunk("c2", "tenant-a", "second chunk", 0.9, 0.1),
	}, DefaultMaxChars)

	got, err := a.Assemble("query", "tenant-a")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	want := "first chunk\n\nsecond chunk"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestAssembleNeverExceedsBudget(t *testing.T) {
	long := strings.Repeat("x", 80)
	a := newTestAssembler(t, []vectorindex.Chunk{
		tenantChunk("c1", "tenant-a", long, 1, 0),
		tenantChunk("c2", "tenant-a", long, 0.9, 0.1),
		tenantChunk("c3", "tenant-a", long, 0.8, 0.2),
	}, 100)

	got, err := a.Assemble("query", "tenant-a")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(got) > 100 {
		t.Errorf("context length %d exceeds budget 100", len(got))
	}
	// First chunk fits whole; second is cut to the remaining space.
	if !strings.HasPrefix(got, long+"\n\n") {
		t.Errorf("first chunk not kept intact: %q", got)
	}
	if len(got) != 100 {
		t.Errorf("budget not filled: got %d chars", len(got))
	}
}

func TestAssembleTruncatesOnRuneBoundary(t *testing.T) {
	a := newTestAssembler(t, []vectorindex.Chunk{
		tenantChunk("c1", "tenant-a", strings.Repeat("é", 10), 1, 0),
	}, 5)

	got, err := a.Assemble("query", "tenant-a")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncated context is not valid UTF-8: %q", got)
	}
	// é is two bytes: a 5-byte budget holds two whole runes, never half a third.
	if got != "éé" {
		t.Errorf("got %q, want %q", got, "éé")
	}
}

func TestAssembleTruncationKeepsRetrievalOrderPrefix(t *testing.T) {
	chunks := []vectorindex.Chunk{
		tenantChunk("c1", "tenant-a", "alpha", 1, 0),
		tenantChunk("c2", "tenant-a", "beta", 0.9, 0.1),
		tenantChunk("c3", "tenant-a", "gamma", 0.8, 0.2),
	}

	wide := newTestAssembler(t, chunks, DefaultMaxChars)
	full, err := wide.Assemble("query", "tenant-a")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	narrow := newTestAssembler(t, chunks, 12)
	short, err := narrow.Assemble("query", "tenant-a")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	// The narrow budget yields a prefix of the wide result: packing drops
	// or truncates the tail, it never reorders.
	if !strings.HasPrefix(full, short) {
		t.Errorf("narrow result %q is not a prefix of %q", short, full)
	}
}

func TestAssembleEmptyForTenantWithoutKnowledge(t *testing.T) {
	a := newTestAssembler(t, []vectorindex.Chunk{
		tenantChunk("b1", "tenant-b", "foreign", 1, 0),
	}, DefaultMaxChars)

	got, err := a.Assemble("query", "tenant-a")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if got != "" {
		t.Errorf("got %q for tenant with no knowledge, want empty", got)
	}
}

func TestAssembleEmbedderFailure(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	ix := vectorindex.NewIndex(vectorindex.DefaultFetchMultiplier, logger)
	a := NewAssembler(ix, &fakeEmbedder{err: errors.New("provider down")}, DefaultTopK, DefaultMaxChars, logger)

	if _, err := a.Assemble("query", "tenant-a"); err == nil {
		t.Fatal("expected error when embedding provider fails")
	}
}

func TestAssembleRejectsEmptyVector(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	ix := vectorindex.NewIndex(vectorindex.DefaultFetchMultiplier, logger)
	a := NewAssembler(ix, &fakeEmbedder{vector: nil}, DefaultTopK, DefaultMaxChars, logger)

	if _, err := a.Assemble("query", "tenant-a"); err == nil {
		t.Fatal("expected error for empty embedding vector")
	}
}
