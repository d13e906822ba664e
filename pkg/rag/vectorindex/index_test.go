package vectorindex

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"math"
	"strings"
	"sync"
	"testing"
)

func newTestIndex(multiplier int) *Index {
	return NewIndex(multiplier, log.New(io.Discard, "", 0))
}

// unit returns a 2-d unit vector at the given angle so similarity ordering
// in tests is easy to reason about: smaller angle to the query = higher rank.
func unit(angle float64) []float32 {
	return []float32{float32(math.Cos(angle)), float32(math.Sin(angle))}
}

func chunkAt(id, tenant string, angle float64) Chunk {
	return Chunk{ID: id, TenantID: tenant, Source: "doc.pdf", Content: "c-" + id, Embedding: unit(angle)}
}

func TestQueryReturnsOnlyRequestingTenant(t *testing.T) {
	ix := newTestIndex(DefaultFetchMultiplier)

	// Tenant B owns every top-ranked chunk; tenant A's sit further out.
	var chunks []Chunk
	for i := 0; i < 10; i++ {
		chunks = append(chunks, chunkAt(fmt.Sprintf("b%d", i), "tenant-b", float64(i)*0.01))
	}
	chunks = append(chunks,
		chunkAt("a1", "tenant-a", 0.5),
		chunkAt("a2", "tenant-a", 0.7),
	)
	if err := ix.Add(chunks); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := ix.Query(unit(0), 2, "tenant-a")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2", len(got))
	}
	if got[0].ID != "a1" || got[1].ID != "a2" {
		t.Errorf("got order %s, %s; want a1, a2", got[0].ID, got[1].ID)
	}
	for _, c := range got {
		if c.TenantID != "tenant-a" {
			t.Fatalf("cross-tenant chunk %s leaked into results", c.ID)
		}
	}
}

func TestQueryForeignTenantReturnsEmpty(t *testing.T) {
	ix := newTestIndex(DefaultFetchMultiplier)
	if err := ix.Add([]Chunk{
		chunkAt("b1", "tenant-b", 0),
		chunkAt("b2", "tenant-b", 0.1),
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := ix.Query(unit(0), 3, "tenant-a")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d chunks for tenant with no data, want 0", len(got))
	}
}

func TestQueryWidensUntilTenantMatchFound(t *testing.T) {
	// Multiplier 1 with k=1 starts by ranking a single candidate. The only
	// tenant-a chunk is the worst-ranked of 9, so the window must double
	// repeatedly before it is reached.
	ix := newTestIndex(1)

	var chunks []Chunk
	for i := 0; i < 8; i++ {
		chunks = append(chunks, chunkAt(fmt.Sprintf("b%d", i), "tenant-b", float64(i)*0.05))
	}
	chunks = append(chunks, chunkAt("a1", "tenant-a", 1.2))
	if err := ix.Add(chunks); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := ix.Query(unit(0), 1, "tenant-a")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a1" {
		t.Fatalf("got %v, want the single tenant-a chunk", got)
	}
}

func TestQueryUnderFilledAfterFullScan(t *testing.T) {
	ix := newTestIndex(DefaultFetchMultiplier)
	if err := ix.Add([]Chunk{
		chunkAt("a1", "tenant-a", 0.2),
		chunkAt("b1", "tenant-b", 0),
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := ix.Query(unit(0), 5, "tenant-a")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d chunks, want 1 (tenant owns only one)", len(got))
	}
}

func TestQueryEmptyIndex(t *testing.T) {
	ix := newTestIndex(DefaultFetchMultiplier)
	got, err := ix.Query(unit(0), 5, "tenant-a")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d chunks from empty index", len(got))
	}
}

func TestQueryDimensionMismatch(t *testing.T) {
	ix := newTestIndex(DefaultFetchMultiplier)
	if err := ix.Add([]Chunk{chunkAt("a1", "tenant-a", 0)}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := ix.Query([]float32{1, 0, 0}, 1, "tenant-a"); err == nil {
		t.Error("expected dimension mismatch error")
	}
	if _, err := ix.Query(nil, 1, "tenant-a"); err == nil {
		t.Error("expected empty embedding error")
	}
}

func TestAddRejectsBatchAsWhole(t *testing.T) {
	ix := newTestIndex(DefaultFetchMultiplier)
	err := ix.Add([]Chunk{
		chunkAt("a1", "tenant-a", 0),
		{ID: "bad", TenantID: "tenant-a"},
	})
	if err == nil {
		t.Fatal("expected error for chunk without embedding")
	}
	if ix.Len() != 0 {
		t.Errorf("partial batch committed: index holds %d chunks", ix.Len())
	}
}

func TestRemoveBySource(t *testing.T) {
	ix := newTestIndex(DefaultFetchMultiplier)
	chunks := []Chunk{
		{ID: "a1", TenantID: "tenant-a", Source: "x.pdf", Embedding: unit(0)},
		{ID: "a2", TenantID: "tenant-a", Source: "y.pdf", Embedding: unit(0.1)},
		{ID: "b1", TenantID: "tenant-b", Source: "x.pdf", Embedding: unit(0.2)},
	}
	if err := ix.Add(chunks); err != nil {
		t.Fatalf("Add: %v", err)
	}

	removed := ix.RemoveBySource("tenant-a", "x.pdf")
	if removed != 1 {
		t.Errorf("removed %d chunks, want 1", removed)
	}
	if ix.Len() != 2 {
		t.Errorf("index holds %d chunks after removal, want 2", ix.Len())
	}

	// Same source name under a different tenant must survive.
	got, err := ix.Query(unit(0), 1, "tenant-b")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b1" {
		t.Errorf("tenant-b chunk missing after tenant-a removal: %v", got)
	}
}

func TestRebuildReplacesContents(t *testing.T) {
	ix := newTestIndex(DefaultFetchMultiplier)
	if err := ix.Add([]Chunk{chunkAt("old", "tenant-a", 0)}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := ix.Rebuild([]Chunk{chunkAt("new", "tenant-a", 0)}); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	got, err := ix.Query(unit(0), 2, "tenant-a")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].ID != "new" {
		t.Errorf("got %v, want only the rebuilt chunk", got)
	}
}

func TestRebuildFailureKeepsOldContents(t *testing.T) {
	ix := newTestIndex(DefaultFetchMultiplier)
	if err := ix.Add([]Chunk{chunkAt("old", "tenant-a", 0)}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := ix.Rebuild([]Chunk{{ID: "bad", TenantID: "tenant-a"}}); err == nil {
		t.Fatal("expected rebuild error")
	}
	if ix.Len() != 1 {
		t.Errorf("index holds %d chunks after failed rebuild, want 1", ix.Len())
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ix := newTestIndex(DefaultFetchMultiplier)
	if err := ix.Add([]Chunk{
		chunkAt("a1", "tenant-a", 0.1),
		chunkAt("b1", "tenant-b", 0.2),
	}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	var buf bytes.Buffer
	if err := ix.WriteSnapshot(&buf); err != nil {
		t.Fatalf("WriteSnapshot: %v", err)
	}

	restored := newTestIndex(DefaultFetchMultiplier)
	if err := restored.ReadSnapshot(&buf); err != nil {
		t.Fatalf("ReadSnapshot: %v", err)
	}
	if restored.Len() != 2 {
		t.Fatalf("restored index holds %d chunks, want 2", restored.Len())
	}

	got, err := restored.Query(unit(0), 1, "tenant-a")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a1" {
		t.Errorf("got %v after restore, want a1", got)
	}
}

func TestSnapshotRejectsUnknownVersion(t *testing.T) {
	ix := newTestIndex(DefaultFetchMultiplier)
	err := ix.ReadSnapshot(strings.NewReader(`{"version": 99, "dim": 2, "chunks": []}`))
	if err == nil {
		t.Fatal("expected error for unknown snapshot version")
	}
}

func TestConcurrentAddAndQuery(t *testing.T) {
	ix := newTestIndex(DefaultFetchMultiplier)
	if err := ix.Add([]Chunk{chunkAt("seed", "tenant-a", 0)}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if n%2 == 0 {
					_ = ix.Add([]Chunk{chunkAt(fmt.Sprintf("c%d-%d", n, j), "tenant-a", float64(j)*0.01)})
				} else {
					if _, err := ix.Query(unit(0), 3, "tenant-a"); err != nil {
						t.Errorf("Query: %v", err)
					}
				}
			}
		}(i)
	}
	wg.Wait()
}
