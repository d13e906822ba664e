package service

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medicore-triage-be/internal/dto"
	"medicore-triage-be/internal/entity"
	"medicore-triage-be/pkg/rag/vectorindex"
)

func newConsumerFixture(store *fakeStore, embedder *fakeEmbedder) (*consumerService, *vectorindex.Index) {
	index := vectorindex.NewIndex(5, log.New(io.Discard, "", 0))
	svc := NewConsumerService(
		nil,
		"INGEST_DOCUMENT",
		&fakeUowFactory{store: store},
		embedder,
		index,
		nil,
		nopLogger{},
	).(*consumerService)
	return svc, index
}

func ingestMessage(t *testing.T, documentId uuid.UUID) *message.Message {
	t.Helper()
	payload, err := json.Marshal(dto.IngestDocumentMessage{DocumentId: documentId})
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), payload)
}

func TestProcessMessageIngestsDocument(t *testing.T) {
	store := newFakeStore()
	svc, index := newConsumerFixture(store, &fakeEmbedder{})
	userId := uuid.New()
	docId := uuid.New()
	store.docs[docId] = &entity.Document{
		Id:       docId,
		UserId:   userId,
		Filename: "protocol.txt",
		Content:  "Chest pain requires immediate escalation. Monitor mild coughs at home.",
		Status:   entity.DocumentStatusProcessing,
	}

	msg := ingestMessage(t, docId)
	svc.processMessage(context.Background(), msg)

	assert.True(t, acked(msg))

	doc := store.docs[docId]
	assert.Equal(t, entity.DocumentStatusReady, doc.Status)
	assert.Equal(t, len(store.chunks), doc.ChunkCount)
	require.NotEmpty(t, store.chunks)
	assert.Equal(t, userId, store.chunks[0].UserId)
	assert.Equal(t, docId, store.chunks[0].DocumentId)
	assert.NotEmpty(t, store.chunks[0].EmbeddingValue)

	// The in-memory index mirrors the stored chunks.
	assert.Equal(t, len(store.chunks), index.Len())
}

func TestProcessMessageReplacesPreviousChunks(t *testing.T) {
	store := newFakeStore()
	svc, _ := newConsumerFixture(store, &fakeEmbedder{})
	userId := uuid.New()
	docId := uuid.New()
	store.docs[docId] = &entity.Document{
		Id:      docId,
		UserId:  userId,
		Content: "fresh content",
		Status:  entity.DocumentStatusProcessing,
	}
	store.chunks = append(store.chunks, &entity.DocumentChunk{
		Id: uuid.New(), DocumentId: docId, UserId: userId, Content: "stale chunk",
	})

	msg := ingestMessage(t, docId)
	svc.processMessage(context.Background(), msg)

	for _, c := range store.chunks {
		assert.NotEqual(t, "stale chunk", c.Content)
	}
}

func TestProcessMessageAcksInvalidPayload(t *testing.T) {
	store := newFakeStore()
	svc, _ := newConsumerFixture(store, &fakeEmbedder{})

	msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))
	svc.processMessage(context.Background(), msg)

	assert.True(t, acked(msg))
	assert.Empty(t, store.chunks)
}

func TestProcessMessageAcksMissingDocument(t *testing.T) {
	store := newFakeStore()
	svc, _ := newConsumerFixture(store, &fakeEmbedder{})

	msg := ingestMessage(t, uuid.New())
	svc.processMessage(context.Background(), msg)

	assert.True(t, acked(msg))
}

func TestProcessMessageEmbeddingFailureMarksFailed(t *testing.T) {
	store := newFakeStore()
	svc, index := newConsumerFixture(store, &fakeEmbedder{err: assert.AnError})
	docId := uuid.New()
	store.docs[docId] = &entity.Document{
		Id:      docId,
		UserId:  uuid.New(),
		Content: "some content",
		Status:  entity.DocumentStatusProcessing,
	}

	msg := ingestMessage(t, docId)
	svc.processMessage(context.Background(), msg)

	// Provider failures are terminal for the document, not retried.
	assert.True(t, acked(msg))
	assert.Equal(t, entity.DocumentStatusFailed, store.docs[docId].Status)
	assert.Empty(t, store.chunks)
	assert.Equal(t, 0, index.Len())
}

// acked reports whether msg.Ack was called, without blocking when it was not.
func acked(msg *message.Message) bool {
	select {
	case <-msg.Acked():
		return true
	default:
		return false
	}
}
