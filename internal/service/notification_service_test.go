package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medicore-triage-be/internal/model"
	"medicore-triage-be/pkg/events"
)

type captureDelivery struct {
	sent      []model.Notification
	broadcast []model.Notification
}

func (c *captureDelivery) Send(userID uuid.UUID, notification model.Notification) {
	c.sent = append(c.sent, notification)
}

func (c *captureDelivery) Broadcast(notification model.Notification) {
	c.broadcast = append(c.broadcast, notification)
}

func TestHandleEventPushesNotification(t *testing.T) {
	delivery := &captureDelivery{}
	svc := NewNotificationService(nil, delivery, nopLogger{})
	userId := uuid.New()

	err := svc.handleEvent(context.Background(), events.BaseEvent{
		Type: events.TypeTriageCompleted,
		Data: map[string]interface{}{
			"user_id":     userId.String(),
			"session_key": "sess-1",
		},
		OccurredAt: time.Now(),
	})

	require.NoError(t, err)
	require.Len(t, delivery.sent, 1)
	notif := delivery.sent[0]
	assert.Equal(t, userId, notif.UserID)
	assert.Equal(t, events.TypeTriageCompleted, notif.TypeCode)
	assert.Equal(t, "Assessment Ready", notif.Title)
}

func TestHandleEventDropsUnmappedTypes(t *testing.T) {
	delivery := &captureDelivery{}
	svc := NewNotificationService(nil, delivery, nopLogger{})

	err := svc.handleEvent(context.Background(), events.BaseEvent{
		Type: "INTERNAL_HOUSEKEEPING",
		Data: map[string]interface{}{"user_id": uuid.NewString()},
	})

	require.NoError(t, err)
	assert.Empty(t, delivery.sent)
}

func TestHandleEventDropsMissingUserID(t *testing.T) {
	delivery := &captureDelivery{}
	svc := NewNotificationService(nil, delivery, nopLogger{})

	err := svc.handleEvent(context.Background(), events.BaseEvent{
		Type: events.TypeEmergencyDetected,
		Data: map[string]interface{}{"session_key": "sess-1"},
	})

	require.NoError(t, err)
	assert.Empty(t, delivery.sent)
}

func TestRenderNotification(t *testing.T) {
	tests := []struct {
		typeCode  string
		payload   map[string]interface{}
		wantTitle string
		wantOk    bool
	}{
		{events.TypeTriageCompleted, nil, "Assessment Ready", true},
		{events.TypeEmergencyDetected, nil, "Emergency Detected", true},
		{events.TypeDocumentIngested, map[string]interface{}{"filename": "a.md"}, "Document Ready", true},
		{events.TypeDocumentIngestFailed, map[string]interface{}{"filename": "a.md"}, "Document Processing Failed", true},
		{"UNKNOWN", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.typeCode, func(t *testing.T) {
			payload := tt.payload
			if payload == nil {
				payload = map[string]interface{}{}
			}
			title, message, ok := renderNotification(tt.typeCode, payload)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantTitle, title)
			if ok {
				assert.NotEmpty(t, message)
			}
		})
	}
}

func TestRenderNotificationEmbedsFilename(t *testing.T) {
	_, message, ok := renderNotification(events.TypeDocumentIngested, map[string]interface{}{"filename": "triage-protocol.md"})
	require.True(t, ok)
	assert.Contains(t, message, "triage-protocol.md")
}
