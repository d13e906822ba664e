package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"medicore-triage-be/internal/model"
	"medicore-triage-be/internal/pkg/logger"
	"medicore-triage-be/pkg/events"
	pktNats "medicore-triage-be/pkg/nats"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	Send(userID uuid.UUID, notification model.Notification)
	Broadcast(notification model.Notification)
}

// NotificationService turns bus events into push notifications. Notifications
// are ephemeral: pushed to connected clients, never stored.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	delivery   NotificationDelivery
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, delivery NotificationDelivery, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		delivery:   delivery,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("events.>", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	typeCode := event.EventType()
	s.logger.Info("NotificationService", fmt.Sprintf("Processing event: %s", typeCode), map[string]interface{}{"type": typeCode})

	title, message, ok := renderNotification(typeCode, event.Payload())
	if !ok {
		// Not every bus event maps to a user-facing notification.
		return nil
	}

	userID, err := payloadUserID(event.Payload())
	if err != nil {
		s.logger.Warn("NotificationService", "Event has no usable user_id, dropping", map[string]interface{}{"type": typeCode, "error": err.Error()})
		return nil
	}

	metaJSON, _ := json.Marshal(event.Payload())
	notif := model.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		TypeCode:  typeCode,
		Title:     title,
		Message:   message,
		Metadata:  datatypes.JSON(metaJSON),
		CreatedAt: time.Now(),
	}

	if s.delivery != nil {
		s.delivery.Send(userID, notif)
	}
	return nil
}

func renderNotification(typeCode string, payload map[string]interface{}) (title, message string, ok bool) {
	filename, _ := payload["filename"].(string)

	switch typeCode {
	case events.TypeTriageCompleted:
		return "Assessment Ready", "Your triage assessment has been completed.", true
	case events.TypeEmergencyDetected:
		return "Emergency Detected", "Emergency symptoms were reported in a triage session. Call 112 immediately if symptoms persist.", true
	case events.TypeDocumentIngested:
		return "Document Ready", fmt.Sprintf("Document %q has been processed and is now searchable.", filename), true
	case events.TypeDocumentIngestFailed:
		return "Document Processing Failed", fmt.Sprintf("Document %q could not be processed. Please re-upload.", filename), true
	default:
		return "", "", false
	}
}

func payloadUserID(payload map[string]interface{}) (uuid.UUID, error) {
	raw, found := payload["user_id"]
	if !found {
		return uuid.Nil, fmt.Errorf("missing user_id")
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("user_id is not a string")
	}
	return uuid.Parse(str)
}
