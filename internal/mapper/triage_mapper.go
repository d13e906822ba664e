package mapper

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"medicore-triage-be/internal/entity"
	"medicore-triage-be/internal/model"
	"medicore-triage-be/pkg/triage"
)

type TriageMapper struct{}

func NewTriageMapper() *TriageMapper {
	return &TriageMapper{}
}

// Session Mappers

func (m *TriageMapper) SessionToEntity(s *model.TriageSession) *entity.TriageSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	var fields triage.Fields
	if len(s.Fields) > 0 {
		// A corrupt fields blob degrades to empty fields rather than failing
		// the read; the audit row itself is still usable.
		_ = json.Unmarshal(s.Fields, &fields)
	}

	return &entity.TriageSession{
		Id:               s.Id,
		SessionKey:       s.SessionKey,
		UserId:           s.UserId,
		Stage:            s.Stage,
		Fields:           fields,
		RedFlagsDetected: s.RedFlagsDetected,
		Completed:        s.Completed,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        updatedAt,
		DeletedAt:        deletedAt,
		IsDeleted:        s.DeletedAt.Valid,
	}
}

func (m *TriageMapper) SessionToModel(s *entity.TriageSession) *model.TriageSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	fieldsJSON, _ := json.Marshal(s.Fields)

	return &model.TriageSession{
		Id:               s.Id,
		SessionKey:       s.SessionKey,
		UserId:           s.UserId,
		Stage:            s.Stage,
		Fields:           datatypes.JSON(fieldsJSON),
		RedFlagsDetected: s.RedFlagsDetected,
		Completed:        s.Completed,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        updatedAt,
		DeletedAt:        deletedAt,
	}
}

// Message Mappers

func (m *TriageMapper) MessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	var deletedAt *time.Time
	if msg.DeletedAt.Valid {
		t := msg.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !msg.UpdatedAt.IsZero() {
		t := msg.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatMessage{
		Id:              msg.Id,
		TriageSessionId: msg.TriageSessionId,
		Role:            msg.Role,
		Content:         msg.Content,
		Stage:           msg.Stage,
		CreatedAt:       msg.CreatedAt,
		UpdatedAt:       updatedAt,
		DeletedAt:       deletedAt,
		IsDeleted:       msg.DeletedAt.Valid,
	}
}

func (m *TriageMapper) MessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if msg.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *msg.DeletedAt, Valid: true}
	} else if msg.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if msg.UpdatedAt != nil {
		updatedAt = *msg.UpdatedAt
	}

	return &model.ChatMessage{
		Id:              msg.Id,
		TriageSessionId: msg.TriageSessionId,
		Role:            msg.Role,
		Content:         msg.Content,
		Stage:           msg.Stage,
		CreatedAt:       msg.CreatedAt,
		UpdatedAt:       updatedAt,
		DeletedAt:       deletedAt,
	}
}
