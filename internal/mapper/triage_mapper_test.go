package mapper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"medicore-triage-be/internal/entity"
	"medicore-triage-be/internal/model"
	"medicore-triage-be/pkg/triage"
)

func TestSessionMapperRoundTrip(t *testing.T) {
	m := NewTriageMapper()
	age := 32
	now := time.Now().Truncate(time.Second)
	updated := now.Add(time.Minute)

	src := &entity.TriageSession{
		Id:         uuid.New(),
		SessionKey: "sess-1",
		UserId:     uuid.New(),
		Stage:      "main_symptoms",
		Fields: triage.Fields{
			Consent:        true,
			Age:            &age,
			Sex:            "female",
			MedicalHistory: "none",
			MainSymptoms:   "cough",
		},
		RedFlagsDetected: false,
		Completed:        false,
		CreatedAt:        now,
		UpdatedAt:        &updated,
	}

	got := m.SessionToEntity(m.SessionToModel(src))

	require.NotNil(t, got)
	assert.Equal(t, src.Id, got.Id)
	assert.Equal(t, src.SessionKey, got.SessionKey)
	assert.Equal(t, src.UserId, got.UserId)
	assert.Equal(t, src.Stage, got.Stage)
	assert.Equal(t, src.Fields, got.Fields)
	require.NotNil(t, got.UpdatedAt)
	assert.True(t, got.UpdatedAt.Equal(updated))
	assert.False(t, got.IsDeleted)
}

func TestSessionToEntityCorruptFieldsDegrades(t *testing.T) {
	m := NewTriageMapper()

	got := m.SessionToEntity(&model.TriageSession{
		Id:         uuid.New(),
		SessionKey: "sess-1",
		UserId:     uuid.New(),
		Stage:      "consent",
		Fields:     datatypes.JSON([]byte("{not valid json")),
		CreatedAt:  time.Now(),
	})

	require.NotNil(t, got)
	assert.Equal(t, triage.Fields{}, got.Fields)
	assert.Equal(t, "consent", got.Stage)
}

func TestSessionMapperNil(t *testing.T) {
	m := NewTriageMapper()
	assert.Nil(t, m.SessionToModel(nil))
	assert.Nil(t, m.SessionToEntity(nil))
	assert.Nil(t, m.MessageToModel(nil))
	assert.Nil(t, m.MessageToEntity(nil))
}

func TestMessageMapperRoundTrip(t *testing.T) {
	m := NewTriageMapper()
	now := time.Now().Truncate(time.Second)

	src := &entity.ChatMessage{
		Id:              uuid.New(),
		TriageSessionId: uuid.New(),
		Role:            "assistant",
		Content:         "What brings you in today?",
		Stage:           "main_symptoms",
		CreatedAt:       now,
	}

	got := m.MessageToEntity(m.MessageToModel(src))

	require.NotNil(t, got)
	assert.Equal(t, src.Id, got.Id)
	assert.Equal(t, src.TriageSessionId, got.TriageSessionId)
	assert.Equal(t, src.Role, got.Role)
	assert.Equal(t, src.Content, got.Content)
	assert.Equal(t, src.Stage, got.Stage)
	assert.Nil(t, got.UpdatedAt)
}

func TestMessageMapperSoftDelete(t *testing.T) {
	m := NewTriageMapper()
	deleted := time.Now().Truncate(time.Second)

	src := &entity.ChatMessage{
		Id:        uuid.New(),
		Role:      "user",
		Content:   "hello",
		CreatedAt: time.Now(),
		DeletedAt: &deleted,
	}

	got := m.MessageToEntity(m.MessageToModel(src))

	require.NotNil(t, got.DeletedAt)
	assert.True(t, got.DeletedAt.Equal(deleted))
	assert.True(t, got.IsDeleted)
}
