package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TriageSession struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionKey       string         `gorm:"type:text;not null;uniqueIndex"`
	UserId           uuid.UUID      `gorm:"type:uuid;not null;index"` // tenant ownership for data isolation
	Stage            string         `gorm:"type:text;not null"`
	Fields           datatypes.JSON `gorm:"type:jsonb"`
	RedFlagsDetected bool           `gorm:"default:false"`
	Completed        bool           `gorm:"default:false"`
	CreatedAt        time.Time      `gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime"`
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (TriageSession) TableName() string {
	return "triage_sessions"
}
