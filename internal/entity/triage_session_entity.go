package entity

import (
	"time"

	"github.com/google/uuid"

	"medicore-triage-be/pkg/triage"
)

// TriageSession is the persisted audit record of one triage conversation.
// The live conversation state is held in memory; this row is what survives
// a restart and what the history endpoints read.
type TriageSession struct {
	Id               uuid.UUID
	SessionKey       string // opaque token handed to the client
	UserId           uuid.UUID
	Stage            string
	Fields           triage.Fields
	RedFlagsDetected bool
	Completed        bool
	CreatedAt        time.Time
	UpdatedAt        *time.Time
	DeletedAt        *time.Time
	IsDeleted        bool
}
