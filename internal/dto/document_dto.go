package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadDocumentResponse struct {
	Id       uuid.UUID `json:"id"`
	Filename string    `json:"filename"`
	Status   string    `json:"status"`
}

type DocumentItemResponse struct {
	Id         uuid.UUID  `json:"id"`
	Filename   string     `json:"filename"`
	FileType   string     `json:"file_type"`
	Status     string     `json:"status"`
	ChunkCount int        `json:"chunk_count"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}

// IngestDocumentMessage is the work-queue payload that triggers chunking
// and embedding for an uploaded document.
type IngestDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}

type AskRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

type AskSourceDTO struct {
	DocumentId uuid.UUID `json:"document_id"`
	Filename   string    `json:"filename"`
	ChunkIndex int       `json:"chunk_index"`
	Similarity float64   `json:"similarity"`
}

type AskResponse struct {
	Answer  string         `json:"answer"`
	Sources []AskSourceDTO `json:"sources"`
}
