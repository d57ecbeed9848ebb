package models

import (
	"time"

	"github.com/prakoso-dev/kb-api/internal/workflow"
)

// SensitivityLevel classifies how widely a document may be shared.
type SensitivityLevel string

const (
	SensitivityPublic       SensitivityLevel = "PUBLIC"
	SensitivityInternal     SensitivityLevel = "INTERNAL"
	SensitivityConfidential SensitivityLevel = "CONFIDENTIAL"
)

// Document represents a governed knowledge artifact with an approval lifecycle.
type Document struct {
	ID                string                  `db:"id" json:"id"`
	Title             string                  `db:"title" json:"title"`
	Filename          string                  `db:"filename" json:"filename"`
	Sensitivity       SensitivityLevel        `db:"sensitivity" json:"sensitivity"`
	Department        string                  `db:"department" json:"department"`
	Status            workflow.DocumentStatus `db:"document_status" json:"document_status"`
	CurrentVersion    int                     `db:"current_version" json:"current_version"`
	Notes             *string                 `db:"notes" json:"notes,omitempty"`
	QuestionsAnswered *string                 `db:"questions_answered" json:"questions_answered,omitempty"`
	AllowAIAccess     bool                    `db:"allow_ai_access" json:"allow_ai_access"`
	ExpiresAt         *time.Time              `db:"expires_at" json:"expires_at,omitempty"`
	LastReviewedAt    *time.Time              `db:"last_reviewed_at" json:"last_reviewed_at,omitempty"`
	LastReviewedBy    *string                 `db:"last_reviewed_by" json:"last_reviewed_by,omitempty"`
	CreatedBy         string                  `db:"created_by" json:"created_by"`
	CreatedAt         time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time               `db:"updated_at" json:"updated_at"`
}

// DocumentVersion is an immutable entry in a document's version history.
// Version numbers are gapless per document, starting at 1.
type DocumentVersion struct {
	ID            string    `db:"id" json:"id"`
	DocumentID    string    `db:"document_id" json:"document_id"`
	VersionNumber int       `db:"version_number" json:"version_number"`
	UploadedBy    string    `db:"uploaded_by" json:"uploaded_by"`
	Notes         *string   `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// DocumentFilter constrains document listing queries.
type DocumentFilter struct {
	Status     []workflow.DocumentStatus
	Department string
	Search     string
	Limit      int
	Offset     int
}
