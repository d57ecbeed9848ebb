package dto

import (
	"time"

	"github.com/prakoso-dev/kb-api/internal/models"
	"github.com/prakoso-dev/kb-api/internal/workflow"
)

// CreateDocumentRequest payload for registering a new draft document.
type CreateDocumentRequest struct {
	Title       string                  `json:"title" validate:"required"`
	Filename    string                  `json:"filename" validate:"required"`
	Sensitivity models.SensitivityLevel `json:"sensitivity" validate:"required"`
	Department  string                  `json:"department" validate:"required"`
	Notes       string                  `json:"notes"`
	ExpiresAt   *time.Time              `json:"expires_at"`
}

// ChangeStatusRequest carries the requested workflow action.
type ChangeStatusRequest struct {
	Action workflow.Action `json:"action" validate:"required"`
}

// UploadVersionRequest payload for appending a document version.
type UploadVersionRequest struct {
	Notes string `json:"notes"`
}

// DocumentPatch is the whitelisted editable subset of document metadata.
// Nil fields are left untouched.
type DocumentPatch struct {
	Title             *string `json:"title,omitempty"`
	Department        *string `json:"department,omitempty"`
	Notes             *string `json:"notes,omitempty"`
	QuestionsAnswered *string `json:"questions_answered,omitempty"`
	AllowAIAccess     *bool   `json:"allow_ai_access,omitempty"`
}

// Empty reports whether the patch would change nothing.
func (p DocumentPatch) Empty() bool {
	return p.Title == nil && p.Department == nil && p.Notes == nil &&
		p.QuestionsAnswered == nil && p.AllowAIAccess == nil
}

// DocumentDetail is the read model returned to the presentation layer:
// the stored document plus its computed expiry classification.
type DocumentDetail struct {
	models.Document
	Expiry workflow.ExpiryState `json:"expiry"`
}

// DocumentQuery mirrors supported listing filters. Expiry buckets are
// computed per row, so that filter applies after classification.
type DocumentQuery struct {
	Status     []workflow.DocumentStatus
	Expiry     []workflow.ExpiryState
	Department string
	Search     string
	Page       int
	PageSize   int
}

// DashboardSummary aggregates counts for the landing page.
type DashboardSummary struct {
	ByStatus map[workflow.DocumentStatus]int `json:"by_status"`
	ByExpiry map[workflow.ExpiryState]int    `json:"by_expiry"`
	Total    int                             `json:"total"`
}
