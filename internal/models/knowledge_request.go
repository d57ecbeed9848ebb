package models

import (
	"strings"
	"time"

	appErrors "github.com/prakoso-dev/kb-api/pkg/errors"
)

// RequestStatus captures workflow states for knowledge requests.
type RequestStatus string

const (
	RequestStatusNew      RequestStatus = "NEW"
	RequestStatusInReview RequestStatus = "IN_REVIEW"
	RequestStatusResolved RequestStatus = "RESOLVED"
)

// ResolutionKind enumerates the ways a knowledge request can be closed.
type ResolutionKind string

const (
	ResolutionLinkedDocument ResolutionKind = "LINKED_DOCUMENT"
	ResolutionNewDocument    ResolutionKind = "NEW_DOCUMENT"
	ResolutionWrittenAnswer  ResolutionKind = "WRITTEN_ANSWER"
)

// Resolution is the single tagged value closing a request. Exactly one
// payload field is populated, consistent with the kind; constructing it
// through the helpers below keeps "kind set but payload missing" states
// unrepresentable.
type Resolution struct {
	Kind       ResolutionKind `json:"kind"`
	DocumentID *string        `json:"document_id,omitempty"`
	Answer     *string        `json:"answer,omitempty"`
}

// LinkedDocumentResolution closes a request by pointing at an approved document.
func LinkedDocumentResolution(documentID string) Resolution {
	return Resolution{Kind: ResolutionLinkedDocument, DocumentID: &documentID}
}

// NewDocumentResolution closes a request with a freshly created document.
func NewDocumentResolution(documentID string) Resolution {
	return Resolution{Kind: ResolutionNewDocument, DocumentID: &documentID}
}

// WrittenAnswerResolution closes a request with authored answer text.
func WrittenAnswerResolution(answer string) Resolution {
	return Resolution{Kind: ResolutionWrittenAnswer, Answer: &answer}
}

// Validate checks the kind/payload pairing.
func (r Resolution) Validate() error {
	switch r.Kind {
	case ResolutionLinkedDocument, ResolutionNewDocument:
		if r.DocumentID == nil || strings.TrimSpace(*r.DocumentID) == "" {
			return appErrors.Clone(appErrors.ErrInvalidPayload, "resolution requires a document id")
		}
		if r.Answer != nil {
			return appErrors.Clone(appErrors.ErrInvalidPayload, "document resolutions carry no answer text")
		}
	case ResolutionWrittenAnswer:
		if r.Answer == nil || strings.TrimSpace(*r.Answer) == "" {
			return appErrors.Clone(appErrors.ErrInvalidPayload, "written answer must not be empty")
		}
		if r.DocumentID != nil {
			return appErrors.Clone(appErrors.ErrInvalidPayload, "written answers carry no document id")
		}
	default:
		return appErrors.Clone(appErrors.ErrInvalidPayload, "unsupported resolution kind")
	}
	return nil
}

// KnowledgeRequest is an employee question flagged as unanswered by
// existing documents. Resolution fields stay unset until the status flips
// to RESOLVED, and both are written in the same commit.
type KnowledgeRequest struct {
	ID                   string          `db:"id" json:"id"`
	RequestedBy          string          `db:"requested_by" json:"requested_by"`
	Question             string          `db:"question" json:"question"`
	Department           *string         `db:"department" json:"department,omitempty"`
	Status               RequestStatus   `db:"status" json:"status"`
	ResolvedBy           *string         `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt           *time.Time      `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolutionKind       *ResolutionKind `db:"resolution_kind" json:"resolution_kind,omitempty"`
	ResolutionDocumentID *string         `db:"resolution_document_id" json:"resolution_document_id,omitempty"`
	ResolutionAnswer     *string         `db:"resolution_answer" json:"resolution_answer,omitempty"`
	CreatedAt            time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at" json:"updated_at"`
}

// KnowledgeRequestFilter constrains listing queries.
type KnowledgeRequestFilter struct {
	Status      []RequestStatus
	Department  string
	RequestedBy string
	Limit       int
	Offset      int
}
