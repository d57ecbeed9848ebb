package dto

import "github.com/prakoso-dev/kb-api/internal/models"

// CreateKnowledgeRequest payload for submitting an unanswered question.
type CreateKnowledgeRequest struct {
	Question   string `json:"question" validate:"required"`
	Department string `json:"department"`
}

// ResolveRequest captures the reviewer's resolution decision. Exactly one
// payload branch is consulted, selected by Kind:
//   - LINKED_DOCUMENT uses DocumentID (must reference an approved document)
//   - WRITTEN_ANSWER uses Answer
//   - NEW_DOCUMENT uses NewDocument, which is created as a draft through
//     the document lifecycle before the request is closed
type ResolveRequest struct {
	Kind        models.ResolutionKind  `json:"kind" validate:"required"`
	DocumentID  string                 `json:"document_id"`
	Answer      string                 `json:"answer"`
	NewDocument *CreateDocumentRequest `json:"new_document"`
}

// KnowledgeRequestQuery mirrors supported listing filters.
type KnowledgeRequestQuery struct {
	Status     []models.RequestStatus
	Department string
	Page       int
	PageSize   int
}
