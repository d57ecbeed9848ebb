package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prakoso-dev/kb-api/internal/dto"
	"github.com/prakoso-dev/kb-api/internal/models"
	"github.com/prakoso-dev/kb-api/internal/repository"
	"github.com/prakoso-dev/kb-api/internal/workflow"
	appErrors "github.com/prakoso-dev/kb-api/pkg/errors"
)

type knowledgeRequestStore interface {
	Create(ctx context.Context, request *models.KnowledgeRequest, audit *models.AuditLog) error
	GetByID(ctx context.Context, id string) (*models.KnowledgeRequest, error)
	List(ctx context.Context, filter models.KnowledgeRequestFilter) ([]models.KnowledgeRequest, error)
	MarkInReview(ctx context.Context, id string, audit *models.AuditLog) error
	Resolve(ctx context.Context, params repository.ResolveParams, audit *models.AuditLog) error
}

// documentCreator is the slice of the document lifecycle the resolver
// needs: reading a link target and creating the NEW_DOCUMENT draft.
type documentCreator interface {
	Get(ctx context.Context, id string) (*dto.DocumentDetail, error)
	Create(ctx context.Context, req dto.CreateDocumentRequest, actorID string) (*dto.DocumentDetail, error)
}

// KnowledgeRequestService orchestrates the question-to-answer protocol.
type KnowledgeRequestService struct {
	repo      knowledgeRequestStore
	documents documentCreator
	logger    *zap.Logger
}

// NewKnowledgeRequestService constructs the service.
func NewKnowledgeRequestService(repo knowledgeRequestStore, documents documentCreator, logger *zap.Logger) *KnowledgeRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KnowledgeRequestService{repo: repo, documents: documents, logger: logger}
}

// Submit stores a new open request.
func (s *KnowledgeRequestService) Submit(ctx context.Context, req dto.CreateKnowledgeRequest, actorID string) (*models.KnowledgeRequest, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "question is required")
	}
	request := &models.KnowledgeRequest{
		ID:          uuid.NewString(),
		RequestedBy: actorID,
		Question:    question,
		Status:      models.RequestStatusNew,
	}
	if dept := strings.TrimSpace(req.Department); dept != "" {
		request.Department = &dept
	}
	payload, _ := json.Marshal(map[string]string{"question": question})
	audit := &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionRequestCreate,
		Resource:   "knowledge_request",
		ResourceID: &request.ID,
		NewValues:  payload,
	}
	if err := s.repo.Create(ctx, request, audit); err != nil {
		return nil, s.storeError(err, "failed to create knowledge request")
	}
	return request, nil
}

// Get returns a request, scoped to the requester unless the actor reviews.
func (s *KnowledgeRequestService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.KnowledgeRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleEmployee && request.RequestedBy != actor.UserID {
		return nil, appErrors.ErrForbidden
	}
	return request, nil
}

// List returns accessible requests respecting actor role.
func (s *KnowledgeRequestService) List(ctx context.Context, query dto.KnowledgeRequestQuery, actor *models.JWTClaims) ([]models.KnowledgeRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.KnowledgeRequestFilter{
		Status:     query.Status,
		Department: strings.TrimSpace(query.Department),
	}
	if actor.Role == models.RoleEmployee {
		filter.RequestedBy = actor.UserID
	}
	if query.PageSize > 0 {
		filter.Limit = query.PageSize
		if query.Page > 1 {
			filter.Offset = (query.Page - 1) * query.PageSize
		}
	}
	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, s.storeError(err, "failed to list knowledge requests")
	}
	return requests, nil
}

// MarkInReview moves a NEW request into review. Any other starting status,
// including re-marking, fails with INVALID_TRANSITION.
func (s *KnowledgeRequestService) MarkInReview(ctx context.Context, id, reviewerID string) (*models.KnowledgeRequest, error) {
	audit := &models.AuditLog{
		UserID:     &reviewerID,
		Action:     models.AuditActionRequestInReview,
		Resource:   "knowledge_request",
		ResourceID: &id,
	}
	if err := s.repo.MarkInReview(ctx, id, audit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			request, loadErr := s.loadRequest(ctx, id)
			if loadErr != nil {
				return nil, loadErr
			}
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
				"request is "+strings.ToLower(string(request.Status))+", only new requests can enter review")
		}
		return nil, s.storeError(err, "failed to mark request in review")
	}
	return s.loadRequest(ctx, id)
}

// Resolve closes an open request exactly once. Status flip, resolver
// stamp, and resolution value commit as one unit; a second call always
// fails with ALREADY_RESOLVED and never mutates stored fields.
func (s *KnowledgeRequestService) Resolve(ctx context.Context, id string, req dto.ResolveRequest, resolverID string) (*models.KnowledgeRequest, error) {
	request, err := s.loadRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if request.Status == models.RequestStatusResolved {
		return nil, appErrors.ErrAlreadyResolved
	}

	resolution, err := s.buildResolution(ctx, req, resolverID)
	if err != nil {
		return nil, err
	}
	if err := resolution.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	params := repository.ResolveParams{
		ID:         request.ID,
		ResolvedBy: resolverID,
		ResolvedAt: now,
		Resolution: resolution,
	}
	payload, _ := json.Marshal(resolution)
	audit := &models.AuditLog{
		UserID:     &resolverID,
		Action:     models.AuditActionRequestResolve,
		Resource:   "knowledge_request",
		ResourceID: &request.ID,
		NewValues:  payload,
	}
	if err := s.repo.Resolve(ctx, params, audit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Guard failed: resolved concurrently or deleted.
			if _, loadErr := s.loadRequest(ctx, id); loadErr != nil {
				return nil, loadErr
			}
			return nil, appErrors.ErrAlreadyResolved
		}
		return nil, s.storeError(err, "failed to resolve knowledge request")
	}

	request.Status = models.RequestStatusResolved
	request.ResolvedBy = &resolverID
	request.ResolvedAt = &now
	request.ResolutionKind = &resolution.Kind
	request.ResolutionDocumentID = resolution.DocumentID
	request.ResolutionAnswer = resolution.Answer
	return request, nil
}

// buildResolution validates the payload against the kind and, for
// NEW_DOCUMENT, creates the draft through the document lifecycle first.
func (s *KnowledgeRequestService) buildResolution(ctx context.Context, req dto.ResolveRequest, resolverID string) (models.Resolution, error) {
	switch req.Kind {
	case models.ResolutionLinkedDocument:
		targetID := strings.TrimSpace(req.DocumentID)
		if targetID == "" {
			return models.Resolution{}, appErrors.Clone(appErrors.ErrInvalidPayload, "linked_document requires a document id")
		}
		target, err := s.documents.Get(ctx, targetID)
		if err != nil {
			if appErr := appErrors.FromError(err); appErr.Code == appErrors.ErrNotFound.Code {
				return models.Resolution{}, appErrors.ErrInvalidTarget
			}
			return models.Resolution{}, err
		}
		// Only approved documents count as answers; deprecated or
		// in-flight targets are rejected.
		if target.Status != workflow.StatusApproved {
			return models.Resolution{}, appErrors.ErrInvalidTarget
		}
		return models.LinkedDocumentResolution(target.ID), nil

	case models.ResolutionWrittenAnswer:
		answer := strings.TrimSpace(req.Answer)
		if answer == "" {
			return models.Resolution{}, appErrors.Clone(appErrors.ErrInvalidPayload, "written_answer requires non-empty answer text")
		}
		return models.WrittenAnswerResolution(answer), nil

	case models.ResolutionNewDocument:
		if req.NewDocument == nil {
			return models.Resolution{}, appErrors.Clone(appErrors.ErrInvalidPayload, "new_document requires the document payload")
		}
		created, err := s.documents.Create(ctx, *req.NewDocument, resolverID)
		if err != nil {
			return models.Resolution{}, err
		}
		return models.NewDocumentResolution(created.ID), nil

	default:
		return models.Resolution{}, appErrors.Clone(appErrors.ErrInvalidPayload, "unsupported resolution kind")
	}
}

func (s *KnowledgeRequestService) loadRequest(ctx context.Context, id string) (*models.KnowledgeRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, s.storeError(err, "failed to load knowledge request")
	}
	return request, nil
}

func (s *KnowledgeRequestService) storeError(err error, message string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, message)
	}
	s.logger.Error("knowledge request store failure", zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
