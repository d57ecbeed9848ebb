package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
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

type documentStore interface {
	Create(ctx context.Context, doc *models.Document, version *models.DocumentVersion, audit *models.AuditLog) error
	GetByID(ctx context.Context, id string) (*models.Document, error)
	List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error)
	ListVersions(ctx context.Context, documentID string) ([]models.DocumentVersion, error)
	UpdateStatus(ctx context.Context, params repository.UpdateStatusParams, audit *models.AuditLog) error
	AppendVersion(ctx context.Context, version *models.DocumentVersion, audit *models.AuditLog) error
	UpdateMetadata(ctx context.Context, id string, patch dto.DocumentPatch, audit *models.AuditLog) error
	CountByStatus(ctx context.Context) (map[workflow.DocumentStatus]int, error)
	ListExpiries(ctx context.Context) ([]*time.Time, error)
}

// editableFields is the metadata whitelist. Status, version, and audit
// columns are only reachable through their dedicated operations.
var editableFields = map[string]struct{}{
	"title":              {},
	"department":         {},
	"notes":              {},
	"questions_answered": {},
	"allow_ai_access":    {},
}

const (
	documentCacheKeyPrefix = "kb:document:"
	dashboardCacheKey      = "kb:dashboard:summary"
)

// DocumentService orchestrates the document approval lifecycle.
type DocumentService struct {
	repo   documentStore
	cache  *CacheService
	logger *zap.Logger
}

// NewDocumentService constructs the service.
func NewDocumentService(repo documentStore, cache *CacheService, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{repo: repo, cache: cache, logger: logger}
}

// Create registers a new draft document at version 1.
func (s *DocumentService) Create(ctx context.Context, req dto.CreateDocumentRequest, actorID string) (*dto.DocumentDetail, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Filename) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title and filename are required")
	}
	switch req.Sensitivity {
	case models.SensitivityPublic, models.SensitivityInternal, models.SensitivityConfidential:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported sensitivity level")
	}

	doc := &models.Document{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Filename:    strings.TrimSpace(req.Filename),
		Sensitivity: req.Sensitivity,
		Department:  strings.TrimSpace(req.Department),
		Status:      workflow.StatusDraft,
		ExpiresAt:   req.ExpiresAt,
		CreatedBy:   actorID,
	}
	if note := strings.TrimSpace(req.Notes); note != "" {
		doc.Notes = &note
	}
	version := &models.DocumentVersion{
		UploadedBy: actorID,
		Notes:      doc.Notes,
	}
	payload, _ := json.Marshal(doc)
	audit := &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionDocumentCreate,
		Resource:   "document",
		ResourceID: &doc.ID,
		NewValues:  payload,
	}
	if err := s.repo.Create(ctx, doc, version, audit); err != nil {
		return nil, s.storeError(err, "failed to create document")
	}
	s.invalidate(ctx, doc.ID)
	return s.detail(doc), nil
}

// ChangeStatus runs the transition engine and persists the outcome. The
// persisted status always equals the engine's result; on any failure the
// stored row is untouched.
func (s *DocumentService) ChangeStatus(ctx context.Context, id string, action workflow.Action, actorID string) (*dto.DocumentDetail, error) {
	doc, err := s.loadDocument(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := workflow.NextStatus(doc.Status, action)
	if err != nil {
		return nil, err
	}

	params := repository.UpdateStatusParams{
		ID:             doc.ID,
		ExpectedStatus: doc.Status,
		NextStatus:     next,
	}
	// Entering APPROVED stamps review metadata; no other transition
	// touches it.
	if next == workflow.StatusApproved {
		now := time.Now().UTC()
		params.ReviewedBy = &actorID
		params.ReviewedAt = &now
	}

	oldPayload, _ := json.Marshal(map[string]interface{}{"document_status": doc.Status})
	newPayload, _ := json.Marshal(map[string]interface{}{"document_status": next, "action": action})
	audit := &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionDocumentStatus,
		Resource:   "document",
		ResourceID: &doc.ID,
		OldValues:  oldPayload,
		NewValues:  newPayload,
	}

	if err := s.repo.UpdateStatus(ctx, params, audit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The guard failed: the document vanished or moved
			// underneath us. Disambiguate with a re-read.
			if _, loadErr := s.loadDocument(ctx, id); loadErr != nil {
				return nil, loadErr
			}
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "document status changed concurrently")
		}
		return nil, s.storeError(err, "failed to update document status")
	}

	doc.Status = next
	doc.LastReviewedBy = params.ReviewedBy
	doc.LastReviewedAt = params.ReviewedAt
	s.invalidate(ctx, doc.ID)
	return s.detail(doc), nil
}

// UploadVersion appends a new immutable version and bumps the counter.
// Status is never altered by an upload.
func (s *DocumentService) UploadVersion(ctx context.Context, id, uploaderID, notes string) (*models.DocumentVersion, error) {
	version := &models.DocumentVersion{
		DocumentID: id,
		UploadedBy: uploaderID,
	}
	if note := strings.TrimSpace(notes); note != "" {
		version.Notes = &note
	}
	audit := &models.AuditLog{
		UserID:     &uploaderID,
		Action:     models.AuditActionDocumentVersion,
		Resource:   "document",
		ResourceID: &id,
	}
	if err := s.repo.AppendVersion(ctx, version, audit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, s.storeError(err, "failed to append document version")
	}
	s.invalidate(ctx, id)
	return version, nil
}

// EditMetadata applies a whitelisted patch supplied as raw JSON. Keys
// outside the whitelist fail with INVALID_FIELD before anything is written.
func (s *DocumentService) EditMetadata(ctx context.Context, id string, raw json.RawMessage, actorID string) (*dto.DocumentDetail, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "patch must be a JSON object")
	}
	if len(fields) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "patch must not be empty")
	}
	for key := range fields {
		if _, ok := editableFields[key]; !ok {
			return nil, appErrors.Clone(appErrors.ErrInvalidField, fmt.Sprintf("field %q is not editable", key))
		}
	}
	var patch dto.DocumentPatch
	if err := json.Unmarshal(raw, &patch); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid patch value types")
	}
	if patch.Empty() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "patch carries no values")
	}

	audit := &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionDocumentUpdate,
		Resource:   "document",
		ResourceID: &id,
		NewValues:  append([]byte(nil), raw...),
	}
	if err := s.repo.UpdateMetadata(ctx, id, patch, audit); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, s.storeError(err, "failed to update document metadata")
	}
	s.invalidate(ctx, id)
	doc, err := s.loadDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(doc), nil
}

// Get returns the document detail including its expiry classification.
func (s *DocumentService) Get(ctx context.Context, id string) (*dto.DocumentDetail, error) {
	cacheKey := documentCacheKeyPrefix + id
	if s.cache.Enabled() {
		var cached dto.DocumentDetail
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}
	doc, err := s.loadDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := s.detail(doc)
	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, detail, 0)
	}
	return detail, nil
}

// List returns document details matching the query.
func (s *DocumentService) List(ctx context.Context, query dto.DocumentQuery) ([]dto.DocumentDetail, error) {
	filter := models.DocumentFilter{
		Status:     query.Status,
		Department: strings.TrimSpace(query.Department),
		Search:     strings.TrimSpace(query.Search),
	}
	if query.PageSize > 0 {
		filter.Limit = query.PageSize
		if query.Page > 1 {
			filter.Offset = (query.Page - 1) * query.PageSize
		}
	}
	docs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, s.storeError(err, "failed to list documents")
	}
	now := time.Now().UTC()
	details := make([]dto.DocumentDetail, 0, len(docs))
	for i := range docs {
		expiry := workflow.ClassifyExpiry(docs[i].ExpiresAt, now)
		if len(query.Expiry) > 0 && !containsExpiry(query.Expiry, expiry) {
			continue
		}
		details = append(details, dto.DocumentDetail{
			Document: docs[i],
			Expiry:   expiry,
		})
	}
	return details, nil
}

func containsExpiry(states []workflow.ExpiryState, state workflow.ExpiryState) bool {
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}

// ListVersions returns the version history for a document.
func (s *DocumentService) ListVersions(ctx context.Context, id string) ([]models.DocumentVersion, error) {
	if _, err := s.loadDocument(ctx, id); err != nil {
		return nil, err
	}
	versions, err := s.repo.ListVersions(ctx, id)
	if err != nil {
		return nil, s.storeError(err, "failed to list document versions")
	}
	return versions, nil
}

// Summary aggregates status and expiry buckets for the dashboard.
func (s *DocumentService) Summary(ctx context.Context) (*dto.DashboardSummary, error) {
	if s.cache.Enabled() {
		var cached dto.DashboardSummary
		if hit, _ := s.cache.Get(ctx, dashboardCacheKey, &cached); hit {
			return &cached, nil
		}
	}
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, s.storeError(err, "failed to aggregate document statuses")
	}
	expiries, err := s.repo.ListExpiries(ctx)
	if err != nil {
		return nil, s.storeError(err, "failed to load document expiries")
	}
	now := time.Now().UTC()
	summary := &dto.DashboardSummary{
		ByStatus: byStatus,
		ByExpiry: make(map[workflow.ExpiryState]int),
	}
	for _, count := range byStatus {
		summary.Total += count
	}
	for _, expiresAt := range expiries {
		summary.ByExpiry[workflow.ClassifyExpiry(expiresAt, now)]++
	}
	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, dashboardCacheKey, summary, 0)
	}
	return summary, nil
}

func (s *DocumentService) loadDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, s.storeError(err, "failed to load document")
	}
	return doc, nil
}

func (s *DocumentService) detail(doc *models.Document) *dto.DocumentDetail {
	return &dto.DocumentDetail{
		Document: *doc,
		Expiry:   workflow.ClassifyExpiry(doc.ExpiresAt, time.Now().UTC()),
	}
}

func (s *DocumentService) invalidate(ctx context.Context, id string) {
	if !s.cache.Enabled() {
		return
	}
	s.cache.Invalidate(ctx, documentCacheKeyPrefix+id)
	s.cache.Invalidate(ctx, "kb:dashboard:*")
}

// storeError maps store failures onto the error taxonomy. Timeouts and
// cancellations become UNAVAILABLE, the only kind callers may blindly
// retry because failed operations leave no partial state.
func (s *DocumentService) storeError(err error, message string) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, message)
	}
	s.logger.Error("document store failure", zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
