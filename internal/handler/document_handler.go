package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prakoso-dev/kb-api/internal/dto"
	"github.com/prakoso-dev/kb-api/internal/models"
	"github.com/prakoso-dev/kb-api/internal/workflow"
	appErrors "github.com/prakoso-dev/kb-api/pkg/errors"
	"github.com/prakoso-dev/kb-api/pkg/response"
)

type documentService interface {
	Create(ctx context.Context, req dto.CreateDocumentRequest, actorID string) (*dto.DocumentDetail, error)
	ChangeStatus(ctx context.Context, id string, action workflow.Action, actorID string) (*dto.DocumentDetail, error)
	UploadVersion(ctx context.Context, id, uploaderID, notes string) (*models.DocumentVersion, error)
	EditMetadata(ctx context.Context, id string, raw json.RawMessage, actorID string) (*dto.DocumentDetail, error)
	Get(ctx context.Context, id string) (*dto.DocumentDetail, error)
	List(ctx context.Context, query dto.DocumentQuery) ([]dto.DocumentDetail, error)
	ListVersions(ctx context.Context, id string) ([]models.DocumentVersion, error)
	Summary(ctx context.Context) (*dto.DashboardSummary, error)
}

// DocumentHandler exposes REST endpoints for the document lifecycle.
type DocumentHandler struct {
	service documentService
}

// NewDocumentHandler constructs the handler.
func NewDocumentHandler(service documentService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// Create godoc
// @Summary Register a new draft document
// @Tags Documents
// @Accept json
// @Produce json
// @Param payload body dto.CreateDocumentRequest true "Document payload"
// @Success 201 {object} response.Envelope
// @Router /documents [post]
func (h *DocumentHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid document payload"))
		return
	}
	doc, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, doc, nil)
}

// List godoc
// @Summary List documents with expiry classification
// @Tags Documents
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param expiry query string false "Comma separated expiry buckets"
// @Param department query string false "Department filter"
// @Param search query string false "Title search"
// @Success 200 {object} response.Envelope
// @Router /documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.DocumentQuery{
		Department: strings.TrimSpace(c.Query("department")),
		Search:     strings.TrimSpace(c.Query("search")),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 50),
	}
	if rawStatus := c.Query("status"); rawStatus != "" {
		parts := strings.Split(rawStatus, ",")
		statuses := make([]workflow.DocumentStatus, 0, len(parts))
		for _, part := range parts {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			statuses = append(statuses, workflow.DocumentStatus(part))
		}
		query.Status = statuses
	}
	if rawExpiry := c.Query("expiry"); rawExpiry != "" {
		parts := strings.Split(rawExpiry, ",")
		states := make([]workflow.ExpiryState, 0, len(parts))
		for _, part := range parts {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			states = append(states, workflow.ExpiryState(part))
		}
		query.Expiry = states
	}
	docs, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs, nil)
}

// Get godoc
// @Summary Get document detail
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	doc, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// ChangeStatus godoc
// @Summary Apply a workflow action to a document
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.ChangeStatusRequest true "Requested action"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/status [post]
func (h *DocumentHandler) ChangeStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status payload"))
		return
	}
	action := workflow.Action(strings.ToUpper(strings.TrimSpace(string(req.Action))))
	doc, err := h.service.ChangeStatus(c.Request.Context(), c.Param("id"), action, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// UploadVersion godoc
// @Summary Append a new document version
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Param payload body dto.UploadVersionRequest true "Version notes"
// @Success 201 {object} response.Envelope
// @Router /documents/{id}/versions [post]
func (h *DocumentHandler) UploadVersion(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UploadVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid version payload"))
		return
	}
	version, err := h.service.UploadVersion(c.Request.Context(), c.Param("id"), claims.UserID, req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, version, nil)
}

// ListVersions godoc
// @Summary List a document's version history
// @Tags Documents
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id}/versions [get]
func (h *DocumentHandler) ListVersions(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	versions, err := h.service.ListVersions(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, versions, nil)
}

// EditMetadata godoc
// @Summary Patch whitelisted document metadata
// @Tags Documents
// @Accept json
// @Produce json
// @Param id path string true "Document ID"
// @Success 200 {object} response.Envelope
// @Router /documents/{id} [patch]
func (h *DocumentHandler) EditMetadata(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var raw json.RawMessage
	if err := c.ShouldBindJSON(&raw); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid patch payload"))
		return
	}
	doc, err := h.service.EditMetadata(c.Request.Context(), c.Param("id"), raw, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, doc, nil)
}

// Summary godoc
// @Summary Dashboard counts per status and expiry bucket
// @Tags Documents
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /documents/summary [get]
func (h *DocumentHandler) Summary(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.service.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
