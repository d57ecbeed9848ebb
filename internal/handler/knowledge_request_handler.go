package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prakoso-dev/kb-api/internal/dto"
	"github.com/prakoso-dev/kb-api/internal/models"
	appErrors "github.com/prakoso-dev/kb-api/pkg/errors"
	"github.com/prakoso-dev/kb-api/pkg/response"
)

type knowledgeRequestService interface {
	Submit(ctx context.Context, req dto.CreateKnowledgeRequest, actorID string) (*models.KnowledgeRequest, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.KnowledgeRequest, error)
	List(ctx context.Context, query dto.KnowledgeRequestQuery, actor *models.JWTClaims) ([]models.KnowledgeRequest, error)
	MarkInReview(ctx context.Context, id, reviewerID string) (*models.KnowledgeRequest, error)
	Resolve(ctx context.Context, id string, req dto.ResolveRequest, resolverID string) (*models.KnowledgeRequest, error)
}

// KnowledgeRequestHandler exposes REST endpoints for the request workflow.
type KnowledgeRequestHandler struct {
	service knowledgeRequestService
}

// NewKnowledgeRequestHandler constructs the handler.
func NewKnowledgeRequestHandler(service knowledgeRequestService) *KnowledgeRequestHandler {
	return &KnowledgeRequestHandler{service: service}
}

// Create godoc
// @Summary Submit a knowledge-gap question
// @Tags Knowledge Requests
// @Accept json
// @Produce json
// @Param payload body dto.CreateKnowledgeRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /knowledge-requests [post]
func (h *KnowledgeRequestHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateKnowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request payload"))
		return
	}
	request, err := h.service.Submit(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, request, nil)
}

// List godoc
// @Summary List knowledge requests
// @Tags Knowledge Requests
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param department query string false "Department filter"
// @Success 200 {object} response.Envelope
// @Router /knowledge-requests [get]
func (h *KnowledgeRequestHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.KnowledgeRequestQuery{
		Department: strings.TrimSpace(c.Query("department")),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 50),
	}
	if rawStatus := c.Query("status"); rawStatus != "" {
		parts := strings.Split(rawStatus, ",")
		statuses := make([]models.RequestStatus, 0, len(parts))
		for _, part := range parts {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			statuses = append(statuses, models.RequestStatus(part))
		}
		query.Status = statuses
	}
	requests, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Get godoc
// @Summary Get knowledge request detail
// @Tags Knowledge Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /knowledge-requests/{id} [get]
func (h *KnowledgeRequestHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// MarkInReview godoc
// @Summary Take a new request into review
// @Tags Knowledge Requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /knowledge-requests/{id}/review [post]
func (h *KnowledgeRequestHandler) MarkInReview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.service.MarkInReview(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Resolve godoc
// @Summary Resolve a knowledge request
// @Tags Knowledge Requests
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ResolveRequest true "Resolution decision"
// @Success 200 {object} response.Envelope
// @Router /knowledge-requests/{id}/resolve [post]
func (h *KnowledgeRequestHandler) Resolve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid resolution payload"))
		return
	}
	req.Kind = models.ResolutionKind(strings.ToUpper(strings.TrimSpace(string(req.Kind))))
	request, err := h.service.Resolve(c.Request.Context(), c.Param("id"), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
