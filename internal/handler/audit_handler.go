package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prakoso-dev/kb-api/internal/models"
	appErrors "github.com/prakoso-dev/kb-api/pkg/errors"
	"github.com/prakoso-dev/kb-api/pkg/response"
)

type auditLister interface {
	List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error)
}

// AuditHandler exposes the read-only audit trail to reviewers.
type AuditHandler struct {
	repo auditLister
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(repo auditLister) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// List godoc
// @Summary List audit entries
// @Tags Audit
// @Produce json
// @Param action query string false "Action filter"
// @Param resource query string false "Resource filter"
// @Param resource_id query string false "Resource ID filter"
// @Success 200 {object} response.Envelope
// @Router /audit-logs [get]
func (h *AuditHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if claims.Role == models.RoleEmployee {
		response.Error(c, appErrors.ErrForbidden)
		return
	}
	filter := models.AuditFilter{
		Action:     strings.ToUpper(strings.TrimSpace(c.Query("action"))),
		Resource:   strings.TrimSpace(c.Query("resource")),
		ResourceID: strings.TrimSpace(c.Query("resource_id")),
		Limit:      queryInt(c, "page_size", 100),
	}
	if page := queryInt(c, "page", 1); page > 1 {
		filter.Offset = (page - 1) * filter.Limit
	}
	logs, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}
