package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/prakoso-dev/kb-api/internal/dto"
	"github.com/prakoso-dev/kb-api/internal/service"
	"github.com/prakoso-dev/kb-api/internal/workflow"
	appErrors "github.com/prakoso-dev/kb-api/pkg/errors"
	"github.com/prakoso-dev/kb-api/pkg/response"
)

type exportService interface {
	DocumentRegister(ctx context.Context, format string, query dto.DocumentQuery) (*service.ExportResult, error)
}

// ExportHandler serves document register downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(service exportService) *ExportHandler {
	return &ExportHandler{service: service}
}

// Documents godoc
// @Summary Download the document register as CSV or PDF
// @Tags Exports
// @Produce octet-stream
// @Param format query string true "csv or pdf"
// @Param status query string false "Comma separated statuses"
// @Param department query string false "Department filter"
// @Success 200 {file} binary
// @Router /exports/documents [get]
func (h *ExportHandler) Documents(c *gin.Context) {
	if claimsFromContext(c) == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.DocumentQuery{
		Department: strings.TrimSpace(c.Query("department")),
	}
	if rawStatus := c.Query("status"); rawStatus != "" {
		for _, part := range strings.Split(rawStatus, ",") {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part != "" {
				query.Status = append(query.Status, workflow.DocumentStatus(part))
			}
		}
	}
	result, err := h.service.DocumentRegister(c.Request.Context(), c.Query("format"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
