package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakoso-dev/kb-api/internal/dto"
	"github.com/prakoso-dev/kb-api/internal/middleware"
	"github.com/prakoso-dev/kb-api/internal/models"
	"github.com/prakoso-dev/kb-api/internal/service"
	"github.com/prakoso-dev/kb-api/internal/workflow"
	appErrors "github.com/prakoso-dev/kb-api/pkg/errors"
)

type exportServiceMock struct {
	result     *service.ExportResult
	err        error
	lastFormat string
	lastQuery  dto.DocumentQuery
}

func (m *exportServiceMock) DocumentRegister(ctx context.Context, format string, query dto.DocumentQuery) (*service.ExportResult, error) {
	m.lastFormat = format
	m.lastQuery = query
	return m.result, m.err
}

func TestExportHandlerDocuments(t *testing.T) {
	mockSvc := &exportServiceMock{
		result: &service.ExportResult{
			Content:     []byte("Title,Department\n"),
			ContentType: "text/csv",
			Filename:    "document-register-20260831.csv",
		},
	}
	handler := NewExportHandler(mockSvc)

	c, w := reviewerContext(t, http.MethodGet, "/exports/documents?format=csv&status=approved", nil)
	handler.Documents(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "csv", mockSvc.lastFormat)
	assert.Equal(t, []workflow.DocumentStatus{workflow.StatusApproved}, mockSvc.lastQuery.Status)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "document-register-20260831.csv")
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
}

func TestExportHandlerDocumentsBadFormat(t *testing.T) {
	mockSvc := &exportServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")}
	handler := NewExportHandler(mockSvc)

	c, w := reviewerContext(t, http.MethodGet, "/exports/documents?format=xlsx", nil)
	handler.Documents(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportHandlerRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewExportHandler(&exportServiceMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/exports/documents?format=csv", nil)

	handler.Documents(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuditHandlerListForbiddenForEmployees(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuditHandler(&auditListerMock{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/audit-logs", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "employee-1", Role: models.RoleEmployee})

	handler.List(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}

type auditListerMock struct {
	logs       []models.AuditLog
	lastFilter models.AuditFilter
}

func (m *auditListerMock) List(ctx context.Context, filter models.AuditFilter) ([]models.AuditLog, error) {
	m.lastFilter = filter
	return m.logs, nil
}

func TestAuditHandlerListFilters(t *testing.T) {
	mockRepo := &auditListerMock{logs: []models.AuditLog{{ID: "audit-1", Action: models.AuditActionDocumentStatus}}}
	handler := NewAuditHandler(mockRepo)

	c, w := reviewerContext(t, http.MethodGet, "/audit-logs?action=document_status_change&resource=document", nil)
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DOCUMENT_STATUS_CHANGE", mockRepo.lastFilter.Action)
	assert.Equal(t, "document", mockRepo.lastFilter.Resource)
}
