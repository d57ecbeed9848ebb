package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prakoso-dev/kb-api/internal/dto"
	"github.com/prakoso-dev/kb-api/internal/models"
	appErrors "github.com/prakoso-dev/kb-api/pkg/errors"
)

type knowledgeRequestServiceMock struct {
	request     *models.KnowledgeRequest
	err         error
	lastResolve dto.ResolveRequest
	lastQuery   dto.KnowledgeRequestQuery
	lastActor   *models.JWTClaims
}

func (m *knowledgeRequestServiceMock) Submit(ctx context.Context, req dto.CreateKnowledgeRequest, actorID string) (*models.KnowledgeRequest, error) {
	return m.request, m.err
}

func (m *knowledgeRequestServiceMock) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.KnowledgeRequest, error) {
	m.lastActor = actor
	return m.request, m.err
}

func (m *knowledgeRequestServiceMock) List(ctx context.Context, query dto.KnowledgeRequestQuery, actor *models.JWTClaims) ([]models.KnowledgeRequest, error) {
	m.lastQuery = query
	m.lastActor = actor
	if m.request != nil {
		return []models.KnowledgeRequest{*m.request}, m.err
	}
	return nil, m.err
}

func (m *knowledgeRequestServiceMock) MarkInReview(ctx context.Context, id, reviewerID string) (*models.KnowledgeRequest, error) {
	return m.request, m.err
}

func (m *knowledgeRequestServiceMock) Resolve(ctx context.Context, id string, req dto.ResolveRequest, resolverID string) (*models.KnowledgeRequest, error) {
	m.lastResolve = req
	return m.request, m.err
}

func TestKnowledgeRequestHandlerCreate(t *testing.T) {
	mockSvc := &knowledgeRequestServiceMock{
		request: &models.KnowledgeRequest{ID: "req-1", Status: models.RequestStatusNew},
	}
	handler := NewKnowledgeRequestHandler(mockSvc)

	payload, _ := json.Marshal(dto.CreateKnowledgeRequest{Question: "Where is the travel policy?"})
	c, w := reviewerContext(t, http.MethodPost, "/knowledge-requests", payload)

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestKnowledgeRequestHandlerListParsesStatuses(t *testing.T) {
	mockSvc := &knowledgeRequestServiceMock{}
	handler := NewKnowledgeRequestHandler(mockSvc)
	c, w := reviewerContext(t, http.MethodGet, "/knowledge-requests?status=new,in_review", nil)

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.RequestStatus{models.RequestStatusNew, models.RequestStatusInReview}, mockSvc.lastQuery.Status)
	require.NotNil(t, mockSvc.lastActor)
	assert.Equal(t, "reviewer-1", mockSvc.lastActor.UserID)
}

func TestKnowledgeRequestHandlerMarkInReviewConflict(t *testing.T) {
	mockSvc := &knowledgeRequestServiceMock{err: appErrors.ErrInvalidTransition}
	handler := NewKnowledgeRequestHandler(mockSvc)

	c, w := reviewerContext(t, http.MethodPost, "/knowledge-requests/req-1/review", nil)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}

	handler.MarkInReview(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestKnowledgeRequestHandlerResolveUppercasesKind(t *testing.T) {
	mockSvc := &knowledgeRequestServiceMock{
		request: &models.KnowledgeRequest{ID: "req-1", Status: models.RequestStatusResolved},
	}
	handler := NewKnowledgeRequestHandler(mockSvc)

	c, w := reviewerContext(t, http.MethodPost, "/knowledge-requests/req-1/resolve",
		[]byte(`{"kind":"written_answer","answer":"use the intranet"}`))
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}

	handler.Resolve(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ResolutionWrittenAnswer, mockSvc.lastResolve.Kind)
	assert.Equal(t, "use the intranet", mockSvc.lastResolve.Answer)
}

func TestKnowledgeRequestHandlerResolveAlreadyResolved(t *testing.T) {
	mockSvc := &knowledgeRequestServiceMock{err: appErrors.ErrAlreadyResolved}
	handler := NewKnowledgeRequestHandler(mockSvc)

	c, w := reviewerContext(t, http.MethodPost, "/knowledge-requests/req-1/resolve",
		[]byte(`{"kind":"LINKED_DOCUMENT","document_id":"doc-1"}`))
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}

	handler.Resolve(c)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestKnowledgeRequestHandlerResolveInvalidTarget(t *testing.T) {
	mockSvc := &knowledgeRequestServiceMock{err: appErrors.ErrInvalidTarget}
	handler := NewKnowledgeRequestHandler(mockSvc)

	c, w := reviewerContext(t, http.MethodPost, "/knowledge-requests/req-1/resolve",
		[]byte(`{"kind":"LINKED_DOCUMENT","document_id":"doc-draft"}`))
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}

	handler.Resolve(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
