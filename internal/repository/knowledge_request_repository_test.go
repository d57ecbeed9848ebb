package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/prakoso-dev/kb-api/internal/models"
)

func newRequestRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestKnowledgeRequestRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewKnowledgeRequestRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO knowledge_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	request := &models.KnowledgeRequest{
		RequestedBy: "user-1",
		Question:    "Where is the VPN setup guide?",
	}
	require.NoError(t, repo.Create(context.Background(), request,
		&models.AuditLog{Action: models.AuditActionRequestCreate, Resource: "knowledge_request"}))
	require.NotEmpty(t, request.ID)
	require.Equal(t, models.RequestStatusNew, request.Status)

	rows := sqlmock.NewRows([]string{
		"id", "requested_by", "question", "department", "status", "resolved_by", "resolved_at",
		"resolution_kind", "resolution_document_id", "resolution_answer", "created_at", "updated_at",
	}).AddRow(request.ID, "user-1", request.Question, nil, "NEW", nil, nil, nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, requested_by, question")).
		WithArgs(request.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, request.ID, found.ID)
	require.Nil(t, found.ResolutionKind)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKnowledgeRequestRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewKnowledgeRequestRepository(db)
	rows := sqlmock.NewRows([]string{
		"id", "requested_by", "question", "department", "status", "resolved_by", "resolved_at",
		"resolution_kind", "resolution_document_id", "resolution_answer", "created_at", "updated_at",
	}).AddRow("req-1", "user-2", "How do I request hardware?", nil, "NEW", nil, nil, nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, requested_by, question")).
		WithArgs("NEW", "user-2").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.KnowledgeRequestFilter{
		Status:      []models.RequestStatus{models.RequestStatusNew},
		RequestedBy: "user-2",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "req-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKnowledgeRequestRepositoryMarkInReview(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewKnowledgeRequestRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE knowledge_requests SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.MarkInReview(context.Background(), "req-1",
		&models.AuditLog{Action: models.AuditActionRequestInReview, Resource: "knowledge_request"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE knowledge_requests SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = repo.MarkInReview(context.Background(), "req-1",
		&models.AuditLog{Action: models.AuditActionRequestInReview, Resource: "knowledge_request"})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKnowledgeRequestRepositoryResolve(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewKnowledgeRequestRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE knowledge_requests")).
		WithArgs("RESOLVED", "reviewer-1", now, "LINKED_DOCUMENT", "doc-1", nil, "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.Resolve(context.Background(), ResolveParams{
		ID:         "req-1",
		ResolvedBy: "reviewer-1",
		ResolvedAt: now,
		Resolution: models.LinkedDocumentResolution("doc-1"),
	}, &models.AuditLog{Action: models.AuditActionRequestResolve, Resource: "knowledge_request"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestKnowledgeRequestRepositoryResolveAlreadyResolved(t *testing.T) {
	db, mock, cleanup := newRequestRepoMock(t)
	defer cleanup()

	repo := NewKnowledgeRequestRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE knowledge_requests")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Resolve(context.Background(), ResolveParams{
		ID:         "req-1",
		ResolvedBy: "reviewer-1",
		ResolvedAt: time.Now().UTC(),
		Resolution: models.WrittenAnswerResolution("use the wiki"),
	}, &models.AuditLog{Action: models.AuditActionRequestResolve, Resource: "knowledge_request"})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
