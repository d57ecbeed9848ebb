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

	"github.com/prakoso-dev/kb-api/internal/dto"
	"github.com/prakoso-dev/kb-api/internal/models"
	"github.com/prakoso-dev/kb-api/internal/workflow"
)

func newDocumentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func documentRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "filename", "sensitivity", "department", "document_status", "current_version",
		"notes", "questions_answered", "allow_ai_access", "expires_at", "last_reviewed_at", "last_reviewed_by",
		"created_by", "created_at", "updated_at",
	})
}

func TestDocumentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO documents")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO document_versions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	doc := &models.Document{
		Title:       "Onboarding Handbook",
		Filename:    "onboarding.pdf",
		Sensitivity: models.SensitivityInternal,
		Department:  "People Ops",
		CreatedBy:   "user-1",
	}
	version := &models.DocumentVersion{UploadedBy: "user-1"}
	audit := &models.AuditLog{Action: models.AuditActionDocumentCreate, Resource: "document"}

	require.NoError(t, repo.Create(context.Background(), doc, version, audit))
	require.NotEmpty(t, doc.ID)
	require.Equal(t, workflow.StatusDraft, doc.Status)
	require.Equal(t, 1, doc.CurrentVersion)
	require.Equal(t, doc.ID, version.DocumentID)
	require.Equal(t, 1, version.VersionNumber)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	now := time.Now()
	rows := documentRows().AddRow(
		"doc-1", "Security Policy", "security.pdf", "CONFIDENTIAL", "IT", "APPROVED", 3,
		nil, nil, false, nil, now, "reviewer-1",
		"user-1", now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, filename")).
		WithArgs("doc-1").
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), "doc-1")
	require.NoError(t, err)
	require.Equal(t, "doc-1", found.ID)
	require.Equal(t, workflow.StatusApproved, found.Status)
	require.Equal(t, 3, found.CurrentVersion)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	now := time.Now()
	rows := documentRows().AddRow(
		"doc-2", "Expense Guide", "expenses.pdf", "INTERNAL", "Finance", "IN_REVIEW", 1,
		nil, nil, true, nil, nil, nil,
		"user-2", now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, title, filename")).
		WithArgs("IN_REVIEW", "Finance").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.DocumentFilter{
		Status:     []workflow.DocumentStatus{workflow.StatusInReview},
		Department: "Finance",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "doc-2", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	reviewer := "reviewer-1"
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.UpdateStatus(context.Background(), UpdateStatusParams{
		ID:             "doc-1",
		ExpectedStatus: workflow.StatusInReview,
		NextStatus:     workflow.StatusApproved,
		ReviewedBy:     &reviewer,
		ReviewedAt:     &now,
	}, &models.AuditLog{Action: models.AuditActionDocumentStatus, Resource: "document"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryUpdateStatusGuardConflict(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.UpdateStatus(context.Background(), UpdateStatusParams{
		ID:             "doc-1",
		ExpectedStatus: workflow.StatusDraft,
		NextStatus:     workflow.StatusInReview,
	}, &models.AuditLog{Action: models.AuditActionDocumentStatus, Resource: "document"})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryAppendVersion(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE documents SET current_version = current_version + 1")).
		WillReturnRows(sqlmock.NewRows([]string{"current_version"}).AddRow(4))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO document_versions")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	// The audit row written inside the transaction must record the number
	// the counter bump produced.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs(sqlmock.AnyArg(), nil, models.AuditActionDocumentVersion, "document", nil,
			[]byte(nil), []byte(`{"version_number":4}`), "system", "kb-api", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	version := &models.DocumentVersion{DocumentID: "doc-1", UploadedBy: "user-1"}
	audit := &models.AuditLog{Action: models.AuditActionDocumentVersion, Resource: "document"}
	err := repo.AppendVersion(context.Background(), version, audit)
	require.NoError(t, err)
	require.Equal(t, 4, version.VersionNumber)
	require.NotEmpty(t, version.ID)
	require.JSONEq(t, `{"version_number":4}`, string(audit.NewValues))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryAppendVersionMissingDocument(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE documents SET current_version = current_version + 1")).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.AppendVersion(context.Background(), &models.DocumentVersion{DocumentID: "missing"},
		&models.AuditLog{Action: models.AuditActionDocumentVersion, Resource: "document"})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryUpdateMetadata(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	title := "Revised Title"
	notes := "updated after review"

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET title = $1, notes = $2, updated_at = $3")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.UpdateMetadata(context.Background(), "doc-1",
		dto.DocumentPatch{Title: &title, Notes: &notes},
		&models.AuditLog{Action: models.AuditActionDocumentUpdate, Resource: "document"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE documents SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err = repo.UpdateMetadata(context.Background(), "missing",
		dto.DocumentPatch{Title: &title},
		&models.AuditLog{Action: models.AuditActionDocumentUpdate, Resource: "document"})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentRepositoryCountByStatus(t *testing.T) {
	db, mock, cleanup := newDocumentRepoMock(t)
	defer cleanup()

	repo := NewDocumentRepository(db)
	rows := sqlmock.NewRows([]string{"document_status", "total"}).
		AddRow("DRAFT", 2).
		AddRow("APPROVED", 5)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT document_status, COUNT(*)")).
		WillReturnRows(rows)

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, counts[workflow.StatusDraft])
	require.Equal(t, 5, counts[workflow.StatusApproved])
	require.NoError(t, mock.ExpectationsWereMet())
}
