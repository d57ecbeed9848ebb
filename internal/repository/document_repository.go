package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prakoso-dev/kb-api/internal/dto"
	"github.com/prakoso-dev/kb-api/internal/models"
	"github.com/prakoso-dev/kb-api/internal/workflow"
)

const documentColumns = `id, title, filename, sensitivity, department, document_status, current_version,
       notes, questions_answered, allow_ai_access, expires_at, last_reviewed_at, last_reviewed_by,
       created_by, created_at, updated_at`

// DocumentRepository persists documents and their version history. Every
// workflow mutation commits together with its audit entry in one
// transaction; guarded UPDATE clauses give per-document serial ordering.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs the repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts a draft document together with its initial version row.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document, version *models.DocumentVersion, audit *models.AuditLog) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = doc.CreatedAt
	if doc.Status == "" {
		doc.Status = workflow.StatusDraft
	}
	if doc.CurrentVersion == 0 {
		doc.CurrentVersion = 1
	}

	version.ID = uuid.NewString()
	version.DocumentID = doc.ID
	version.VersionNumber = doc.CurrentVersion
	if version.CreatedAt.IsZero() {
		version.CreatedAt = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create document: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertDoc = `INSERT INTO documents
	(id, title, filename, sensitivity, department, document_status, current_version, notes, questions_answered,
	 allow_ai_access, expires_at, last_reviewed_at, last_reviewed_by, created_by, created_at, updated_at)
	VALUES (:id, :title, :filename, :sensitivity, :department, :document_status, :current_version, :notes, :questions_answered,
	 :allow_ai_access, :expires_at, :last_reviewed_at, :last_reviewed_by, :created_by, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertDoc, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	if err := insertVersionTx(ctx, tx, version); err != nil {
		return err
	}
	if err := createAuditLogTx(ctx, tx, audit); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID fetches a document by identifier.
func (r *DocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE id = $1`, documentColumns)
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		return nil, err
	}
	return &doc, nil
}

// List returns documents matching the filter (newest first).
func (r *DocumentRepository) List(ctx context.Context, filter models.DocumentFilter) ([]models.Document, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	fmt.Fprintf(&builder, "SELECT %s FROM documents", documentColumns)

	conditions := make([]string, 0, 3)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("document_status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, fmt.Sprintf("title ILIKE $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY updated_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	fmt.Fprintf(&builder, " LIMIT %d OFFSET %d", limit, offset)

	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// ListVersions returns the append-only version history, oldest first.
func (r *DocumentRepository) ListVersions(ctx context.Context, documentID string) ([]models.DocumentVersion, error) {
	const query = `SELECT id, document_id, version_number, uploaded_by, notes, created_at
	FROM document_versions WHERE document_id = $1 ORDER BY version_number ASC`
	var versions []models.DocumentVersion
	if err := r.db.SelectContext(ctx, &versions, query, documentID); err != nil {
		return nil, fmt.Errorf("list document versions: %w", err)
	}
	return versions, nil
}

// UpdateStatusParams groups the columns written by a status transition.
type UpdateStatusParams struct {
	ID             string
	ExpectedStatus workflow.DocumentStatus
	NextStatus     workflow.DocumentStatus
	ReviewedBy     *string
	ReviewedAt     *time.Time
}

// UpdateStatus persists a transition guarded by the expected current
// status, together with its audit entry. Returns sql.ErrNoRows when the
// document is missing or has already moved.
func (r *DocumentRepository) UpdateStatus(ctx context.Context, params UpdateStatusParams, audit *models.AuditLog) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	setParts := []string{"document_status = $1", "updated_at = $2"}
	args := []interface{}{params.NextStatus, time.Now().UTC()}
	if params.ReviewedBy != nil {
		args = append(args, *params.ReviewedBy)
		setParts = append(setParts, fmt.Sprintf("last_reviewed_by = $%d", len(args)))
	}
	if params.ReviewedAt != nil {
		args = append(args, *params.ReviewedAt)
		setParts = append(setParts, fmt.Sprintf("last_reviewed_at = $%d", len(args)))
	}
	args = append(args, params.ID, params.ExpectedStatus)
	query := fmt.Sprintf("UPDATE documents SET %s WHERE id = $%d AND document_status = $%d",
		strings.Join(setParts, ", "), len(args)-1, len(args))

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update document status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check status update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	if err := createAuditLogTx(ctx, tx, audit); err != nil {
		return err
	}
	return tx.Commit()
}

// AppendVersion bumps the version counter and inserts the matching version
// row in one transaction. The counter UPDATE takes the row lock first, so
// concurrent uploads serialize and numbering stays gapless.
func (r *DocumentRepository) AppendVersion(ctx context.Context, version *models.DocumentVersion, audit *models.AuditLog) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin version append: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const bump = `UPDATE documents SET current_version = current_version + 1, updated_at = $1
	WHERE id = $2 RETURNING current_version`
	var next int
	if err := tx.GetContext(ctx, &next, bump, time.Now().UTC(), version.DocumentID); err != nil {
		return err
	}

	version.ID = uuid.NewString()
	version.VersionNumber = next
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now().UTC()
	}
	if err := insertVersionTx(ctx, tx, version); err != nil {
		return err
	}
	if audit != nil {
		payload, _ := json.Marshal(map[string]interface{}{"version_number": next})
		audit.NewValues = payload
	}
	if err := createAuditLogTx(ctx, tx, audit); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateMetadata applies the whitelisted patch atomically. Returns
// sql.ErrNoRows when the document does not exist.
func (r *DocumentRepository) UpdateMetadata(ctx context.Context, id string, patch dto.DocumentPatch, audit *models.AuditLog) error {
	setParts := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)

	appendSet := func(column string, value interface{}) {
		args = append(args, value)
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Title != nil {
		appendSet("title", *patch.Title)
	}
	if patch.Department != nil {
		appendSet("department", *patch.Department)
	}
	if patch.Notes != nil {
		appendSet("notes", *patch.Notes)
	}
	if patch.QuestionsAnswered != nil {
		appendSet("questions_answered", *patch.QuestionsAnswered)
	}
	if patch.AllowAIAccess != nil {
		appendSet("allow_ai_access", *patch.AllowAIAccess)
	}
	appendSet("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE documents SET %s WHERE id = $%d", strings.Join(setParts, ", "), len(args))

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin metadata update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update document metadata: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check metadata update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	if err := createAuditLogTx(ctx, tx, audit); err != nil {
		return err
	}
	return tx.Commit()
}

// CountByStatus returns document totals grouped by status.
func (r *DocumentRepository) CountByStatus(ctx context.Context) (map[workflow.DocumentStatus]int, error) {
	const query = `SELECT document_status, COUNT(*) AS total FROM documents GROUP BY document_status`
	rows := []struct {
		Status workflow.DocumentStatus `db:"document_status"`
		Total  int                     `db:"total"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count documents by status: %w", err)
	}
	counts := make(map[workflow.DocumentStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

// ListExpiries returns the expiry timestamps of non-deprecated documents.
func (r *DocumentRepository) ListExpiries(ctx context.Context) ([]*time.Time, error) {
	const query = `SELECT expires_at FROM documents WHERE document_status <> $1`
	var expiries []*time.Time
	if err := r.db.SelectContext(ctx, &expiries, query, workflow.StatusDeprecated); err != nil {
		return nil, fmt.Errorf("list document expiries: %w", err)
	}
	return expiries, nil
}

func insertVersionTx(ctx context.Context, tx *sqlx.Tx, version *models.DocumentVersion) error {
	const query = `INSERT INTO document_versions (id, document_id, version_number, uploaded_by, notes, created_at)
	VALUES (:id, :document_id, :version_number, :uploaded_by, :notes, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, version); err != nil {
		return fmt.Errorf("insert document version: %w", err)
	}
	return nil
}
