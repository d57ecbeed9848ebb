package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/prakoso-dev/kb-api/internal/models"
)

const knowledgeRequestColumns = `id, requested_by, question, department, status, resolved_by, resolved_at,
       resolution_kind, resolution_document_id, resolution_answer, created_at, updated_at`

// KnowledgeRequestRepository persists knowledge-gap requests. Status moves
// use guarded UPDATEs so concurrent reviewers behave as if serialized per
// request id.
type KnowledgeRequestRepository struct {
	db *sqlx.DB
}

// NewKnowledgeRequestRepository constructs the repository.
func NewKnowledgeRequestRepository(db *sqlx.DB) *KnowledgeRequestRepository {
	return &KnowledgeRequestRepository{db: db}
}

// Create inserts a new request row together with its audit entry.
func (r *KnowledgeRequestRepository) Create(ctx context.Context, request *models.KnowledgeRequest, audit *models.AuditLog) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.RequestStatusNew
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = request.CreatedAt

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create request: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO knowledge_requests
	(id, requested_by, question, department, status, resolved_by, resolved_at, resolution_kind,
	 resolution_document_id, resolution_answer, created_at, updated_at)
	VALUES (:id, :requested_by, :question, :department, :status, :resolved_by, :resolved_at, :resolution_kind,
	 :resolution_document_id, :resolution_answer, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create knowledge request: %w", err)
	}
	if err := createAuditLogTx(ctx, tx, audit); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByID fetches a request by identifier.
func (r *KnowledgeRequestRepository) GetByID(ctx context.Context, id string) (*models.KnowledgeRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM knowledge_requests WHERE id = $1`, knowledgeRequestColumns)
	var request models.KnowledgeRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns requests matching the filter (newest first).
func (r *KnowledgeRequestRepository) List(ctx context.Context, filter models.KnowledgeRequestFilter) ([]models.KnowledgeRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	fmt.Fprintf(&builder, "SELECT %s FROM knowledge_requests", knowledgeRequestColumns)

	conditions := make([]string, 0, 3)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)))
	}
	if filter.RequestedBy != "" {
		args = append(args, filter.RequestedBy)
		conditions = append(conditions, fmt.Sprintf("requested_by = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	fmt.Fprintf(&builder, " LIMIT %d OFFSET %d", limit, offset)

	var requests []models.KnowledgeRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list knowledge requests: %w", err)
	}
	return requests, nil
}

// MarkInReview flips NEW to IN_REVIEW. Returns sql.ErrNoRows when the
// request is missing or not in the NEW status.
func (r *KnowledgeRequestRepository) MarkInReview(ctx context.Context, id string, audit *models.AuditLog) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin mark in review: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE knowledge_requests SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := tx.ExecContext(ctx, query, models.RequestStatusInReview, time.Now().UTC(), id, models.RequestStatusNew)
	if err != nil {
		return fmt.Errorf("mark request in review: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check in-review rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	if err := createAuditLogTx(ctx, tx, audit); err != nil {
		return err
	}
	return tx.Commit()
}

// ResolveParams groups the columns written by a resolution.
type ResolveParams struct {
	ID         string
	ResolvedBy string
	ResolvedAt time.Time
	Resolution models.Resolution
}

// Resolve stamps the resolver, flips the status, and stores the resolution
// value in one commit, guarded against an already-resolved row. Returns
// sql.ErrNoRows when the request is missing or already resolved.
func (r *KnowledgeRequestRepository) Resolve(ctx context.Context, params ResolveParams, audit *models.AuditLog) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin resolve: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `UPDATE knowledge_requests
	SET status = $1, resolved_by = $2, resolved_at = $3, resolution_kind = $4,
	    resolution_document_id = $5, resolution_answer = $6, updated_at = $3
	WHERE id = $7 AND status <> $1`
	result, err := tx.ExecContext(ctx, query,
		models.RequestStatusResolved,
		params.ResolvedBy,
		params.ResolvedAt,
		params.Resolution.Kind,
		params.Resolution.DocumentID,
		params.Resolution.Answer,
		params.ID,
	)
	if err != nil {
		return fmt.Errorf("resolve knowledge request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check resolve rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	if err := createAuditLogTx(ctx, tx, audit); err != nil {
		return err
	}
	return tx.Commit()
}
