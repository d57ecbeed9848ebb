package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prakoso-dev/kb-api/internal/dto"
	appErrors "github.com/prakoso-dev/kb-api/pkg/errors"
	"github.com/prakoso-dev/kb-api/pkg/export"
)

type documentLister interface {
	List(ctx context.Context, query dto.DocumentQuery) ([]dto.DocumentDetail, error)
}

// ExportService renders the document register as CSV or PDF.
type ExportService struct {
	documents documentLister
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	maxRows   int
}

// NewExportService constructs the service.
func NewExportService(documents documentLister, maxRows int) *ExportService {
	if maxRows <= 0 {
		maxRows = 2000
	}
	return &ExportService{
		documents: documents,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		maxRows:   maxRows,
	}
}

var registerHeaders = []string{"Title", "Department", "Status", "Version", "Expiry", "Expires At"}

// ExportResult carries rendered bytes plus response metadata.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// DocumentRegister renders all documents matching the query in the
// requested format ("csv" or "pdf").
func (s *ExportService) DocumentRegister(ctx context.Context, format string, query dto.DocumentQuery) (*ExportResult, error) {
	query.Page = 1
	query.PageSize = s.maxRows
	docs, err := s.documents.List(ctx, query)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: registerHeaders, Rows: make([]map[string]string, 0, len(docs))}
	for _, doc := range docs {
		expiresAt := ""
		if doc.ExpiresAt != nil {
			expiresAt = doc.ExpiresAt.Format("2006-01-02")
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Title":      doc.Title,
			"Department": doc.Department,
			"Status":     string(doc.Status),
			"Version":    fmt.Sprintf("%d", doc.CurrentVersion),
			"Expiry":     string(doc.Expiry),
			"Expires At": expiresAt,
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch strings.ToLower(format) {
	case "csv":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("document-register-%s.csv", stamp),
		}, nil
	case "pdf":
		content, err := s.pdf.Render(dataset, "Document Register")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return &ExportResult{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("document-register-%s.pdf", stamp),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}
