package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/autohub-api/internal/models"
	appErrors "github.com/noah-isme/autohub-api/pkg/errors"
	"github.com/noah-isme/autohub-api/pkg/export"
)

const maxLedgerExportRows = 10000

type ledgerReader interface {
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type certificateRenderer interface {
	Render(doc export.Certificate) ([]byte, error)
}

// ExportService renders the activity ledger and inspection certificates.
type ExportService struct {
	ledger  ledgerReader
	records recordReader
	csv     csvRenderer
	pdf     certificateRenderer
	policy  VisibilityPolicy
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs the service.
func NewExportService(ledger ledgerReader, records recordReader, csv csvRenderer, pdf certificateRenderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{ledger: ledger, records: records, csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// ActivityCSV renders the ledger, most recent first.
func (s *ExportService) ActivityCSV(ctx context.Context) ([]byte, string, error) {
	entries, _, err := s.ledger.List(ctx, models.ActivityFilter{Limit: maxLedgerExportRows})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity logs")
	}
	data := export.Dataset{Headers: []string{"timestamp", "user_id", "username", "action", "details"}}
	for _, e := range entries {
		data.Rows = append(data.Rows, []string{e.CreatedAt.UTC().Format(time.RFC3339), e.UserID, e.Username, string(e.Action), e.Details})
	}
	out, err := s.csv.Render(data)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render activity export")
	}
	return out, fmt.Sprintf("activity-logs-%s.csv", s.now().UTC().Format("20060102-150405")), nil
}

// Certificate renders the public view of a record as PDF. Status and
// inspector id never appear on it.
func (s *ExportService) Certificate(ctx context.Context, recordID string) ([]byte, string, error) {
	record, err := loadRecordFrom(ctx, s.records, recordID)
	if err != nil {
		return nil, "", err
	}
	view := s.policy.PublicView(*record)
	doc := export.Certificate{
		Title:    "Vehicle inspection certificate",
		Subtitle: fmt.Sprintf("Certificate %s", view.ID),
		Fields: []export.Field{
			{Label: "Brand", Value: view.Brand},
			{Label: "Type", Value: view.Type},
			{Label: "Model", Value: view.Model},
			{Label: "Color", Value: view.Color},
			{Label: "Chassis number", Value: view.ChassisNumber},
			{Label: "Mileage", Value: fmt.Sprintf("%d km", view.Mileage)},
			{Label: "Inspector", Value: view.InspectorName},
			{Label: "Inspection date", Value: view.InspectedAt.UTC().Format("2006-01-02 15:04 MST")},
			{Label: "Notes", Value: view.Notes},
		},
		Footer: fmt.Sprintf("Generated %s", s.now().UTC().Format(time.RFC3339)),
	}
	out, err := s.pdf.Render(doc)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}
	return out, fmt.Sprintf("inspection-%s.pdf", view.ChassisNumber), nil
}
