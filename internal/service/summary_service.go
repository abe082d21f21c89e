package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/autohub-api/internal/models"
	appErrors "github.com/noah-isme/autohub-api/pkg/errors"
	"github.com/noah-isme/autohub-api/pkg/jobs"
	"github.com/noah-isme/autohub-api/pkg/summarizer"
)

const summaryJobType = "record_summary"

// Summarizer produces descriptive text for a record.
type Summarizer interface {
	Summarize(ctx context.Context, record models.InspectionRecord) (string, error)
}

// HTTPSummarizer adapts the HTTP summarizer client.
type HTTPSummarizer struct {
	client *summarizer.Client
}

// NewHTTPSummarizer wraps client.
func NewHTTPSummarizer(client *summarizer.Client) *HTTPSummarizer {
	return &HTTPSummarizer{client: client}
}

// Summarize implements Summarizer.
func (h *HTTPSummarizer) Summarize(ctx context.Context, record models.InspectionRecord) (string, error) {
	return h.client.Summarize(ctx, summarizer.Vehicle{
		Brand:         record.Brand,
		Type:          record.Type,
		Model:         record.Model,
		Color:         record.Color,
		ChassisNumber: record.ChassisNumber,
		Mileage:       record.Mileage,
		Notes:         record.Notes,
	})
}

type jobQueue interface {
	Enqueue(job jobs.Job) error
}

// SummaryTicket acknowledges a queued summary.
type SummaryTicket struct {
	JobID    string `json:"job_id"`
	RecordID string `json:"record_id"`
	Status   string `json:"status"`
}

// SummaryService requests summaries asynchronously and caches results per
// record. Summaries never touch record state.
type SummaryService struct {
	records    recordReader
	summarizer Summarizer
	cache      *CacheService
	queue      jobQueue
	metrics    *MetricsService
	logger     *zap.Logger
	ttl        time.Duration
	now        func() time.Time
}

// NewSummaryService constructs the service. summarizer may be nil when no
// collaborator is configured.
func NewSummaryService(records recordReader, s Summarizer, cache *CacheService, metrics *MetricsService, logger *zap.Logger, ttl time.Duration) *SummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SummaryService{records: records, summarizer: s, cache: cache, metrics: metrics, logger: logger, ttl: ttl, now: time.Now}
}

// UseQueue attaches the worker queue whose handler is Process.
func (s *SummaryService) UseQueue(q jobQueue) {
	s.queue = q
}

// RequestSummary enqueues a summary job and returns immediately.
func (s *SummaryService) RequestSummary(ctx context.Context, recordID string) (*SummaryTicket, error) {
	if s.summarizer == nil || s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "summarizer is not configured")
	}
	if _, err := loadRecordFrom(ctx, s.records, recordID); err != nil {
		return nil, err
	}
	job := jobs.Job{ID: uuid.NewString(), Type: summaryJobType, Payload: recordID}
	if err := s.queue.Enqueue(job); err != nil {
		s.metrics.RecordSummaryJob("dropped")
		return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "summary queue unavailable")
	}
	return &SummaryTicket{JobID: job.ID, RecordID: recordID, Status: "queued"}, nil
}

// Process is the queue handler.
func (s *SummaryService) Process(ctx context.Context, job jobs.Job) error {
	recordID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("summary job %s: unexpected payload %T", job.ID, job.Payload)
	}
	record, err := loadRecordFrom(ctx, s.records, recordID)
	if err != nil {
		s.metrics.RecordSummaryJob("failed")
		return err
	}
	text, err := s.summarizer.Summarize(ctx, *record)
	if err != nil {
		s.metrics.RecordSummaryJob("failed")
		return fmt.Errorf("summarize record %s: %w", recordID, err)
	}
	summary := models.RecordSummary{RecordID: recordID, Text: text, GeneratedAt: s.now().UTC()}
	if err := s.cache.Set(ctx, summaryCacheKey(recordID), summary, s.ttl); err != nil {
		s.metrics.RecordSummaryJob("failed")
		return err
	}
	s.metrics.RecordSummaryJob("succeeded")
	s.logger.Debug("summary cached", zap.String("record_id", recordID))
	return nil
}

// GetSummary returns the cached summary for the record.
func (s *SummaryService) GetSummary(ctx context.Context, recordID string) (*models.RecordSummary, error) {
	var summary models.RecordSummary
	hit, err := s.cache.Get(ctx, summaryCacheKey(recordID), &summary)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read summary")
	}
	if !hit {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "summary not available")
	}
	return &summary, nil
}

// Invalidate drops the cached summary of a record.
func (s *SummaryService) Invalidate(ctx context.Context, recordID string) error {
	return s.cache.Invalidate(ctx, summaryCacheKey(recordID))
}

func summaryCacheKey(recordID string) string {
	return "summary:record:" + recordID
}
