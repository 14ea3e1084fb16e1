package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"gorm.io/datatypes"

	"github.com/hieuntrw/hlr-sub001/engine"
	"github.com/hieuntrw/hlr-sub001/logger"
	"github.com/hieuntrw/hlr-sub001/models"
)

// ReportRepository persists batch runs.
type ReportRepository interface {
	SaveBatchRun(ctx context.Context, run *models.BatchRun) error
	GetBatchRun(ctx context.Context, id string) (*models.BatchRun, error)
}

// Uploader stores report documents in object storage.
type Uploader interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// ReportService keeps an audit trail of every batch: a row per run, plus a JSON document
// in the bucket when one is configured.
type ReportService struct {
	repo     ReportRepository
	uploader Uploader
}

// NewReportService accepts a nil uploader when object storage is not configured.
func NewReportService(repo ReportRepository, uploader Uploader) *ReportService {
	return &ReportService{repo: repo, uploader: uploader}
}

var _ BatchRecorder = (*ReportService)(nil)

// ReportKey is the object key of a batch report.
func ReportKey(summary *engine.BatchSummary) string {
	name := summary.TargetTitle
	if name == "" {
		name = summary.TargetID
	}
	s := slug.Make(name)
	if s == "" {
		s = "untitled"
	}
	return fmt.Sprintf("reports/%s/%s/%s.json", summary.Kind, s, summary.BatchID)
}

// Record persists the summary. Failures are logged, never returned.
func (s *ReportService) Record(ctx context.Context, summary *engine.BatchSummary) {
	log := logger.With("batch_id", summary.BatchID, "kind", string(summary.Kind), "target_id", summary.TargetID)

	body, err := json.Marshal(summary)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode batch summary")
		return
	}

	run := &models.BatchRun{
		ID:          summary.BatchID,
		Kind:        string(summary.Kind),
		TargetID:    summary.TargetID,
		TargetTitle: summary.TargetTitle,
		Skipped:     summary.Skipped,
		Incomplete:  summary.Incomplete,
		Succeeded:   summary.Succeeded(),
		Failed:      summary.Failed(),
		Summary:     datatypes.JSON(body),
		StartedAt:   summary.StartedAt,
		FinishedAt:  summary.FinishedAt,
	}

	if s.uploader != nil && !summary.Skipped {
		key := ReportKey(summary)
		url, err := s.uploader.Upload(ctx, key, body, "application/json")
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("failed to upload batch report")
		} else {
			run.ReportKey = &key
			run.ReportURL = &url
		}
	}

	if err := s.repo.SaveBatchRun(ctx, run); err != nil {
		log.Error().Err(err).Msg("failed to save batch run")
		return
	}
	log.Debug().Int("failed", run.Failed).Msg("batch run recorded")
}

// GetBatch: GET /admin/batches/:id
func (s *ReportService) GetBatch(c *fiber.Ctx) error {
	run, err := s.repo.GetBatchRun(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(run)
}
