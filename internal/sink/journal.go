package sink

import (
	"context"
	"time"

	"github.com/actionsum/focuswatch/internal/database"
	"github.com/actionsum/focuswatch/internal/models"

	"go.uber.org/zap"
)

// Journal records every heartbeat in the local database before handing
// the submission result back to the caller.
type Journal struct {
	next   Sink
	repo   *database.Repository
	logger *zap.Logger
}

// NewJournal wraps next with a local journal
func NewJournal(next Sink, repo *database.Repository, logger *zap.Logger) *Journal {
	return &Journal{
		next:   next,
		repo:   repo,
		logger: logger,
	}
}

func (j *Journal) EnsureBucket(ctx context.Context, bucketID, typeTag string) error {
	err := j.next.EnsureBucket(ctx, bucketID, typeTag)
	if err != nil {
		j.storeError(bucketID, err)
	}
	return err
}

func (j *Journal) Heartbeat(ctx context.Context, bucketID string, event Event, pulsetime float64) error {
	err := j.next.Heartbeat(ctx, bucketID, event, pulsetime)

	record := &models.HeartbeatRecord{
		Timestamp:   event.Timestamp.UTC(),
		Bucket:      bucketID,
		Kind:        models.KindWindow,
		AppName:     event.Data["app"],
		WindowTitle: event.Data["title"],
		Status:      event.Data["status"],
		Duration:    event.Duration,
		Pulsetime:   pulsetime,
		Elapsed:     event.Elapsed,
		Delivered:   err == nil,
	}
	if record.Status != "" {
		record.Kind = models.KindAFK
	}

	if dbErr := j.repo.Create(record); dbErr != nil {
		j.logger.Warn("failed to journal heartbeat", zap.String("bucket", bucketID), zap.Error(dbErr))
	}

	if err != nil {
		j.storeError(bucketID, err)
	}
	return err
}

func (j *Journal) storeError(bucketID string, err error) {
	errorLog := &models.ErrorLog{
		Timestamp: time.Now().UTC(),
		Bucket:    bucketID,
		ErrorMsg:  err.Error(),
	}

	if dbErr := j.repo.CreateErrorLog(errorLog); dbErr != nil {
		j.logger.Warn("failed to store error in journal",
			zap.Error(dbErr),
			zap.NamedError("original", err))
	}
}
