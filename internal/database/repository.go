package database

import (
	"time"

	"github.com/actionsum/focuswatch/internal/models"

	"github.com/pkg/errors"

	"gorm.io/gorm"
)

// Repository handles all database operations for journaled heartbeats
type Repository struct {
	db *DB
}

// NewRepository creates a new repository instance
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a heartbeat record
func (r *Repository) Create(record *models.HeartbeatRecord) error {
	result := r.db.Create(record)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert heartbeat")
	}
	return nil
}

// GetAppSummarySince returns window time per app since a given time.
// Only closed intervals carry elapsed time, so open markers and the merge
// grace added to each closing heartbeat count for nothing.
func (r *Repository) GetAppSummarySince(since time.Time) ([]models.AppSummary, error) {
	var summaries []models.AppSummary

	result := r.db.Model(&models.HeartbeatRecord{}).
		Select("app_name, CAST(SUM(elapsed) AS INTEGER) as total_seconds, COUNT(*) as event_count").
		Where("kind = ? AND duration > 0 AND timestamp >= ?", models.KindWindow, since.UTC()).
		Group("app_name").
		Order("total_seconds DESC").
		Scan(&summaries)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "failed to query app summary")
	}

	return summaries, nil
}

// GetLatest retrieves the most recent window heartbeat
func (r *Repository) GetLatest() (*models.HeartbeatRecord, error) {
	var record models.HeartbeatRecord
	result := r.db.Where("kind = ?", models.KindWindow).Order("timestamp DESC, id DESC").First(&record)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(result.Error, "failed to get latest heartbeat")
	}
	return &record, nil
}

// CountUndelivered returns how many heartbeats the sink rejected
func (r *Repository) CountUndelivered() (int64, error) {
	var count int64
	result := r.db.Model(&models.HeartbeatRecord{}).Where("delivered = ?", false).Count(&count)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to count undelivered heartbeats")
	}
	return count, nil
}

// CreateErrorLog inserts a new error log into the database
func (r *Repository) CreateErrorLog(errorLog *models.ErrorLog) error {
	result := r.db.Create(errorLog)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to insert error log")
	}
	return nil
}

// Clear removes all journaled heartbeats and error logs
func (r *Repository) Clear() error {
	if result := r.db.Exec("DELETE FROM heartbeat_records"); result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear heartbeats")
	}
	if result := r.db.Exec("DELETE FROM error_logs"); result.Error != nil {
		return errors.Wrap(result.Error, "failed to clear error logs")
	}
	return nil
}
