package models

import (
	"time"

	"gorm.io/gorm"
)

// Heartbeat kinds
const (
	KindWindow = "window"
	KindAFK    = "afk"
)

// HeartbeatRecord is a journaled heartbeat as submitted to ActivityWatch
type HeartbeatRecord struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Timestamp   time.Time      `gorm:"not null;index" json:"timestamp"`
	Bucket      string         `gorm:"not null;index" json:"bucket"`
	Kind        string         `gorm:"not null;index" json:"kind"` // "window" or "afk"
	AppName     string         `gorm:"index" json:"app_name"`
	WindowTitle string         `json:"window_title"`
	Status      string         `json:"status"`
	Duration    float64        `gorm:"not null;default:0" json:"duration"`  // Duration in seconds
	Pulsetime   float64        `gorm:"not null;default:0" json:"pulsetime"` // Merge window in seconds
	Elapsed     float64        `gorm:"not null;default:0" json:"elapsed"`   // Focus time covered, in seconds
	Delivered   bool           `gorm:"not null;default:false" json:"delivered"`
	CreatedAt   time.Time      `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
