package sink

import (
	"context"
	"time"
)

// Bucket type tags understood by ActivityWatch
const (
	BucketTypeWindow = "currentwindow"
	BucketTypeAFK    = "afkstatus"
)

// TimestampLayout is RFC3339 with a numeric offset, e.g. 2025-01-02T15:04:05.123+00:00
const TimestampLayout = "2006-01-02T15:04:05.999999999-07:00"

// Event is a heartbeat payload
type Event struct {
	Timestamp time.Time
	Duration  float64 // seconds
	Data      map[string]string

	// Elapsed is the focus time a closing heartbeat covers, without the
	// merge grace folded into Duration. It is never sent to the server.
	Elapsed float64
}

// Sink receives heartbeats
type Sink interface {
	// EnsureBucket creates the bucket if it does not exist yet
	EnsureBucket(ctx context.Context, bucketID, typeTag string) error

	// Heartbeat submits an event, merging with the bucket's last event if
	// both carry the same data and lie within pulsetime seconds
	Heartbeat(ctx context.Context, bucketID string, event Event, pulsetime float64) error
}
