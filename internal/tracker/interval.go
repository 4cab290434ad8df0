package tracker

import (
	"time"

	"github.com/actionsum/focuswatch/internal/sink"
)

const (
	// MergeGrace extends a closed interval past the next event so that
	// back-to-back notifications merge into one continuous interval.
	MergeGrace = time.Second

	// AFKPulse is the merge window for not-afk heartbeats.
	AFKPulse = 120 * time.Second

	StatusNotAFK = "not-afk"
)

// Interval is the window believed to hold focus and when that focus began
type Interval struct {
	Start   time.Time
	AppName string
	Title   string
}

func (i Interval) data() map[string]string {
	return map[string]string{
		"app":   i.AppName,
		"title": i.Title,
	}
}

// Open returns the zero-duration heartbeat that marks the interval as current.
func (i Interval) Open() sink.Event {
	return sink.Event{
		Timestamp: i.Start,
		Duration:  0,
		Data:      i.data(),
	}
}

// Close returns the heartbeat that ends the interval at now. Its duration,
// also used as the pulsetime, is the elapsed time plus MergeGrace.
func (i Interval) Close(now time.Time) sink.Event {
	elapsedMillis := now.UnixMilli() - i.Start.UnixMilli()
	pulseMillis := elapsedMillis + MergeGrace.Milliseconds()
	return sink.Event{
		Timestamp: now,
		Duration:  float64(pulseMillis) / 1000,
		Data:      i.data(),
		Elapsed:   float64(elapsedMillis) / 1000,
	}
}

func notAFK(now time.Time) sink.Event {
	return sink.Event{
		Timestamp: now,
		Data:      map[string]string{"status": StatusNotAFK},
	}
}
