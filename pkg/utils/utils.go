package utils

import (
	"fmt"
	"time"
)

// FormatRoundedUnit renders d truncated to its largest unit: 45s, 12m, 3h.
func FormatRoundedUnit(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int64(d/time.Second))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int64(d/time.Minute))
	default:
		return fmt.Sprintf("%dh", int64(d/time.Hour))
	}
}
