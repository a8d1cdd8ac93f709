package captions

import (
	"fmt"
	"math"
	"time"
)

// formatClock renders seconds as HH:MM:SS<sep>mmm, the shared shape of the
// WebVTT and SRT timestamp formats.
func formatClock(seconds float64, sep string) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(math.Round(seconds * 1000)) * time.Millisecond
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	ms := int(d % time.Second / time.Millisecond)
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", h, m, s, sep, ms)
}

// formatShort renders seconds as MM:SS for transcript listings.
func formatShort(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(math.Round(seconds))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
