package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/jakim54/cii-best-practices-badge/pkg/detective"
)

// FmtDuration formats a duration as "Xm Ys", "Ys" or, below one second,
// whole milliseconds.
func FmtDuration(d time.Duration) string {
	if d > 0 && d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	s := int(d.Seconds())
	if s >= 60 {
		return fmt.Sprintf("%dm %ds", s/60, s%60)
	}
	return fmt.Sprintf("%ds", s)
}

// Truncate shortens s to maxLen characters, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// BoolMark returns "✓" for true and "✗" for false.
func BoolMark(v bool) string {
	if v {
		return "✓"
	}
	return "✗"
}

// Stars renders a confidence as filled and empty marks, e.g. "●●●○○".
func Stars(c detective.Confidence) string {
	if !c.Valid() {
		return fmt.Sprintf("%d?", int(c))
	}
	return strings.Repeat("●", int(c)) + strings.Repeat("○", int(detective.MaxConfidence-c))
}

// Names joins attribute names with ", ", or "-" when empty.
func Names(ns []detective.Name) string {
	if len(ns) == 0 {
		return "-"
	}
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}
