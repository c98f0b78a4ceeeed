package derive

import (
	"fmt"
	"math"
	"time"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTimestamp(value string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// FormatTimeAgo renders a relative "N min ago" label; unparseable or missing
// timestamps degrade to "unknown".
func FormatTimeAgo(iso *string, now time.Time) string {
	if iso == nil || *iso == "" {
		return "unknown"
	}
	ts, ok := parseTimestamp(*iso)
	if !ok {
		return "unknown"
	}

	diffMin := int(math.Max(0, math.Round(now.Sub(ts).Minutes())))
	if diffMin < 1 {
		return "just now"
	}
	if diffMin < 60 {
		return fmt.Sprintf("%d min ago", diffMin)
	}
	diffHr := int(math.Round(float64(diffMin) / 60))
	if diffHr < 24 {
		return fmt.Sprintf("%d %s ago", diffHr, plural("hr", diffHr))
	}
	diffDay := int(math.Round(float64(diffHr) / 24))
	return fmt.Sprintf("%d %s ago", diffDay, plural("day", diffDay))
}

// FormatClockTime renders a wall-clock label; missing or unparseable
// timestamps degrade to "--:--".
func FormatClockTime(iso *string) string {
	if iso == nil || *iso == "" {
		return "--:--"
	}
	ts, ok := parseTimestamp(*iso)
	if !ok {
		return "--:--"
	}
	return ts.Format("3:04 PM")
}

func plural(unit string, n int) string {
	if n == 1 {
		return unit
	}
	return unit + "s"
}
