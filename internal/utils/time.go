package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	layoutDate     = "2006-01-02"
	layoutDateTime = "2006-01-02 15:04:05"
	layoutUSDate   = "01/02/2006"
)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ParseDate parses YYYY-MM-DD in local timezone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(layoutDate, strings.TrimSpace(s), time.Local)
}

// FormatDateTime formats time to "YYYY-MM-DD HH:MM:SS" in local timezone.
func FormatDateTime(t time.Time) string {
	return t.In(time.Local).Format(layoutDateTime)
}

// SplitDateRange turns "MM/DD/YYYY - MM/DD/YYYY" into [from, to] as YYYY-MM-DD.
func SplitDateRange(raw string) ([2]string, error) {
	var out [2]string
	parts := strings.Split(raw, " - ")
	if len(parts) != 2 {
		return out, fmt.Errorf("date range %q must look like MM/DD/YYYY - MM/DD/YYYY", raw)
	}
	for i, p := range parts {
		d, err := time.ParseInLocation(layoutUSDate, strings.TrimSpace(p), time.Local)
		if err != nil {
			return out, fmt.Errorf("date range %q: %w", raw, err)
		}
		out[i] = d.Format(layoutDate)
	}
	return out, nil
}
