package utils

import (
	"time"
)

func IsValidDate(dateStr string) bool {
	if dateStr == "" {
		return false
	}

	formats := []string{
		"2006-01-02",
		"2006-01-02T15:04:05Z",
		"2006-01-02T15:04:05-07:00",
		time.RFC3339,
	}

	for _, format := range formats {
		if _, err := time.Parse(format, dateStr); err == nil {
			return true
		}
	}

	return false
}

// DaysBetween returns the whole-day difference between from and to,
// truncating any partial day. Negative when to precedes from.
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
