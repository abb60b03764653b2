package domain

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"1/2/2006",
}

// ParseDate parses the date formats upstream systems send. The result is
// truncated to a UTC calendar day.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendarDay(t), true
		}
	}
	return time.Time{}, false
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateSource records which input an effective date came from.
type DateSource string

const (
	DateFromSpecific    DateSource = "type_specific"
	DateFromTransaction DateSource = "transaction_date"
	DateFromClock       DateSource = "current_date"
)

// ResolveEffectiveDate prefers the type-specific date, then the generic
// transaction date, then now. Malformed inputs fall through to the next tier.
func ResolveEffectiveDate(specific, transactionDate string, now time.Time) (time.Time, DateSource) {
	if t, ok := ParseDate(specific); ok {
		return t, DateFromSpecific
	}
	if t, ok := ParseDate(transactionDate); ok {
		return t, DateFromTransaction
	}
	return calendarDay(now), DateFromClock
}

// FormatDate renders a calendar day the way results report it.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
