package oracleworker

import (
	"time"

	"github.com/sirupsen/logrus"
)

// localDateLayout is the calendar-date key used by the regeneration
// guard. String comparison on this layout matches date ordering.
const localDateLayout = "2006-01-02"

// LocalDateForTimezone formats now as a calendar date in the user's IANA
// timezone. An absent or invalid timezone falls back to UTC, so a user
// without a preference behaves like a UTC user rather than failing.
func LocalDateForTimezone(now time.Time, tz string) string {
	loc := time.UTC
	if tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			logrus.WithField("component", "timezone").
				WithField("timezone", tz).
				Warn("invalid timezone preference, falling back to UTC")
		} else {
			loc = parsed
		}
	}
	return now.In(loc).Format(localDateLayout)
}

// ValidTimezone reports whether tz is a loadable IANA timezone name.
func ValidTimezone(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// NeedsRegeneration decides whether content tagged with a previous local
// date is stale for a user whose local date is now todayLocalDate.
// The comparison is on calendar dates, not timestamps: content from any
// earlier local day is stale the moment the user's own midnight passes,
// regardless of how many hours ago it was generated in server time.
func NeedsRegeneration(previousLocalDate, todayLocalDate string) bool {
	if previousLocalDate == "" {
		return true
	}
	return previousLocalDate < todayLocalDate
}
