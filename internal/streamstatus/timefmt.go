package streamstatus

import (
	"fmt"
	"strings"
	"time"
)

// DateTBD is returned by FormatDate when the input cannot be interpreted.
const DateTBD = "Date TBD"

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTime accepts the timestamp shapes the stream API is known to send.
// Zone-less values are taken as UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Countdown formats the time left until startISO as the two coarsest units,
// skipping leading zero units: "2d 5h", "3h 12m", "4m 30s" or "45s".
// Partial seconds count as a full second. It returns "" for missing,
// unparseable or past start times. The caller is expected to re-run it on its
// own ticker.
func Countdown(startISO string, now time.Time) string {
	start, ok := ParseTime(startISO)
	if !ok {
		return ""
	}
	return formatRemaining(start.Sub(now))
}

// formatRemaining rounds d up to whole seconds, so every instant within one
// second of the countdown renders the same string.
func formatRemaining(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	total := int64((d + time.Second - 1) / time.Second)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// FormatDate renders dateISO relative to now. Day buckets are calendar days
// in now's location.
func FormatDate(dateISO string, now time.Time) string {
	t, ok := ParseTime(dateISO)
	if !ok {
		return DateTBD
	}
	t = t.In(now.Location())
	clock := t.Format("15:04")

	switch days := calendarDays(now, t); {
	case days == 0:
		return "Today at " + clock
	case days == 1:
		return "Tomorrow at " + clock
	case days == -1:
		return "Yesterday at " + clock
	case days > 1 && days < 7, days < -1 && days > -7:
		return t.Weekday().String() + " at " + clock
	default:
		return t.Format("Jan 2, 2006") + " at " + clock
	}
}

// calendarDays is the number of midnights between a and b.
func calendarDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
