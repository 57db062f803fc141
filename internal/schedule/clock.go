package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const minutesPerDay = 24 * 60

// parseClock reads "HH:MM" (or "H:MM") into minutes from midnight.
func parseClock(s string) (int, bool) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, false
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 24 {
		return 0, false
	}
	mins, err := strconv.Atoi(m)
	if err != nil || mins < 0 || mins > 59 {
		return 0, false
	}
	total := hours*60 + mins
	if total > minutesPerDay {
		return 0, false
	}
	return total, true
}

// formatClock renders a minute offset as a 24h wall clock, wrapping past midnight.
func formatClock(minutes int) string {
	m := minutes % minutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// format12h renders a minute offset as "h:mm AM/PM".
func format12h(minutes int) string {
	m := minutes % minutesPerDay
	h := m / 60
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, m%60, suffix)
}

// at returns the instant minutes after midnight of date's calendar day in date's zone.
func at(date time.Time, minutes int) time.Time {
	y, mo, d := date.Date()
	return time.Date(y, mo, d, 0, minutes, 0, 0, date.Location())
}

func startOfDay(t time.Time) time.Time {
	return at(t, 0)
}
