// Package schedule turns weekly opening hours into store status and
// bookable time slots.
package schedule

import (
	"fmt"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
)

// Boundaries are deliberately separate: closing-soon uses <= 60 minutes
// left, today's slot list keeps slots > 30 minutes ahead, and a chosen slot
// is accepted when it is > 29 minutes ahead.
const (
	ClosingSoonWindow = 60 * time.Minute
	TodayLeadTime     = 30 * time.Minute
	MinLeadTime       = 29 * time.Minute
	SlotStep          = 30
)

// Status reports whether the store takes orders of orderType at now.
func Status(cfg *domain.StoreConfig, orderType domain.OrderType, now time.Time) domain.StoreStatus {
	if cfg == nil {
		return closed("Closed")
	}
	if cfg.ManuallyClosed {
		return closed("Temporarily closed")
	}
	if orderType == domain.OrderTypeDelivery && cfg.DeliveryManuallyClosed {
		return closed("Delivery is temporarily unavailable")
	}

	now = now.In(cfg.Location())
	week := cfg.ScheduleFor(orderType)

	if openAt, closeAt, ok := window(week, now); ok && !now.Before(openAt) && now.Before(closeAt) {
		remaining := closeAt.Sub(now)
		if remaining <= ClosingSoonWindow {
			mins := min(max(int(remaining/time.Minute), 0), 60)
			return domain.StoreStatus{
				State:       domain.StateClosingSoon,
				Message:     fmt.Sprintf("Closing in %d min", mins),
				MinutesLeft: mins,
			}
		}
		return domain.StoreStatus{
			State:   domain.StateOpen,
			Message: "Open until " + closeAt.Format("3:04 PM"),
		}
	}

	return nextOpening(week, now)
}

// window returns the opening interval of date's weekday entry, rolling the
// close to the next day when it is not after the open.
func window(week domain.WeeklySchedule, date time.Time) (time.Time, time.Time, bool) {
	day, ok := week[date.Weekday()]
	if !ok || day.Closed {
		return time.Time{}, time.Time{}, false
	}
	openMin, ok1 := parseClock(day.Open)
	closeMin, ok2 := parseClock(day.Close)
	if !ok1 || !ok2 {
		return time.Time{}, time.Time{}, false
	}
	openAt := at(date, openMin)
	closeAt := at(date, closeMin)
	if !closeAt.After(openAt) {
		closeAt = closeAt.AddDate(0, 0, 1)
	}
	return openAt, closeAt, true
}

func nextOpening(week domain.WeeklySchedule, now time.Time) domain.StoreStatus {
	for i := 0; i <= 7; i++ {
		openAt, _, ok := window(week, now.AddDate(0, 0, i))
		if !ok || !openAt.After(now) {
			continue
		}
		msg := "Opens at " + openAt.Format("3:04 PM")
		if i > 0 {
			msg = "Opens " + openAt.Weekday().String() + " at " + openAt.Format("3:04 PM")
		}
		return domain.StoreStatus{State: domain.StateClosed, Message: msg, NextTime: &openAt}
	}
	return closed("Closed")
}

func closed(msg string) domain.StoreStatus {
	return domain.StoreStatus{State: domain.StateClosed, Message: msg}
}
