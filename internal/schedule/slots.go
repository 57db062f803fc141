package schedule

import (
	"time"

	"github.com/fjod/go_storefront/internal/domain"
)

var (
	ErrSlotTooSoon = domain.NewValidationError("selected time is too soon, pick a later slot")
	ErrInvalidDay  = domain.NewValidationError("day must be today or tomorrow")
)

// GenerateSlots lists every 30-minute slot from open up to, but not
// including, close. A close at or before open means the day runs past midnight.
func GenerateSlots(day domain.DaySchedule) []domain.TimeSlot {
	if day.Closed {
		return nil
	}
	openMin, ok1 := parseClock(day.Open)
	closeMin, ok2 := parseClock(day.Close)
	if !ok1 || !ok2 {
		return nil
	}
	if closeMin <= openMin {
		closeMin += minutesPerDay
	}

	slots := make([]domain.TimeSlot, 0, (closeMin-openMin)/SlotStep+1)
	for m := openMin; m < closeMin; m += SlotStep {
		slots = append(slots, domain.TimeSlot{Time: formatClock(m), Minutes: m})
	}
	return slots
}

// DayDate returns midnight of the chosen day relative to now.
func DayDate(day domain.Day, now time.Time) (time.Time, error) {
	switch day {
	case domain.DayToday:
		return startOfDay(now), nil
	case domain.DayTomorrow:
		return startOfDay(now).AddDate(0, 0, 1), nil
	default:
		return time.Time{}, ErrInvalidDay
	}
}

// SlotTime is the absolute instant of slot on date.
func SlotTime(date time.Time, slot domain.TimeSlot) time.Time {
	return at(date, slot.Minutes)
}

// AvailableSlots lists the slots of the chosen day for orderType. Today's
// list only keeps slots more than 30 minutes after now.
func AvailableSlots(cfg *domain.StoreConfig, orderType domain.OrderType, day domain.Day, now time.Time) ([]domain.TimeSlot, error) {
	if cfg == nil {
		return nil, nil
	}
	now = now.In(cfg.Location())
	date, err := DayDate(day, now)
	if err != nil {
		return nil, err
	}

	slots := GenerateSlots(cfg.ScheduleFor(orderType)[date.Weekday()])
	if day != domain.DayToday {
		return slots, nil
	}

	ahead := slots[:0]
	for _, s := range slots {
		if SlotTime(date, s).Sub(now) > TodayLeadTime {
			ahead = append(ahead, s)
		}
	}
	return ahead, nil
}

// ValidateSlot resolves slot on the chosen day and accepts it only when it
// is more than 29 minutes after now. now must be in the store's zone.
func ValidateSlot(day domain.Day, slot domain.TimeSlot, now time.Time) (time.Time, error) {
	date, err := DayDate(day, now)
	if err != nil {
		return time.Time{}, err
	}
	when := SlotTime(date, slot)
	if when.Sub(now) <= MinLeadTime {
		return time.Time{}, ErrSlotTooSoon
	}
	return when, nil
}

// Label renders e.g. "Today · Evening 7:30 PM". The period splits at
// a 12:00 minute offset, so after-midnight slots stay "Evening".
func Label(day domain.Day, slot domain.TimeSlot) string {
	dayLabel := "Today"
	if day == domain.DayTomorrow {
		dayLabel = "Tomorrow"
	}
	period := "Evening"
	if slot.Minutes < 12*60 {
		period = "Morning"
	}
	return dayLabel + " · " + period + " " + format12h(slot.Minutes)
}
