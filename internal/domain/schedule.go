package domain

import "time"

type StoreState string

const (
	StateOpen        StoreState = "open"
	StateClosed      StoreState = "closed"
	StateClosingSoon StoreState = "closing_soon"
)

// StoreStatus is what the storefront shows about current availability.
type StoreStatus struct {
	State       StoreState `json:"status"`
	Message     string     `json:"message"`
	MinutesLeft int        `json:"minutes_left,omitempty"`
	NextTime    *time.Time `json:"next_time,omitempty"`
}

// AcceptsOrders is true while the store is open or about to close.
func (s StoreStatus) AcceptsOrders() bool {
	return s.State == StateOpen || s.State == StateClosingSoon
}

// TimeSlot is a bookable point in a day. Minutes is the offset from the
// start of the day and runs past 1440 for slots after midnight.
type TimeSlot struct {
	Time    string `json:"time"`
	Minutes int    `json:"minutes"`
}

type Day string

const (
	DayToday    Day = "today"
	DayTomorrow Day = "tomorrow"
)

func (d Day) Valid() bool {
	return d == DayToday || d == DayTomorrow
}
