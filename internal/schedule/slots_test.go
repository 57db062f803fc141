package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_storefront/internal/domain"
)

func slotTimes(slots []domain.TimeSlot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Time
	}
	return out
}

func TestGenerateSlots(t *testing.T) {
	slots := GenerateSlots(domain.DaySchedule{Open: "09:00", Close: "11:00"})

	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, slotTimes(slots))
	assert.Equal(t, 540, slots[0].Minutes)
	assert.Equal(t, 630, slots[3].Minutes)
}

func TestGenerateSlots_Overnight(t *testing.T) {
	slots := GenerateSlots(domain.DaySchedule{Open: "22:00", Close: "02:00"})

	require.Len(t, slots, 8)
	assert.Equal(t, []string{"22:00", "22:30", "23:00", "23:30", "00:00", "00:30", "01:00", "01:30"}, slotTimes(slots))
	assert.Equal(t, 1320, slots[0].Minutes)
	assert.Equal(t, 1530, slots[7].Minutes)
}

func TestGenerateSlots_OffGrid(t *testing.T) {
	slots := GenerateSlots(domain.DaySchedule{Open: "09:15", Close: "10:00"})
	assert.Equal(t, []string{"09:15", "09:45"}, slotTimes(slots))
}

func TestGenerateSlots_Empty(t *testing.T) {
	assert.Empty(t, GenerateSlots(domain.DaySchedule{Closed: true, Open: "09:00", Close: "17:00"}))
	assert.Empty(t, GenerateSlots(domain.DaySchedule{Open: "09:00"}))
	assert.Empty(t, GenerateSlots(domain.DaySchedule{Open: "nine", Close: "17:00"}))
	assert.Empty(t, GenerateSlots(domain.DaySchedule{}))
}

func TestAvailableSlots_TodayNeedsMoreThanThirtyMinutes(t *testing.T) {
	cfg := storeWithHours(domain.WeeklySchedule{time.Monday: {Open: "09:00", Close: "12:00"}})

	// 10:00 is exactly 30 minutes ahead and is dropped; 10:30 stays.
	slots, err := AvailableSlots(cfg, domain.OrderTypePickup, domain.DayToday, monday(9, 30))
	require.NoError(t, err)
	assert.Equal(t, []string{"10:30", "11:00", "11:30"}, slotTimes(slots))

	slots, err = AvailableSlots(cfg, domain.OrderTypePickup, domain.DayToday, monday(9, 29))
	require.NoError(t, err)
	assert.Equal(t, "10:00", slots[0].Time)
}

func TestAvailableSlots_TomorrowUsesNextWeekday(t *testing.T) {
	cfg := storeWithHours(domain.WeeklySchedule{
		time.Monday:  {Open: "09:00", Close: "10:00"},
		time.Tuesday: {Open: "18:00", Close: "19:00"},
	})

	slots, err := AvailableSlots(cfg, domain.OrderTypeDelivery, domain.DayTomorrow, monday(23, 0))
	require.NoError(t, err)
	assert.Equal(t, []string{"18:00", "18:30"}, slotTimes(slots))
}

func TestAvailableSlots_InvalidDay(t *testing.T) {
	cfg := storeWithHours(nil)
	_, err := AvailableSlots(cfg, domain.OrderTypePickup, "yesterday", monday(9, 0))
	assert.ErrorIs(t, err, ErrInvalidDay)
}

func TestValidateSlot_TwentyNineMinuteBoundary(t *testing.T) {
	slot := domain.TimeSlot{Time: "10:00", Minutes: 600}

	// 30 minutes ahead: accepted by the validity check even though the
	// generation filter for today would already have dropped it.
	when, err := ValidateSlot(domain.DayToday, slot, monday(9, 30))
	require.NoError(t, err)
	assert.Equal(t, monday(10, 0), when)

	_, err = ValidateSlot(domain.DayToday, slot, monday(9, 31))
	assert.ErrorIs(t, err, ErrSlotTooSoon)
	assert.True(t, domain.IsValidation(err))

	_, err = ValidateSlot(domain.DayToday, slot, monday(9, 30).Add(30*time.Second))
	assert.NoError(t, err, "29.5 minutes ahead is still more than 29")
}

func TestValidateSlot_TomorrowAndPastMidnight(t *testing.T) {
	when, err := ValidateSlot(domain.DayTomorrow, domain.TimeSlot{Time: "09:00", Minutes: 540}, monday(23, 50))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 4, 9, 0, 0, 0, time.UTC), when)

	when, err = ValidateSlot(domain.DayToday, domain.TimeSlot{Time: "01:30", Minutes: 1530}, monday(22, 0))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.June, 4, 1, 30, 0, 0, time.UTC), when)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Today · Morning 9:30 AM", Label(domain.DayToday, domain.TimeSlot{Time: "09:30", Minutes: 570}))
	assert.Equal(t, "Tomorrow · Evening 12:00 PM", Label(domain.DayTomorrow, domain.TimeSlot{Time: "12:00", Minutes: 720}))
	assert.Equal(t, "Today · Evening 1:30 AM", Label(domain.DayToday, domain.TimeSlot{Time: "01:30", Minutes: 1530}))
}

func TestClockHelpers(t *testing.T) {
	m, ok := parseClock("7:05")
	assert.True(t, ok)
	assert.Equal(t, 425, m)

	_, ok = parseClock("25:00")
	assert.False(t, ok)
	_, ok = parseClock("12:60")
	assert.False(t, ok)

	assert.Equal(t, "00:30", formatClock(1470))
	assert.Equal(t, "12:00 AM", format12h(0))
	assert.Equal(t, "11:59 PM", format12h(1439))
}
