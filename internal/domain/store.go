package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsZero treats 0,0 as "no location".
func (c Coordinate) IsZero() bool {
	return c.Lat == 0 && c.Lng == 0
}

// KnownLocation reports whether c points at a usable coordinate.
func KnownLocation(c *Coordinate) bool {
	return c != nil && !c.IsZero()
}

type OrderType string

const (
	OrderTypePickup   OrderType = "pickup"
	OrderTypeDelivery OrderType = "delivery"
)

func (t OrderType) Valid() bool {
	return t == OrderTypePickup || t == OrderTypeDelivery
}

// DaySchedule holds opening hours as "HH:MM" wall-clock strings.
type DaySchedule struct {
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed,omitempty"`
}

type WeeklySchedule map[time.Weekday]DaySchedule

type CityFee struct {
	NameAr string          `json:"name_ar,omitempty"`
	NameHe string          `json:"name_he,omitempty"`
	Fee    decimal.Decimal `json:"fee"`
	Active bool            `json:"active"`
}

// StoreConfig is the store-wide settings snapshot the engine works from.
type StoreConfig struct {
	ID                     string          `json:"id"`
	Hours                  WeeklySchedule  `json:"hours,omitempty"`
	PickupHours            WeeklySchedule  `json:"pickup_hours,omitempty"`
	DeliveryHours          WeeklySchedule  `json:"delivery_hours,omitempty"`
	ManuallyClosed         bool            `json:"manually_closed"`
	DeliveryManuallyClosed bool            `json:"delivery_manually_closed"`
	DefaultDeliveryFee     decimal.Decimal `json:"default_delivery_fee"`
	Zones                  []DeliveryZone  `json:"zones,omitempty"`
	CityFees               []CityFee       `json:"city_fees,omitempty"`
	StoreLocation          *Coordinate     `json:"store_location,omitempty"`
	MinimumOrder           decimal.Decimal `json:"minimum_order"`
	TimeZone               string          `json:"time_zone,omitempty"`
}

// ScheduleFor picks the weekly schedule that governs orderType: the
// pickup or delivery override when present, the general hours otherwise.
func (c *StoreConfig) ScheduleFor(orderType OrderType) WeeklySchedule {
	switch {
	case orderType == OrderTypePickup && c.PickupHours != nil:
		return c.PickupHours
	case orderType == OrderTypeDelivery && c.DeliveryHours != nil:
		return c.DeliveryHours
	default:
		return c.Hours
	}
}

// Location resolves the configured time zone, falling back to the process zone.
func (c *StoreConfig) Location() *time.Location {
	if c == nil || c.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}
