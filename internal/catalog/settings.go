package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_storefront/internal/domain"
)

// looseNumber accepts a JSON number, a numeric string or null. Anything
// that does not parse reads as zero.
type looseNumber struct {
	value decimal.Decimal
	set   bool
}

func (n *looseNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	n.set = true
	s := strings.Trim(string(data), `"`)
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		n.value = decimal.Zero
		return nil
	}
	n.value = d
	return nil
}

func (n *looseNumber) decimal() decimal.Decimal {
	if n == nil {
		return decimal.Zero
	}
	return n.value
}

func (n *looseNumber) float() float64 {
	return n.decimal().InexactFloat64()
}

func (n *looseNumber) present() bool {
	return n != nil && n.set
}

type hoursDoc struct {
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"closed,omitempty"`
}

type pointDoc struct {
	Lat looseNumber `json:"lat"`
	Lng looseNumber `json:"lng"`
}

type zoneDoc struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	MinLat            *looseNumber `json:"minLat,omitempty"`
	MaxLat            *looseNumber `json:"maxLat,omitempty"`
	MinLng            *looseNumber `json:"minLng,omitempty"`
	MaxLng            *looseNumber `json:"maxLng,omitempty"`
	CenterLat         *looseNumber `json:"centerLat,omitempty"`
	CenterLng         *looseNumber `json:"centerLng,omitempty"`
	RadiusKm          *looseNumber `json:"radiusKm,omitempty"`
	Fee               *looseNumber `json:"fee,omitempty"`
	FreeDeliveryAbove *looseNumber `json:"freeDeliveryAbove,omitempty"`
	OfferLabel        string       `json:"offerLabel,omitempty"`
	Active            *bool        `json:"active,omitempty"`
}

type cityDoc struct {
	NameAr string       `json:"nameAr,omitempty"`
	CityAr string       `json:"cityAr,omitempty"`
	NameHe string       `json:"nameHe,omitempty"`
	CityHe string       `json:"cityHe,omitempty"`
	Fee    *looseNumber `json:"fee,omitempty"`
	Active *bool        `json:"active,omitempty"`
}

// settingsDoc is the store settings document as stored. Field names follow
// the admin dashboard that writes it.
type settingsDoc struct {
	TimeZone               string              `json:"timeZone,omitempty"`
	ManuallyClosed         bool                `json:"isManuallyClosed"`
	DeliveryManuallyClosed bool                `json:"isDeliveryManuallyClosed"`
	DeliveryFee            *looseNumber        `json:"deliveryFee,omitempty"`
	MinimumOrder           *looseNumber        `json:"minimumOrder,omitempty"`
	StoreLocation          *pointDoc           `json:"storeLocation,omitempty"`
	WorkingHours           map[string]hoursDoc `json:"workingHours,omitempty"`
	PickupHours            map[string]hoursDoc `json:"pickupHours,omitempty"`
	DeliveryHours          map[string]hoursDoc `json:"deliveryHours,omitempty"`
	DeliveryZones          []zoneDoc           `json:"deliveryZones,omitempty"`
	CityFees               []cityDoc           `json:"cityFees,omitempty"`
}

// DecodeSettings turns a stored settings document into a StoreConfig.
// Zones whose geometry cannot be recognised are dropped.
func DecodeSettings(storeID string, data []byte) (*domain.StoreConfig, error) {
	var doc settingsDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode settings for store %s: %w", storeID, err)
	}

	cfg := &domain.StoreConfig{
		ID:                     storeID,
		Hours:                  decodeWeek(doc.WorkingHours),
		PickupHours:            decodeWeek(doc.PickupHours),
		DeliveryHours:          decodeWeek(doc.DeliveryHours),
		ManuallyClosed:         doc.ManuallyClosed,
		DeliveryManuallyClosed: doc.DeliveryManuallyClosed,
		DefaultDeliveryFee:     doc.DeliveryFee.decimal(),
		MinimumOrder:           doc.MinimumOrder.decimal(),
		TimeZone:               doc.TimeZone,
	}
	if doc.StoreLocation != nil {
		cfg.StoreLocation = &domain.Coordinate{
			Lat: doc.StoreLocation.Lat.float(),
			Lng: doc.StoreLocation.Lng.float(),
		}
	}
	for _, z := range doc.DeliveryZones {
		if zone, ok := decodeZone(z); ok {
			cfg.Zones = append(cfg.Zones, zone)
		}
	}
	for _, c := range doc.CityFees {
		cfg.CityFees = append(cfg.CityFees, domain.CityFee{
			NameAr: firstNonEmpty(c.NameAr, c.CityAr),
			NameHe: firstNonEmpty(c.NameHe, c.CityHe),
			Fee:    c.Fee.decimal(),
			Active: c.Active == nil || *c.Active,
		})
	}
	return cfg, nil
}

func decodeZone(z zoneDoc) (domain.DeliveryZone, bool) {
	zone := domain.DeliveryZone{
		ID:         z.ID,
		Name:       z.Name,
		Fee:        z.Fee.decimal(),
		OfferLabel: z.OfferLabel,
		Active:     z.Active == nil || *z.Active,
	}
	if z.FreeDeliveryAbove.present() {
		zone.FreeDeliveryAbove = decimal.NewNullDecimal(z.FreeDeliveryAbove.decimal())
	}

	switch {
	case z.MinLat.present() && z.MaxLat.present():
		// Absent lng bounds read as zero like any other missing number.
		zone.Shape = domain.BoxShape{
			LatMin: z.MinLat.float(),
			LatMax: z.MaxLat.float(),
			LngMin: z.MinLng.float(),
			LngMax: z.MaxLng.float(),
		}
	case z.CenterLat.present() && z.CenterLng.present() && z.RadiusKm.present():
		zone.Shape = domain.CircleShape{
			Center:   domain.Coordinate{Lat: z.CenterLat.float(), Lng: z.CenterLng.float()},
			RadiusKm: z.RadiusKm.float(),
		}
	case z.RadiusKm.present():
		zone.Shape = domain.StoreRadiusShape{RadiusKm: z.RadiusKm.float()}
	default:
		return domain.DeliveryZone{}, false
	}
	return zone, true
}

func decodeWeek(in map[string]hoursDoc) domain.WeeklySchedule {
	if in == nil {
		return nil
	}
	week := make(domain.WeeklySchedule, len(in))
	for name, h := range in {
		day, ok := parseWeekday(name)
		if !ok {
			continue
		}
		week[day] = domain.DaySchedule{Open: h.Open, Close: h.Close, Closed: h.Closed}
	}
	return week
}

func parseWeekday(name string) (time.Weekday, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == name {
			return d, true
		}
	}
	return 0, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// EncodeSettings writes cfg back in the stored document layout.
func EncodeSettings(cfg *domain.StoreConfig) ([]byte, error) {
	doc := map[string]any{
		"isManuallyClosed":         cfg.ManuallyClosed,
		"isDeliveryManuallyClosed": cfg.DeliveryManuallyClosed,
		"deliveryFee":              cfg.DefaultDeliveryFee.String(),
		"minimumOrder":             cfg.MinimumOrder.String(),
	}
	if cfg.TimeZone != "" {
		doc["timeZone"] = cfg.TimeZone
	}
	if cfg.StoreLocation != nil {
		doc["storeLocation"] = map[string]float64{"lat": cfg.StoreLocation.Lat, "lng": cfg.StoreLocation.Lng}
	}
	for key, week := range map[string]domain.WeeklySchedule{
		"workingHours":  cfg.Hours,
		"pickupHours":   cfg.PickupHours,
		"deliveryHours": cfg.DeliveryHours,
	} {
		if week != nil {
			doc[key] = encodeWeek(week)
		}
	}

	zones := make([]map[string]any, 0, len(cfg.Zones))
	for _, z := range cfg.Zones {
		zones = append(zones, encodeZone(z))
	}
	doc["deliveryZones"] = zones

	cities := make([]map[string]any, 0, len(cfg.CityFees))
	for _, c := range cfg.CityFees {
		cities = append(cities, map[string]any{
			"nameAr": c.NameAr,
			"nameHe": c.NameHe,
			"fee":    c.Fee.String(),
			"active": c.Active,
		})
	}
	doc["cityFees"] = cities

	return json.Marshal(doc)
}

func encodeWeek(week domain.WeeklySchedule) map[string]hoursDoc {
	out := make(map[string]hoursDoc, len(week))
	for day, h := range week {
		out[strings.ToLower(day.String())] = hoursDoc{Open: h.Open, Close: h.Close, Closed: h.Closed}
	}
	return out
}

func encodeZone(z domain.DeliveryZone) map[string]any {
	out := map[string]any{
		"id":     z.ID,
		"name":   z.Name,
		"fee":    z.Fee.String(),
		"active": z.Active,
	}
	if z.FreeDeliveryAbove.Valid {
		out["freeDeliveryAbove"] = z.FreeDeliveryAbove.Decimal.String()
		out["offerLabel"] = z.OfferLabel
	}
	switch s := z.Shape.(type) {
	case domain.BoxShape:
		out["minLat"], out["maxLat"] = s.LatMin, s.LatMax
		out["minLng"], out["maxLng"] = s.LngMin, s.LngMax
	case domain.CircleShape:
		out["centerLat"], out["centerLng"] = s.Center.Lat, s.Center.Lng
		out["radiusKm"] = s.RadiusKm
	case domain.StoreRadiusShape:
		out["radiusKm"] = s.RadiusKm
	}
	return out
}

// parseMoney reads numeric text stored in the catalog; unparseable text is zero.
func parseMoney(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero
	}
	return d
}
