// Package delivery decides which delivery fee applies to a customer location.
//
// Tiers are tried in a fixed order and the first hit wins: rectangular zones
// in configuration order, circular zones from the smallest radius up, the
// city fee table, and finally the store default.
package delivery

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/geo"
)

// Query is the customer side of a resolution. Location may be nil.
type Query struct {
	Location *domain.Coordinate
	City     string
}

// ResolveDelivery is Resolve for callers holding raw coordinates.
func ResolveDelivery(lat, lng float64, city string, cfg *domain.StoreConfig) domain.DeliveryDecision {
	return Resolve(Query{Location: &domain.Coordinate{Lat: lat, Lng: lng}, City: city}, cfg)
}

// Resolve picks the delivery fee for q. Source none is returned only for a
// nil cfg. A nil or 0,0 location skips the zone tiers and falls through to
// the city table and then the store default.
func Resolve(q Query, cfg *domain.StoreConfig) domain.DeliveryDecision {
	if cfg == nil {
		return domain.DeliveryDecision{Fee: decimal.Zero, Source: domain.FeeSourceNone}
	}

	if domain.KnownLocation(q.Location) {
		point := *q.Location
		if z, ok := matchBox(cfg.Zones, point); ok {
			return zoneDecision(z)
		}
		if domain.KnownLocation(cfg.StoreLocation) {
			if z, ok := matchCircle(cfg.Zones, *cfg.StoreLocation, point); ok {
				return zoneDecision(z)
			}
		}
	}

	if city := strings.TrimSpace(q.City); city != "" {
		if fee, ok := matchCity(cfg.CityFees, city); ok {
			return domain.DeliveryDecision{Fee: fee, Source: domain.FeeSourceCity}
		}
	}

	return domain.DeliveryDecision{Fee: cfg.DefaultDeliveryFee, Source: domain.FeeSourceDefault}
}

func zoneDecision(z domain.DeliveryZone) domain.DeliveryDecision {
	return domain.DeliveryDecision{
		Fee:    z.Fee,
		Source: domain.FeeSourceZone,
		Offer:  z.Offer(),
		ZoneID: z.ID,
	}
}

func matchBox(zones []domain.DeliveryZone, point domain.Coordinate) (domain.DeliveryZone, bool) {
	for _, z := range zones {
		if !z.Active {
			continue
		}
		if box, ok := z.Shape.(domain.BoxShape); ok && box.Contains(point) {
			return z, true
		}
	}
	return domain.DeliveryZone{}, false
}

type circle struct {
	zone   domain.DeliveryZone
	center domain.Coordinate
	radius float64
}

func matchCircle(zones []domain.DeliveryZone, store, point domain.Coordinate) (domain.DeliveryZone, bool) {
	var circles []circle
	for _, z := range zones {
		if !z.Active {
			continue
		}
		switch s := z.Shape.(type) {
		case domain.StoreRadiusShape:
			if s.RadiusKm > 0 {
				circles = append(circles, circle{zone: z, center: store, radius: s.RadiusKm})
			}
		case domain.CircleShape:
			if s.RadiusKm > 0 {
				circles = append(circles, circle{zone: z, center: s.Center, radius: s.RadiusKm})
			}
		case domain.BoxShape, nil:
		}
	}

	sort.SliceStable(circles, func(i, j int) bool {
		return circles[i].radius < circles[j].radius
	})

	for _, c := range circles {
		if geo.DistanceKm(c.center.Lat, c.center.Lng, point.Lat, point.Lng) <= c.radius {
			return c.zone, true
		}
	}
	return domain.DeliveryZone{}, false
}

func matchCity(fees []domain.CityFee, city string) (decimal.Decimal, bool) {
	for _, f := range fees {
		if !f.Active {
			continue
		}
		if f.NameAr == city || f.NameHe == city {
			return f.Fee, true
		}
	}
	return decimal.Zero, false
}
