package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ZoneShape is the geometry of a delivery zone. The set of implementations
// is closed: BoxShape, StoreRadiusShape and CircleShape.
type ZoneShape interface {
	zoneShape()
	Kind() string
}

// BoxShape is a lat/lng rectangle. Bounds may be given in either order.
type BoxShape struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LngMin float64 `json:"lng_min"`
	LngMax float64 `json:"lng_max"`
}

// StoreRadiusShape is a circle around the store location.
type StoreRadiusShape struct {
	RadiusKm float64 `json:"radius_km"`
}

// CircleShape is a circle around its own centre.
type CircleShape struct {
	Center   Coordinate `json:"center"`
	RadiusKm float64    `json:"radius_km"`
}

func (BoxShape) zoneShape()         {}
func (StoreRadiusShape) zoneShape() {}
func (CircleShape) zoneShape()      {}

func (BoxShape) Kind() string         { return "box" }
func (StoreRadiusShape) Kind() string { return "store_radius" }
func (CircleShape) Kind() string      { return "circle" }

// Normalized returns the box with min <= max on both axes.
func (b BoxShape) Normalized() BoxShape {
	if b.LatMin > b.LatMax {
		b.LatMin, b.LatMax = b.LatMax, b.LatMin
	}
	if b.LngMin > b.LngMax {
		b.LngMin, b.LngMax = b.LngMax, b.LngMin
	}
	return b
}

// Contains reports whether p lies inside the box, edges included.
func (b BoxShape) Contains(p Coordinate) bool {
	n := b.Normalized()
	return p.Lat >= n.LatMin && p.Lat <= n.LatMax && p.Lng >= n.LngMin && p.Lng <= n.LngMax
}

type DeliveryZone struct {
	ID                string              `json:"id"`
	Name              string              `json:"name,omitempty"`
	Shape             ZoneShape           `json:"-"`
	Fee               decimal.Decimal     `json:"fee"`
	FreeDeliveryAbove decimal.NullDecimal `json:"free_delivery_above"`
	OfferLabel        string              `json:"offer_label,omitempty"`
	Active            bool                `json:"active"`
}

// Offer returns the free-delivery promotion attached to the zone, if any.
func (z DeliveryZone) Offer() *Offer {
	if !z.FreeDeliveryAbove.Valid {
		return nil
	}
	return &Offer{Threshold: z.FreeDeliveryAbove.Decimal, Label: z.OfferLabel}
}

type zoneJSON struct {
	ID                string              `json:"id"`
	Name              string              `json:"name,omitempty"`
	Kind              string              `json:"kind"`
	Shape             json.RawMessage     `json:"shape"`
	Fee               decimal.Decimal     `json:"fee"`
	FreeDeliveryAbove decimal.NullDecimal `json:"free_delivery_above"`
	OfferLabel        string              `json:"offer_label,omitempty"`
	Active            bool                `json:"active"`
}

// MarshalJSON writes the shape with a kind tag so caches round-trip it.
func (z DeliveryZone) MarshalJSON() ([]byte, error) {
	out := zoneJSON{
		ID:                z.ID,
		Name:              z.Name,
		Fee:               z.Fee,
		FreeDeliveryAbove: z.FreeDeliveryAbove,
		OfferLabel:        z.OfferLabel,
		Active:            z.Active,
	}
	if z.Shape != nil {
		raw, err := json.Marshal(z.Shape)
		if err != nil {
			return nil, err
		}
		out.Kind = z.Shape.Kind()
		out.Shape = raw
	}
	return json.Marshal(out)
}

func (z *DeliveryZone) UnmarshalJSON(data []byte) error {
	var in zoneJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*z = DeliveryZone{
		ID:                in.ID,
		Name:              in.Name,
		Fee:               in.Fee,
		FreeDeliveryAbove: in.FreeDeliveryAbove,
		OfferLabel:        in.OfferLabel,
		Active:            in.Active,
	}
	var err error
	switch in.Kind {
	case "":
		return nil
	case "box":
		var s BoxShape
		err = json.Unmarshal(in.Shape, &s)
		z.Shape = s
	case "store_radius":
		var s StoreRadiusShape
		err = json.Unmarshal(in.Shape, &s)
		z.Shape = s
	case "circle":
		var s CircleShape
		err = json.Unmarshal(in.Shape, &s)
		z.Shape = s
	default:
		return fmt.Errorf("unknown zone kind %q", in.Kind)
	}
	return err
}
