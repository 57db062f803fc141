package domain

import "github.com/shopspring/decimal"

// FeeSource names the tier that produced a delivery fee.
type FeeSource string

const (
	FeeSourceZone    FeeSource = "zone"
	FeeSourceCity    FeeSource = "city"
	FeeSourceDefault FeeSource = "default"
	FeeSourceNone    FeeSource = "none"
)

// Offer is a free-delivery promotion: orders at or above Threshold ship free.
type Offer struct {
	Threshold decimal.Decimal `json:"threshold"`
	Label     string          `json:"label,omitempty"`
}

// DeliveryDecision is the resolved fee, where it came from and any active offer.
// The three are produced and replaced together.
type DeliveryDecision struct {
	Fee    decimal.Decimal `json:"fee"`
	Source FeeSource       `json:"source"`
	Offer  *Offer          `json:"offer,omitempty"`
	ZoneID string          `json:"zone_id,omitempty"`
}

// Located reports whether the decision came from the customer's position
// or city rather than a fallback.
func (d DeliveryDecision) Located() bool {
	return d.Source == FeeSourceZone || d.Source == FeeSourceCity
}

// EffectiveFee applies the free-delivery offer to subtotal.
func (d DeliveryDecision) EffectiveFee(subtotal decimal.Decimal) decimal.Decimal {
	if d.Offer != nil && subtotal.GreaterThanOrEqual(d.Offer.Threshold) {
		return decimal.Zero
	}
	return d.Fee
}

// FreeDeliveryRemaining is how much more must be spent to unlock the offer.
func (d DeliveryDecision) FreeDeliveryRemaining(subtotal decimal.Decimal) decimal.Decimal {
	if d.Offer == nil {
		return decimal.Zero
	}
	left := d.Offer.Threshold.Sub(subtotal)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}
