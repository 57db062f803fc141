package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventOrderPlaced = "order_placed"

type OrderLine struct {
	Key       LineKey         `json:"key"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderPlaced is published once per accepted order.
type OrderPlaced struct {
	OrderID      string          `json:"order_id"`
	UserID       string          `json:"user_id"`
	StoreID      string          `json:"store_id"`
	OrderType    OrderType       `json:"order_type"`
	Items        []OrderLine     `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Discount     decimal.Decimal `json:"discount"`
	DeliveryFee  decimal.Decimal `json:"delivery_fee"`
	FeeSource    FeeSource       `json:"fee_source,omitempty"`
	Total        decimal.Decimal `json:"total"`
	ScheduledFor *time.Time      `json:"scheduled_for,omitempty"`
	PlacedAt     time.Time       `json:"placed_at"`
}

func OrderLines(items []CartItem) []OrderLine {
	lines := make([]OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, OrderLine{
			Key:       it.Key,
			ProductID: it.ProductID,
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal(),
		})
	}
	return lines
}
