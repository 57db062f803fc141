package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	ID        string     `json:"id,omitempty"`
	UserID    string     `json:"user_id"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CartItem is one priced line. UnitPrice is fixed when the line is added
// and is not recomputed if the catalog changes afterwards.
type CartItem struct {
	Key         LineKey         `json:"key"`
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Selection   Selection       `json:"selection"`
	AddedAt     time.Time       `json:"added_at"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (c *Cart) find(key LineKey) int {
	for i := range c.Items {
		if c.Items[i].Key == key {
			return i
		}
	}
	return -1
}

// Line returns the item stored under key.
func (c *Cart) Line(key LineKey) (CartItem, bool) {
	if i := c.find(key); i >= 0 {
		return c.Items[i], true
	}
	return CartItem{}, false
}

// AddOrMerge appends item, or adds its quantity to the line with the same key.
// Existing lines keep their position and unit price. Extra quantities are not
// part of the key, so a merge ignores item.UnitPrice even when it differs.
func (c *Cart) AddOrMerge(item CartItem) error {
	if item.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if item.Key == "" {
		item.Key = NewLineKey(item.ProductID, item.Selection)
	}
	if i := c.find(item.Key); i >= 0 {
		c.Items[i].Quantity += item.Quantity
		return nil
	}
	c.Items = append(c.Items, item)
	return nil
}

// UpdateQuantity changes a line by delta, never going below one unit.
func (c *Cart) UpdateQuantity(key LineKey, delta int) error {
	i := c.find(key)
	if i < 0 {
		return ErrItemNotFound
	}
	c.Items[i].Quantity = max(c.Items[i].Quantity+delta, 1)
	return nil
}

func (c *Cart) Remove(key LineKey) error {
	i := c.find(key)
	if i < 0 {
		return ErrItemNotFound
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	return nil
}

func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (c *Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// OrderTotal is max(0, subtotal - discount) plus the delivery fee for
// delivery orders.
func OrderTotal(subtotal, discount, deliveryFee decimal.Decimal, orderType OrderType) decimal.Decimal {
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	if orderType == OrderTypeDelivery {
		total = total.Add(deliveryFee)
	}
	return total
}
