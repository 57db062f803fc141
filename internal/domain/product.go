package domain

import "github.com/shopspring/decimal"

// LocalizedText maps a locale ("ar", "he", "en") to display text.
type LocalizedText map[string]string

// Get returns the text for locale, falling back to Arabic, English, then anything.
func (t LocalizedText) Get(locale string) string {
	if v := t[locale]; v != "" {
		return v
	}
	for _, fallback := range []string{"ar", "en"} {
		if v := t[fallback]; v != "" {
			return v
		}
	}
	for _, v := range t {
		if v != "" {
			return v
		}
	}
	return ""
}

type Size struct {
	ID         string          `json:"id"`
	Names      LocalizedText   `json:"names"`
	PriceDelta decimal.Decimal `json:"price_delta"`
}

type Flavor struct {
	ID    string        `json:"id"`
	Names LocalizedText `json:"names"`
}

// ProductExtraGroup links a product to an ExtraGroup with the number of
// units across the group that are free for this product.
type ProductExtraGroup struct {
	GroupID   string `json:"group_id"`
	FreeLimit int    `json:"free_limit"`
}

type Product struct {
	ID           string              `json:"id"`
	Names        LocalizedText       `json:"names"`
	BasePrice    decimal.Decimal     `json:"base_price"`
	Sizes        []Size              `json:"sizes,omitempty"`
	FlavorsCount int                 `json:"flavors_count,omitempty"`
	Flavors      []Flavor            `json:"flavors,omitempty"`
	ExtraGroups  []ProductExtraGroup `json:"extra_groups,omitempty"`
	ExtraIDs     []string            `json:"extra_ids,omitempty"`
}

func (p *Product) Size(id string) (Size, bool) {
	for _, s := range p.Sizes {
		if s.ID == id {
			return s, true
		}
	}
	return Size{}, false
}

func (p *Product) HasFlavor(id string) bool {
	for _, f := range p.Flavors {
		if f.ID == id {
			return true
		}
	}
	return false
}

type Extra struct {
	ID        string          `json:"id"`
	Names     LocalizedText   `json:"names"`
	Price     decimal.Decimal `json:"price"`
	IsDefault bool            `json:"is_default"`
	IsHidden  bool            `json:"is_hidden"`
	IsFrozen  bool            `json:"is_frozen"`
}

// Selectable is false for extras that are hidden or frozen store-wide.
func (e Extra) Selectable() bool {
	return !e.IsHidden && !e.IsFrozen
}

type ExtraGroup struct {
	ID       string        `json:"id"`
	Names    LocalizedText `json:"names"`
	ExtraIDs []string      `json:"extra_ids"`
}

func (g ExtraGroup) Contains(extraID string) bool {
	for _, id := range g.ExtraIDs {
		if id == extraID {
			return true
		}
	}
	return false
}

// Catalog is the extras/groups snapshot a line is priced against.
type Catalog struct {
	Extras map[string]Extra      `json:"extras"`
	Groups map[string]ExtraGroup `json:"groups"`
}

type ExtraSelection struct {
	ExtraID  string `json:"extra_id"`
	Quantity int    `json:"quantity"`
}

// Selection is what the customer picked for one product. Extras keep
// selection order; free allowances are consumed in that order.
type Selection struct {
	SizeID    string           `json:"size_id,omitempty"`
	FlavorIDs []string         `json:"flavor_ids,omitempty"`
	Extras    []ExtraSelection `json:"extras,omitempty"`
	Note      string           `json:"note,omitempty"`
}
