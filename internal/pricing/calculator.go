// Package pricing computes the unit and line price of a configured product.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/fjod/go_storefront/internal/domain"
)

var (
	ErrFlavorCount      = domain.NewValidationError("wrong number of flavors selected")
	ErrUnknownFlavor    = domain.NewValidationError("flavor is not offered for this product")
	ErrDuplicateFlavor  = domain.NewValidationError("flavor selected more than once")
	ErrUnknownSize      = domain.NewValidationError("size is not offered for this product")
	ErrExtraUnavailable = domain.NewValidationError("extra is not available for this product")
)

// ExtraCharge describes how one selected extra contributed to the unit price.
type ExtraCharge struct {
	ExtraID   string          `json:"extra_id"`
	GroupID   string          `json:"group_id,omitempty"`
	Quantity  int             `json:"quantity"`
	FreeUnits int             `json:"free_units"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Charged   decimal.Decimal `json:"charged"`
}

type LinePrice struct {
	Base      decimal.Decimal `json:"base"`
	Unit      decimal.Decimal `json:"unit"`
	Total     decimal.Decimal `json:"total"`
	Breakdown []ExtraCharge   `json:"breakdown,omitempty"`
}

// PriceLine prices quantity units of product configured with sel.
// The result depends only on its inputs.
func PriceLine(product *domain.Product, sel domain.Selection, catalog domain.Catalog, quantity int) (LinePrice, error) {
	if quantity < 1 {
		return LinePrice{}, domain.ErrInvalidQuantity
	}
	if err := validateFlavors(product, sel.FlavorIDs); err != nil {
		return LinePrice{}, err
	}

	base := product.BasePrice
	if sel.SizeID != "" {
		size, ok := product.Size(sel.SizeID)
		if !ok {
			return LinePrice{}, ErrUnknownSize
		}
		base = base.Add(size.PriceDelta)
	}

	breakdown, err := chargeExtras(product, sel.Extras, catalog)
	if err != nil {
		return LinePrice{}, err
	}

	unit := base
	for _, c := range breakdown {
		unit = unit.Add(c.Charged)
	}
	return LinePrice{
		Base:      base,
		Unit:      unit,
		Total:     unit.Mul(decimal.NewFromInt(int64(quantity))),
		Breakdown: breakdown,
	}, nil
}

func validateFlavors(product *domain.Product, ids []string) error {
	if product.FlavorsCount > 0 && len(ids) != product.FlavorsCount {
		return ErrFlavorCount
	}
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if !product.HasFlavor(id) {
			return ErrUnknownFlavor
		}
		if _, dup := seen[id]; dup {
			return ErrDuplicateFlavor
		}
		seen[id] = struct{}{}
	}
	return nil
}

func chargeExtras(product *domain.Product, selected []domain.ExtraSelection, catalog domain.Catalog) ([]ExtraCharge, error) {
	freeRemaining := make(map[string]int, len(product.ExtraGroups))
	for _, g := range product.ExtraGroups {
		if _, seen := freeRemaining[g.GroupID]; !seen {
			freeRemaining[g.GroupID] = max(g.FreeLimit, 0)
		}
	}

	var out []ExtraCharge
	for _, s := range selected {
		if s.Quantity <= 0 {
			continue
		}
		extra, ok := catalog.Extras[s.ExtraID]
		if !ok || !extra.Selectable() {
			return nil, ErrExtraUnavailable
		}

		charge := ExtraCharge{ExtraID: extra.ID, Quantity: s.Quantity, UnitPrice: extra.Price}
		if groupID, grouped := groupOf(product, catalog, extra.ID); grouped {
			free := min(s.Quantity, freeRemaining[groupID])
			freeRemaining[groupID] -= free
			charge.GroupID = groupID
			charge.FreeUnits = free
		} else if offersDirectly(product, extra.ID) {
			if extra.IsDefault {
				charge.FreeUnits = 1
			}
		} else {
			return nil, ErrExtraUnavailable
		}
		charge.Charged = extra.Price.Mul(decimal.NewFromInt(int64(s.Quantity - charge.FreeUnits)))
		out = append(out, charge)
	}
	return out, nil
}

// groupOf returns the first group, in product order, that lists extraID.
func groupOf(product *domain.Product, catalog domain.Catalog, extraID string) (string, bool) {
	for _, pg := range product.ExtraGroups {
		if g, ok := catalog.Groups[pg.GroupID]; ok && g.Contains(extraID) {
			return pg.GroupID, true
		}
	}
	return "", false
}

func offersDirectly(product *domain.Product, extraID string) bool {
	for _, id := range product.ExtraIDs {
		if id == extraID {
			return true
		}
	}
	return false
}

// MenuGroup is a product's extra group as shown on the menu.
type MenuGroup struct {
	GroupID   string               `json:"group_id"`
	Names     domain.LocalizedText `json:"names,omitempty"`
	FreeLimit int                  `json:"free_limit"`
	Extras    []domain.Extra       `json:"extras"`
}

type Menu struct {
	Groups    []MenuGroup    `json:"groups,omitempty"`
	Ungrouped []domain.Extra `json:"ungrouped,omitempty"`
}

// AvailableExtras lists what a customer may add to product: grouped extras
// first, in product and group order, then the product's own extras. Frozen
// and hidden extras never appear, and each extra is listed once.
func AvailableExtras(product *domain.Product, catalog domain.Catalog) Menu {
	var menu Menu
	listed := make(map[string]bool)

	for _, pg := range product.ExtraGroups {
		g, ok := catalog.Groups[pg.GroupID]
		if !ok {
			continue
		}
		mg := MenuGroup{GroupID: g.ID, Names: g.Names, FreeLimit: pg.FreeLimit}
		for _, id := range g.ExtraIDs {
			extra, ok := catalog.Extras[id]
			if !ok || !extra.Selectable() || listed[id] {
				continue
			}
			listed[id] = true
			mg.Extras = append(mg.Extras, extra)
		}
		if len(mg.Extras) > 0 {
			menu.Groups = append(menu.Groups, mg)
		}
	}

	for _, id := range product.ExtraIDs {
		extra, ok := catalog.Extras[id]
		if !ok || !extra.Selectable() || listed[id] {
			continue
		}
		listed[id] = true
		menu.Ungrouped = append(menu.Ungrouped, extra)
	}
	return menu
}
