package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fjod/go_storefront/internal/domain"
)

// Prices are stored as decimal strings; Decimal has no BSON codec.
type cartDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Items     []itemDocument     `bson:"items"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type itemDocument struct {
	Key         string          `bson:"key"`
	ProductID   string          `bson:"product_id"`
	ProductName string          `bson:"product_name"`
	UnitPrice   string          `bson:"unit_price"`
	Quantity    int             `bson:"quantity"`
	SizeID      string          `bson:"size_id,omitempty"`
	FlavorIDs   []string        `bson:"flavor_ids,omitempty"`
	Extras      []extraDocument `bson:"extras,omitempty"`
	Note        string          `bson:"note,omitempty"`
	AddedAt     time.Time       `bson:"added_at"`
}

type extraDocument struct {
	ExtraID  string `bson:"extra_id"`
	Quantity int    `bson:"quantity"`
}

func toDocument(cart *domain.Cart) cartDocument {
	doc := cartDocument{
		UserID:    cart.UserID,
		Items:     make([]itemDocument, 0, len(cart.Items)),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
	for _, item := range cart.Items {
		d := itemDocument{
			Key:         string(item.Key),
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice.String(),
			Quantity:    item.Quantity,
			SizeID:      item.Selection.SizeID,
			FlavorIDs:   item.Selection.FlavorIDs,
			Note:        item.Selection.Note,
			AddedAt:     item.AddedAt,
		}
		for _, e := range item.Selection.Extras {
			d.Extras = append(d.Extras, extraDocument{ExtraID: e.ExtraID, Quantity: e.Quantity})
		}
		doc.Items = append(doc.Items, d)
	}
	return doc
}

func (d cartDocument) toDomain() *domain.Cart {
	cart := &domain.Cart{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		Items:     make([]domain.CartItem, 0, len(d.Items)),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for _, it := range d.Items {
		price, err := decimal.NewFromString(it.UnitPrice)
		if err != nil {
			price = decimal.Zero
		}
		sel := domain.Selection{SizeID: it.SizeID, FlavorIDs: it.FlavorIDs, Note: it.Note}
		for _, e := range it.Extras {
			sel.Extras = append(sel.Extras, domain.ExtraSelection{ExtraID: e.ExtraID, Quantity: e.Quantity})
		}
		cart.Items = append(cart.Items, domain.CartItem{
			Key:         domain.LineKey(it.Key),
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   price,
			Quantity:    it.Quantity,
			Selection:   sel,
			AddedAt:     it.AddedAt,
		})
	}
	return cart
}
