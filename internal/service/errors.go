package service

import "github.com/fjod/go_storefront/internal/domain"

var (
	ErrEmptyCart         = domain.NewValidationError("cart is empty, nothing to checkout")
	ErrInvalidOrderType  = domain.NewValidationError("order type must be pickup or delivery")
	ErrInvalidDiscount   = domain.NewValidationError("discount cannot be negative")
	ErrLocationRequired  = domain.NewValidationError("a delivery location or a served city is required")
	ErrBelowMinimumOrder = domain.NewValidationError("order is below the minimum amount")
	ErrStoreClosed       = domain.NewValidationError("store is closed, schedule the order for a later time")
	ErrSlotUnavailable   = domain.NewValidationError("selected time slot is not available")
)
