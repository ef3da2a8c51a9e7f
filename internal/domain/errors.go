package domain

import "errors"

var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrMissingAddress    = errors.New("shipping address is required")
	ErrPersistence       = errors.New("persistence failure")
	ErrNotFound          = errors.New("not found")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidLineItem   = errors.New("invalid order line item")
)
