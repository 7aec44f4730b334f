package service

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrItemsUnavailable  = errors.New("some items are no longer available")
	ErrAlreadyInCart     = errors.New("item already in cart")
	ErrProductNotFound   = errors.New("product not found")
	ErrOutOfStock        = errors.New("product is out of stock")
	ErrOrderNotFound     = errors.New("order not found")
	ErrIllegalTransition = errors.New("illegal order status transition")
)

// ValidationError carries the offending field so the UI can highlight it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
