package repository

import "errors"

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrSessionNotFound      = errors.New("cart session not found")
	ErrDuplicateCartItem    = errors.New("product already in cart")
	ErrOrderNotFound        = errors.New("order not found")
	ErrDuplicateOrderNumber = errors.New("order number already exists")
	ErrProductNotForSale    = errors.New("product is no longer for sale")
	ErrRateNotFound         = errors.New("currency rate not found")
	ErrIllegalTransition    = errors.New("illegal order status transition")
)
