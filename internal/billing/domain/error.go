package domain

import "errors"

var (
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrEmptyCart            = errors.New("cart is empty")
	ErrInvalidDiscount      = errors.New("discount percent out of range")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)
