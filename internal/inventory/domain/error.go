package domain

import "errors"

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrBatchNotFound     = errors.New("stock batch not found")
	ErrDuplicateSKU      = errors.New("sku already exists in branch")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("invalid quantity")
)
