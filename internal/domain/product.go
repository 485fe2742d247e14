package domain

import "github.com/shopspring/decimal"

// Product is a catalog entry as the storefront sees it after normalization.
// The storefront never mutates a Product.
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Image       string
	Description string
}
