package services

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart            = errors.New("checkout: cart has no purchasable lines")
	ErrOrderNotFound        = errors.New("order not found")
	ErrOrderNotPayable      = errors.New("order cannot be paid online")
	ErrPaymentNotConfigured = errors.New("payment gateway is not configured")
	ErrMissingSignature     = errors.New("webhook: missing signature header")
	ErrInvalidSignature     = errors.New("webhook: invalid signature")
	ErrInvalidBarcode       = errors.New("import: barcode has no digits")
	ErrInvalidExternalID    = errors.New("import: invalid external id")
	ErrLookupNotFound       = errors.New("import: no provider knows this product")
	ErrInvalidCredentials   = errors.New("auth: invalid credentials")
)

// OutOfStockError aborts a checkout. Variant is empty for products without
// variants.
type OutOfStockError struct {
	Product   string
	Variant   string
	Available int
	Requested int
}

func (e *OutOfStockError) Error() string {
	name := e.Product
	if e.Variant != "" {
		name += " (" + e.Variant + ")"
	}
	return fmt.Sprintf("checkout: %s is out of stock: %d available, %d requested", name, e.Available, e.Requested)
}
