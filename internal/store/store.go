// Package store holds the sqlite-backed stores for products, customers and
// sales. Unknown ids surface as ErrNotFound; everything else bubbles up as
// the driver error.
package store

import (
	"errors"
	"strings"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrCustomerNotFound  = errors.New("customer not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

func nullIfEmpty(val string) *string {
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
