// Package catalog holds the store's item table and the tag group index
// customers shop through.
package catalog

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrDuplicateKey means two catalog records share an item id.
	ErrDuplicateKey = errors.New("duplicate item id")

	// ErrNotFound means no item with the requested id exists.
	ErrNotFound = errors.New("item not found")

	// ErrInvalidItem means a record carries a negative cost, stock or weight.
	ErrInvalidItem = errors.New("invalid item")
)

// ItemID uniquely identifies an item in a catalog.
type ItemID int

// Item is one stocked product.
type Item struct {
	ID     ItemID          `json:"id"`
	Name   string          `json:"name"`
	Tags   []string        `json:"tags"`
	Cost   decimal.Decimal `json:"cost"`
	Stock  int             `json:"stock"`
	Weight int             `json:"weight"` // Relative purchase likelihood; 0 = never selected
}

// Validate checks the non-negativity constraints on a record.
func (it Item) Validate() error {
	if it.Cost.IsNegative() {
		return fmt.Errorf("%w: item %d has negative cost %s", ErrInvalidItem, it.ID, it.Cost)
	}
	if it.Stock < 0 {
		return fmt.Errorf("%w: item %d has negative stock %d", ErrInvalidItem, it.ID, it.Stock)
	}
	if it.Weight < 0 {
		return fmt.Errorf("%w: item %d has negative weight %d", ErrInvalidItem, it.ID, it.Weight)
	}
	return nil
}

func (it Item) clone() Item {
	out := it
	out.Tags = append([]string(nil), it.Tags...)
	return out
}

// String renders an item the way the console prints it.
func (it Item) String() string {
	return fmt.Sprintf("Id: %d ; Name: %s ; Tags: %v ; Cost: %s ; Stock: %d ; Weight: %d",
		it.ID, it.Name, it.Tags, it.Cost.StringFixed(2), it.Stock, it.Weight)
}
