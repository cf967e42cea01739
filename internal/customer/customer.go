// Package customer provides the shopper agent: budget, interests, a decaying
// buy-attempt counter and the per-visit purchase ledger.
package customer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/talgya/storesim/internal/catalog"
)

// ErrResident means the operation is not allowed while the customer is inside a store.
var ErrResident = errors.New("customer is inside a store")

// Customer is one shopper. The engine stamps entry and exit; everything else
// is driven through the methods below.
type Customer struct {
	name       string
	tags       []string
	usesCredit bool

	money         decimal.Decimal
	startingMoney decimal.Decimal
	visitMoney    decimal.Decimal // Money on arrival, for per-visit spend

	attempts         float64
	startingAttempts float64

	purchases   Purchases
	entryMinute *int
}

// New creates a customer. An empty tag list means the customer will buy anything.
func New(name string, tags []string, money decimal.Decimal, attempts float64, usesCredit bool) *Customer {
	if len(tags) == 0 {
		tags = []string{catalog.WildcardTag}
	}
	return &Customer{
		name:             name,
		tags:             append([]string(nil), tags...),
		usesCredit:       usesCredit,
		money:            money,
		startingMoney:    money,
		visitMoney:       money,
		attempts:         attempts,
		startingAttempts: attempts,
	}
}

// Name is the customer's name as admitted.
func (c *Customer) Name() string { return c.name }

// Tags returns a copy of the wanted tags.
func (c *Customer) Tags() []string { return append([]string(nil), c.tags...) }

// UsesCredit reports whether purchases may take money below zero.
func (c *Customer) UsesCredit() bool { return c.usesCredit }

// Money is the current balance.
func (c *Customer) Money() decimal.Decimal { return c.money }

// StartingMoney is the balance Reset restores.
func (c *Customer) StartingMoney() decimal.Decimal { return c.startingMoney }

// RemainingAttempts is the decaying buy-attempt budget.
func (c *Customer) RemainingAttempts() float64 { return c.attempts }

// Purchases returns a copy of this visit's purchases.
func (c *Customer) Purchases() Purchases { return c.purchases.Clone() }

// EntryMinute returns the store clock value at arrival, if inside a store.
func (c *Customer) EntryMinute() (int, bool) {
	if c.entryMinute == nil {
		return 0, false
	}
	return *c.entryMinute, true
}

// Resident reports whether the customer is currently inside a store.
func (c *Customer) Resident() bool {
	return c.entryMinute != nil
}

// AttemptPurchase spends one buy attempt on an item. The purchase succeeds
// when the customer uses credit or can afford cost; a refused purchase still
// consumes the attempt.
func (c *Customer) AttemptPurchase(id catalog.ItemID, cost decimal.Decimal) bool {
	c.attempts--

	if !c.usesCredit && cost.GreaterThan(c.money) {
		return false
	}
	c.money = c.money.Sub(cost)
	c.purchases.Add(id, 1)
	return true
}

// WantsToContinue reports whether any buy attempts remain.
func (c *Customer) WantsToContinue() bool {
	return c.attempts > 0
}

// Decay lowers the remaining attempts without buying anything (browsing fatigue).
// Negative amounts are ignored so the counter never grows mid-visit.
func (c *Customer) Decay(amount float64) {
	if amount <= 0 {
		return
	}
	c.attempts -= amount
}

// Spent returns money on arrival minus money now.
func (c *Customer) Spent() decimal.Decimal {
	return c.visitMoney.Sub(c.money)
}

// Reset restores the customer to their starting state for another day.
func (c *Customer) Reset() error {
	if c.Resident() {
		return fmt.Errorf("reset %q: %w", c.name, ErrResident)
	}
	c.money = c.startingMoney
	c.visitMoney = c.startingMoney
	c.attempts = c.startingAttempts
	c.purchases.Clear()
	c.entryMinute = nil
	return nil
}

// SetMoney sets both current and starting money.
func (c *Customer) SetMoney(money decimal.Decimal) error {
	if c.Resident() {
		return fmt.Errorf("set money for %q: %w", c.name, ErrResident)
	}
	c.money = money
	c.startingMoney = money
	c.visitMoney = money
	return nil
}

// SetAttempts sets both remaining and starting buy attempts.
func (c *Customer) SetAttempts(attempts float64) error {
	if c.Resident() {
		return fmt.Errorf("set attempts for %q: %w", c.name, ErrResident)
	}
	c.attempts = attempts
	c.startingAttempts = attempts
	return nil
}

// SetTags replaces the customer's interests.
func (c *Customer) SetTags(tags []string) error {
	if c.Resident() {
		return fmt.Errorf("set tags for %q: %w", c.name, ErrResident)
	}
	if len(tags) == 0 {
		tags = []string{catalog.WildcardTag}
	}
	c.tags = append([]string(nil), tags...)
	return nil
}

// Enter marks arrival at minute. Only the engine calls this.
func (c *Customer) Enter(minute int) {
	m := minute
	c.entryMinute = &m
	c.visitMoney = c.money
}

// Leave marks departure and clears the visit's purchases. Only the engine calls this.
func (c *Customer) Leave() {
	c.entryMinute = nil
	c.purchases.Clear()
}

// Clone copies the customer under a new name. Used to admit a shopper whose
// name collides with someone already inside.
func (c *Customer) Clone(name string) *Customer {
	out := *c
	out.name = name
	out.tags = append([]string(nil), c.tags...)
	out.purchases = c.purchases.Clone()
	out.entryMinute = nil
	return &out
}

func (c *Customer) String() string {
	return fmt.Sprintf("Name: %s ; Tags: %s ; Money: %s ; Bought: %s ; Remaining Buys: %.1f",
		c.name, strings.Join(c.tags, ","), c.money.StringFixed(2), c.purchases, c.attempts)
}
