package customer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/storesim/internal/catalog"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewDefaultsToWildcard(t *testing.T) {
	c := New("Ann", nil, money("10"), 5, true)
	assert.Equal(t, []string{catalog.WildcardTag}, c.Tags())
	assert.False(t, c.Resident())
}

func TestAttemptPurchaseWithinBudget(t *testing.T) {
	c := New("Ann", []string{"food"}, money("5.00"), 2, false)

	ok := c.AttemptPurchase(1, money("1.50"))
	require.True(t, ok)
	assert.Equal(t, "3.50", c.Money().StringFixed(2))
	assert.Equal(t, 1.0, c.RemainingAttempts())
	assert.Equal(t, 1, c.Purchases().Quantity(1))

	ok = c.AttemptPurchase(1, money("1.50"))
	require.True(t, ok)
	assert.Equal(t, 2, c.Purchases().Quantity(1))
	assert.Equal(t, "3.00", c.Spent().StringFixed(2))
}

func TestAttemptPurchaseRefusedStillConsumesAttempt(t *testing.T) {
	c := New("Bob", []string{"tools"}, money("2.00"), 3, false)

	ok := c.AttemptPurchase(7, money("2.01"))
	assert.False(t, ok)
	assert.Equal(t, 2.0, c.RemainingAttempts())
	assert.Equal(t, "2.00", c.Money().StringFixed(2))
	assert.Equal(t, 0, c.Purchases().Len())
}

func TestAttemptPurchaseExactBudget(t *testing.T) {
	c := New("Bob", nil, money("2.00"), 3, false)
	assert.True(t, c.AttemptPurchase(7, money("2.00")))
	assert.True(t, c.Money().IsZero())
}

func TestCreditAllowsNegativeMoney(t *testing.T) {
	c := New("Cat", nil, money("1.00"), 3, true)

	require.True(t, c.AttemptPurchase(4, money("5.00")))
	assert.Equal(t, "-4.00", c.Money().StringFixed(2))
	assert.Equal(t, "5.00", c.Spent().StringFixed(2))
}

func TestWantsToContinueAndDecay(t *testing.T) {
	c := New("Dee", nil, money("10"), 0.5, false)
	assert.True(t, c.WantsToContinue())

	c.Decay(0.2)
	assert.InDelta(t, 0.3, c.RemainingAttempts(), 1e-9)
	assert.True(t, c.WantsToContinue())

	c.Decay(-5)
	assert.InDelta(t, 0.3, c.RemainingAttempts(), 1e-9, "negative decay is ignored")

	c.Decay(0.3)
	assert.False(t, c.WantsToContinue())
}

func TestPurchasesKeepInsertionOrder(t *testing.T) {
	c := New("Eve", nil, money("100"), 10, false)
	for _, id := range []catalog.ItemID{9, 2, 9, 5, 2, 9} {
		require.True(t, c.AttemptPurchase(id, money("1")))
	}

	lines := c.Purchases().Lines()
	assert.Equal(t, []Line{{9, 3}, {2, 2}, {5, 1}}, lines)
	assert.Equal(t, "id:9 qty:3,id:2 qty:2,id:5 qty:1", c.Purchases().String())
}

func TestResetRestoresStartingState(t *testing.T) {
	c := New("Fay", []string{"snack"}, money("20.00"), 4, false)
	require.True(t, c.AttemptPurchase(1, money("3.00")))
	c.Decay(0.2)

	require.NoError(t, c.Reset())
	assert.Equal(t, "20.00", c.Money().StringFixed(2))
	assert.Equal(t, 4.0, c.RemainingAttempts())
	assert.Equal(t, 0, c.Purchases().Len())
	_, ok := c.EntryMinute()
	assert.False(t, ok)
}

func TestResidentCannotBeReconfigured(t *testing.T) {
	c := New("Gus", nil, money("20.00"), 4, false)
	c.Enter(600)

	minute, ok := c.EntryMinute()
	require.True(t, ok)
	assert.Equal(t, 600, minute)

	assert.ErrorIs(t, c.Reset(), ErrResident)
	assert.ErrorIs(t, c.SetMoney(money("1")), ErrResident)
	assert.ErrorIs(t, c.SetAttempts(1), ErrResident)
	assert.ErrorIs(t, c.SetTags([]string{"x"}), ErrResident)

	c.Leave()
	assert.NoError(t, c.Reset())
}

func TestSpentIsPerVisit(t *testing.T) {
	c := New("Hal", nil, money("10.00"), 10, false)

	c.Enter(540)
	require.True(t, c.AttemptPurchase(1, money("4.00")))
	c.Leave()

	// Without a reset the next visit starts from the lower balance.
	c.Enter(600)
	require.True(t, c.AttemptPurchase(1, money("1.00")))
	assert.Equal(t, "1.00", c.Spent().StringFixed(2))
}

func TestCloneIsIndependent(t *testing.T) {
	c := New("Ivy", []string{"food"}, money("10.00"), 3, false)
	require.True(t, c.AttemptPurchase(1, money("1.00")))

	cp := c.Clone("Ivy ?")
	assert.Equal(t, "Ivy ?", cp.Name())
	require.True(t, cp.AttemptPurchase(2, money("1.00")))

	assert.Equal(t, 1, c.Purchases().Len())
	assert.Equal(t, 2, cp.Purchases().Len())
	assert.Equal(t, "9.00", c.Money().StringFixed(2))
}

func TestSetters(t *testing.T) {
	c := New("Jo", nil, money("1"), 1, false)
	require.NoError(t, c.SetMoney(money("33.33")))
	require.NoError(t, c.SetAttempts(2.5))
	require.NoError(t, c.SetTags(nil))

	assert.Equal(t, "33.33", c.StartingMoney().StringFixed(2))
	assert.Equal(t, 2.5, c.RemainingAttempts())
	assert.Equal(t, []string{catalog.WildcardTag}, c.Tags())

	require.True(t, c.AttemptPurchase(1, money("3.33")))
	require.NoError(t, c.Reset())
	assert.Equal(t, "33.33", c.Money().StringFixed(2))
	assert.Equal(t, 2.5, c.RemainingAttempts())
}
