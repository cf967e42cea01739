package engine

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/storesim/internal/catalog"
	"github.com/talgya/storesim/internal/customer"
)

func shopItems() []catalog.Item {
	return []catalog.Item{
		item(1, "0.99", 40, 5, "food", "snack"),
		item(2, "3.50", 10, 2, "food"),
		item(3, "24.00", 3, 1, "tools"),
		item(4, "8.25", 6, 3, "clothing"),
		item(5, "1.00", 50, 0, "food"),
		item(6, "15.00", 2, 2, "tools", "garden"),
	}
}

func queue(t *testing.T, s *Store, n int) []*customer.Customer {
	t.Helper()
	return s.Spawner.SpawnBatch(n)
}

func TestSimulateDayProperties(t *testing.T) {
	s := newTestStore(t, DefaultConfig(), 2024, shopItems()...)
	costs := map[catalog.ItemID]decimal.Decimal{}
	for _, it := range s.StockSnapshot() {
		costs[it.ID] = it.Cost
	}

	lastAttempts := map[string]float64{}
	s.OnAction = func(a Action) {
		for _, it := range s.StockSnapshot() {
			require.GreaterOrEqual(t, it.Stock, 0, "item %d went negative", it.ID)
		}
		if prev, ok := lastAttempts[a.Customer]; ok {
			require.LessOrEqual(t, a.RemainingAttempts, prev, "attempts grew for %s", a.Customer)
		}
		lastAttempts[a.Customer] = a.RemainingAttempts
		if a.Intent == IntentBuy && !a.Forced {
			require.NotEqual(t, catalog.ItemID(5), a.ItemID, "zero-weight item drawn")
		}
	}

	customers := queue(t, s, 40)
	sum, err := s.SimulateDay(DayOptions{
		Customers:      customers,
		AllowSynthetic: true,
		ArrivalChance:  0.4,
		MaxArrivals:    3,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, sum.Day)
	assert.Empty(t, s.Residents())
	assert.Equal(t, s.Config().CloseMinute, s.CurrentMinute())

	ledger := s.Ledger()
	assert.Equal(t, sum.Visitors, sum.Transactions)
	assert.Equal(t, sum.Visitors, len(ledger))

	names := map[string]bool{}
	income := decimal.Zero
	for i, r := range ledger {
		assert.Equal(t, i, r.ID)
		assert.False(t, names[r.CustomerName], "%s departed twice", r.CustomerName)
		names[r.CustomerName] = true
		assert.GreaterOrEqual(t, r.TimeLeft, r.TimeEntered)
		income = income.Add(r.AmountSpent)
	}
	assert.True(t, income.Round(2).Equal(sum.Income))
	assert.True(t, sum.Income.Equal(s.Income()))

	byName := map[string]TransactionRecord{}
	for _, r := range ledger {
		byName[r.CustomerName] = r
	}
	for _, c := range customers {
		r, ok := byName[c.Name()]
		if !ok {
			continue
		}
		assert.True(t, r.AmountSpent.Equal(c.StartingMoney().Sub(c.Money())), "spend for %s", c.Name())
		if !c.UsesCredit() {
			want := decimal.Zero
			for _, l := range r.Items {
				want = want.Add(costs[l.ItemID].Mul(decimal.NewFromInt(int64(l.Quantity))))
			}
			assert.True(t, r.AmountSpent.Equal(want), "line total for %s", c.Name())
			assert.False(t, c.Money().IsNegative())
		}
	}
}

func TestSimulateDayQueueOnlyVisitsOnce(t *testing.T) {
	s := newTestStore(t, DefaultConfig(), 77, shopItems()...)
	customers := queue(t, s, 5)

	sum, err := s.SimulateDay(DayOptions{Customers: customers, ArrivalChance: 1, MaxArrivals: 3})
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Visitors)
	assert.Equal(t, 5, sum.Transactions)

	seen := map[string]int{}
	for _, r := range s.Ledger() {
		seen[r.CustomerName]++
	}
	for _, c := range customers {
		assert.Equal(t, 1, seen[c.Name()])
	}
}

func TestSimulateDaySyntheticFallback(t *testing.T) {
	s := newTestStore(t, DefaultConfig(), 78, shopItems()...)

	sum, err := s.SimulateDay(DayOptions{Customers: queue(t, s, 2), AllowSynthetic: true, ArrivalChance: 1, MaxArrivals: 1})
	require.NoError(t, err)

	// One arrival before every tick from 9:00 to 17:55.
	ticks := (s.Config().CloseMinute - s.Config().OpenMinute) / s.Config().IntervalMinutes
	assert.Equal(t, ticks, sum.Visitors)
}

func TestSimulateDayNoArrivals(t *testing.T) {
	s := newTestStore(t, DefaultConfig(), 79, shopItems()...)

	sum, err := s.SimulateDay(DayOptions{Customers: queue(t, s, 10), AllowSynthetic: true, ArrivalChance: 0, MaxArrivals: 3})
	require.NoError(t, err)
	assert.Zero(t, sum.Visitors)
	assert.Empty(t, s.Ledger())
	assert.True(t, sum.Income.IsZero())
}

func TestSimulateDayResetsBetweenDays(t *testing.T) {
	s := newTestStore(t, DefaultConfig(), 80, shopItems()...)
	customers := queue(t, s, 20)
	opts := DayOptions{Customers: customers, ArrivalChance: 0.5, MaxArrivals: 2}

	_, err := s.SimulateDay(opts)
	require.NoError(t, err)
	stockAfterDayOne := s.StockSnapshot()

	for _, c := range customers {
		require.NoError(t, c.Reset())
	}
	sum, err := s.SimulateDay(opts)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Day)
	assert.Equal(t, 2, s.Day())
	ledger := s.Ledger()
	require.NotEmpty(t, ledger)
	assert.Equal(t, 0, ledger[0].ID, "transaction ids restart each day")

	// Stock carries over: nothing can be above day one's level.
	after := s.StockSnapshot()
	for i := range after {
		assert.LessOrEqual(t, after[i].Stock, stockAfterDayOne[i].Stock)
	}
}

func TestSimulateDayDeterministic(t *testing.T) {
	run := func() []byte {
		s := newTestStore(t, DefaultConfig(), 4242, shopItems()...)
		_, err := s.SimulateDay(DayOptions{Customers: queue(t, s, 30), AllowSynthetic: true, ArrivalChance: 0.3, MaxArrivals: 3})
		require.NoError(t, err)
		out, err := json.Marshal(s.Ledger())
		require.NoError(t, err)
		return out
	}
	assert.JSONEq(t, string(run()), string(run()))
}

func TestSimulateDayInvalidOptions(t *testing.T) {
	s := newTestStore(t, DefaultConfig(), 1, shopItems()...)

	_, err := s.SimulateDay(DayOptions{ArrivalChance: 1.5, MaxArrivals: 1})
	assert.ErrorIs(t, err, ErrInvalidOptions)
	_, err = s.SimulateDay(DayOptions{ArrivalChance: 0.5, MaxArrivals: 0})
	assert.ErrorIs(t, err, ErrInvalidOptions)
	assert.Equal(t, 0, s.Day())
}

func TestSimulateDayClearsLeftoverResidents(t *testing.T) {
	s := newTestStore(t, DefaultConfig(), 1, shopItems()...)
	left := s.Admit(customer.New("Lingerer", nil, dec("5"), 3, false))

	_, err := s.SimulateDay(DayOptions{ArrivalChance: 0, MaxArrivals: 1})
	require.NoError(t, err)
	assert.False(t, left.Resident())
	assert.Empty(t, s.Ledger())
}

func TestTransactionRecordJSON(t *testing.T) {
	r := TransactionRecord{
		ID:           3,
		CustomerName: "Ann",
		Items:        []customer.Line{{ItemID: 1, Quantity: 2}, {ItemID: 7, Quantity: 1}},
		AmountSpent:  dec("4.5"),
		TimeEntered:  545,
		TimeLeft:     600,
	}
	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"transaction_id": 3,
		"customer_name": "Ann",
		"items": ["id:1 qty:2", "id:7 qty:1"],
		"amount_spent": "4.50",
		"time_entered": "9:05",
		"time_left": "10:00"
	}`, string(out))
}

func TestFootTrafficModulate(t *testing.T) {
	flat := NewFootTraffic(1, 0, 60)
	assert.InDelta(t, 0.3, flat.Modulate(0.3, 1, 600), 1e-12)

	ft := NewFootTraffic(1, 1, 60)
	for minute := 540; minute < 1080; minute += 5 {
		p := ft.Modulate(0.8, 2, minute)
		assert.GreaterOrEqual(t, p, 0.0)
		assert.LessOrEqual(t, p, 1.0)
	}
	assert.Equal(t, ft.Modulate(0.5, 3, 700), NewFootTraffic(1, 1, 60).Modulate(0.5, 3, 700))
}

func TestSimulateDayWithTraffic(t *testing.T) {
	s := newTestStore(t, DefaultConfig(), 5, shopItems()...)
	s.Traffic = NewFootTraffic(5, 0.8, 90)

	sum, err := s.SimulateDay(DayOptions{AllowSynthetic: true, ArrivalChance: 0.3, MaxArrivals: 2})
	require.NoError(t, err)
	assert.Equal(t, sum.Visitors, sum.Transactions)
}
