package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(id int, name string, cost string, stock, weight int, tags ...string) Item {
	return Item{
		ID:     ItemID(id),
		Name:   name,
		Tags:   tags,
		Cost:   decimal.RequireFromString(cost),
		Stock:  stock,
		Weight: weight,
	}
}

func sampleItems() []Item {
	return []Item{
		item(1, "Apple", "0.50", 10, 3, "Food", "Fruit"),
		item(2, "Hammer", "12.00", 2, 1, "Tools"),
		item(3, "Chips", "1.25", 0, 2, "Food", "Snack"),
		item(4, "Poster", "4.00", 5, 0, "Decor"),
		item(5, "Mystery", "2.00", 1, 1),
	}
}

func TestLoadRejectsDuplicateID(t *testing.T) {
	records := sampleItems()
	records = append(records, item(2, "Other Hammer", "9.00", 1, 1, "Tools"))

	c, err := New(records)
	require.ErrorIs(t, err, ErrDuplicateKey)
	assert.Nil(t, c)
}

func TestLoadFailureKeepsPreviousTable(t *testing.T) {
	c, err := New(sampleItems())
	require.NoError(t, err)

	err = c.Load([]Item{item(9, "A", "1", 1, 1), item(9, "B", "1", 1, 1)})
	require.ErrorIs(t, err, ErrDuplicateKey)
	assert.Equal(t, 5, c.Len())
	_, err = c.Get(9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadRejectsNegativeFields(t *testing.T) {
	tests := []struct {
		name string
		it   Item
	}{
		{"cost", item(1, "x", "-1", 1, 1)},
		{"stock", item(1, "x", "1", -1, 1)},
		{"weight", item(1, "x", "1", 1, -1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New([]Item{tt.it})
			assert.ErrorIs(t, err, ErrInvalidItem)
		})
	}
}

func TestGetUnknownID(t *testing.T) {
	c, err := New(sampleItems())
	require.NoError(t, err)

	_, err = c.Get(42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	c, err := New(sampleItems())
	require.NoError(t, err)

	it, err := c.Get(1)
	require.NoError(t, err)
	it.Tags[0] = "mutated"
	it.Stock = 999

	again, err := c.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Food", again.Tags[0])
	assert.Equal(t, 10, again.Stock)
}

func TestAdjustStock(t *testing.T) {
	c, err := New(sampleItems())
	require.NoError(t, err)

	got, err := c.AdjustStock(1, -1)
	require.NoError(t, err)
	assert.Equal(t, 9, got)

	got, err = c.AdjustStock(1, 2.6)
	require.NoError(t, err)
	assert.Equal(t, 12, got)

	got, err = c.AdjustStock(1, -0.4)
	require.NoError(t, err)
	assert.Equal(t, 12, got)

	_, err = c.AdjustStock(77, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestItemsWithStockAtMostKeepsOrder(t *testing.T) {
	c, err := New(sampleItems())
	require.NoError(t, err)

	low := c.ItemsWithStockAtMost(2)
	ids := make([]ItemID, 0, len(low))
	for _, it := range low {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []ItemID{2, 3, 5}, ids)
	assert.Empty(t, c.ItemsWithStockAtMost(-1))
}

func TestGroupIndex(t *testing.T) {
	c, err := New(sampleItems())
	require.NoError(t, err)
	g := c.Groups()

	assert.Len(t, g.GroupsFor([]string{"any"}), 5, "wildcard covers items with no tags")
	assert.Len(t, g.GroupsFor([]string{"ANY"}), 5)
	assert.Equal(t, map[ItemID]struct{}{1: {}, 3: {}}, g.GroupsFor([]string{"food"}))
	assert.Equal(t, map[ItemID]struct{}{1: {}, 2: {}, 3: {}}, g.GroupsFor([]string{"Fruit", "Tools", "Snack"}))
	assert.Empty(t, g.GroupsFor([]string{"unknown"}))
	assert.Empty(t, g.GroupsFor(nil))

	assert.Equal(t, []string{"decor", "food", "fruit", "snack", "tools"}, g.Tags())
	assert.True(t, g.Has("Tools"))
	assert.False(t, g.Has("garden"))
}

func TestCandidatesRepeatByWeight(t *testing.T) {
	c, err := New(sampleItems())
	require.NoError(t, err)

	// Chips are out of stock and the poster has zero weight.
	assert.Equal(t, []ItemID{1, 1, 1, 2, 5}, c.Candidates([]string{"any"}))
	assert.Equal(t, []ItemID{1, 1, 1}, c.Candidates([]string{"food"}))
	assert.Empty(t, c.Candidates([]string{"decor"}))
	assert.Empty(t, c.Candidates([]string{"unknown"}))
}

func TestCandidatesTrackStock(t *testing.T) {
	c, err := New(sampleItems())
	require.NoError(t, err)

	_, err = c.AdjustStock(2, -2)
	require.NoError(t, err)
	_, err = c.AdjustStock(3, 1)
	require.NoError(t, err)

	assert.Equal(t, []ItemID{3, 3}, c.Candidates([]string{"snack", "tools"}))
}

func TestZeroWeightNeverCandidate(t *testing.T) {
	c, err := New([]Item{item(1, "Ghost", "1.00", 100, 0, "spooky")})
	require.NoError(t, err)

	assert.Empty(t, c.Candidates([]string{"spooky"}))
	assert.Empty(t, c.Candidates([]string{"any"}))
}
