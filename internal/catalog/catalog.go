package catalog

import (
	"fmt"
	"math"
)

// Catalog is the item table plus its derived group index.
// It has no internal locking; a single engine owns it.
type Catalog struct {
	items  []Item
	byID   map[ItemID]int // ID → position in items
	groups GroupIndex
}

// New builds a catalog from records. See Load.
func New(records []Item) (*Catalog, error) {
	c := &Catalog{}
	if err := c.Load(records); err != nil {
		return nil, err
	}
	return c, nil
}

// Load replaces the item table with records and rebuilds the group index.
// On error the previous contents are left untouched.
func (c *Catalog) Load(records []Item) error {
	items := make([]Item, 0, len(records))
	byID := make(map[ItemID]int, len(records))
	for _, rec := range records {
		if _, dup := byID[rec.ID]; dup {
			return fmt.Errorf("load catalog: %w: %d", ErrDuplicateKey, rec.ID)
		}
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		byID[rec.ID] = len(items)
		items = append(items, rec.clone())
	}

	c.items = items
	c.byID = byID
	c.groups = buildGroupIndex(items)
	return nil
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Groups returns the tag group index.
func (c *Catalog) Groups() GroupIndex {
	return c.groups
}

// Get returns a copy of the item with the given id.
func (c *Catalog) Get(id ItemID) (Item, error) {
	pos, ok := c.byID[id]
	if !ok {
		return Item{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return c.items[pos].clone(), nil
}

// Items returns a copy of the table in catalog order.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	for i, it := range c.items {
		out[i] = it.clone()
	}
	return out
}

// AdjustStock adds delta to an item's stock, rounding the result to the
// nearest integer, and returns the new level. No floor is enforced here;
// purchase logic never requests a result below zero.
func (c *Catalog) AdjustStock(id ItemID, delta float64) (int, error) {
	pos, ok := c.byID[id]
	if !ok {
		return 0, fmt.Errorf("adjust stock: %w: %d", ErrNotFound, id)
	}
	it := &c.items[pos]
	it.Stock = int(math.Round(float64(it.Stock) + delta))
	return it.Stock, nil
}

// ItemsWithStockAtMost returns every item whose stock is <= threshold, in catalog order.
func (c *Catalog) ItemsWithStockAtMost(threshold int) []Item {
	var out []Item
	for _, it := range c.items {
		if it.Stock <= threshold {
			out = append(out, it.clone())
		}
	}
	return out
}

// Candidates builds the weighted draw list for a shopper with the given
// tags: every reachable in-stock item appears Weight times, in catalog order.
func (c *Catalog) Candidates(tags []string) []ItemID {
	reachable := c.groups.GroupsFor(tags)
	if len(reachable) == 0 {
		return nil
	}

	var out []ItemID
	for _, it := range c.items {
		if it.Stock <= 0 || it.Weight <= 0 {
			continue
		}
		if _, ok := reachable[it.ID]; !ok {
			continue
		}
		for i := 0; i < it.Weight; i++ {
			out = append(out, it.ID)
		}
	}
	return out
}
