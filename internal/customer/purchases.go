package customer

import (
	"fmt"
	"strings"

	"github.com/talgya/storesim/internal/catalog"
)

// Line is one item id with the quantity bought.
type Line struct {
	ItemID   catalog.ItemID `json:"item_id"`
	Quantity int            `json:"quantity"`
}

func (l Line) String() string {
	return fmt.Sprintf("id:%d qty:%d", l.ItemID, l.Quantity)
}

// Purchases is an item → quantity map that iterates in first-purchase order.
type Purchases struct {
	order []catalog.ItemID
	qty   map[catalog.ItemID]int
}

// Add records n more units of id.
func (p *Purchases) Add(id catalog.ItemID, n int) {
	if p.qty == nil {
		p.qty = make(map[catalog.ItemID]int)
	}
	if _, ok := p.qty[id]; !ok {
		p.order = append(p.order, id)
	}
	p.qty[id] += n
}

// Quantity returns the units bought of id.
func (p Purchases) Quantity(id catalog.ItemID) int {
	return p.qty[id]
}

// Len returns the number of distinct items.
func (p Purchases) Len() int {
	return len(p.order)
}

// Lines returns the entries in insertion order.
func (p Purchases) Lines() []Line {
	out := make([]Line, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, Line{ItemID: id, Quantity: p.qty[id]})
	}
	return out
}

// Clear empties the ledger.
func (p *Purchases) Clear() {
	p.order = nil
	p.qty = nil
}

// Clone returns an independent copy.
func (p Purchases) Clone() Purchases {
	out := Purchases{order: append([]catalog.ItemID(nil), p.order...)}
	if p.qty != nil {
		out.qty = make(map[catalog.ItemID]int, len(p.qty))
		for k, v := range p.qty {
			out.qty[k] = v
		}
	}
	return out
}

func (p Purchases) String() string {
	parts := make([]string, 0, len(p.order))
	for _, l := range p.Lines() {
		parts = append(parts, l.String())
	}
	return strings.Join(parts, ",")
}
