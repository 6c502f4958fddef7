// Package cart holds per-visitor shopping carts in process memory.
package cart

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// AddedMarkTTL is how long a card shows "Added!" after an add.
const AddedMarkTTL = 2 * time.Second

// Item is one cart line. ID is the product id and the merge key.
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Image    string          `json:"image"`
	SKU      string          `json:"sku"`
}

func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart holds at most one line per product id, each with quantity >= 1.
type Cart struct {
	mu      sync.Mutex
	items   []Item
	added   map[string]time.Time
	pricing Pricing
	touched time.Time
}

func New(p Pricing) *Cart {
	return &Cart{pricing: p, added: make(map[string]time.Time), touched: time.Now()}
}

// Add merges item into an existing line of the same id or appends it.
func (c *Cart) Add(item Item, now time.Time) {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touched = now
	c.added[item.ID] = now
	for i := range c.items {
		if c.items[i].ID == item.ID {
			c.items[i].Quantity += item.Quantity
			return
		}
	}
	c.items = append(c.items, item)
}

// UpdateQuantity sets the line quantity, floored at 1. Unknown ids are ignored.
func (c *Cart) UpdateQuantity(id string, q int) {
	if q < 1 {
		q = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Quantity = q
			return
		}
	}
}

func (c *Cart) Increment(id string) { c.step(id, 1) }
func (c *Cart) Decrement(id string) { c.step(id, -1) }

func (c *Cart) step(id string, d int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id {
			if q := c.items[i].Quantity + d; q >= 1 {
				c.items[i].Quantity = q
			}
			return
		}
	}
}

// Remove deletes the line for id and reports whether one existed.
func (c *Cart) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			delete(c.added, id)
			return true
		}
	}
	return false
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.added = make(map[string]time.Time)
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Get(id string) (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range c.items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

func (c *Cart) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items) == 0
}

func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items() {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Subtotal() decimal.Decimal {
	return c.pricing.Subtotal(c.Items())
}

func (c *Cart) Shipping() decimal.Decimal {
	return c.pricing.Shipping(c.Subtotal())
}

// Total is subtotal plus shipping and tax.
func (c *Cart) Total() decimal.Decimal {
	return c.Quote().Total
}

// Quote prices the current lines, tax included.
func (c *Cart) Quote() Quote {
	return c.pricing.Quote(c.Items())
}

// JustAdded reports whether id was added within AddedMarkTTL of now.
func (c *Cart) JustAdded(id string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	at, ok := c.added[id]
	if !ok {
		return false
	}
	if now.Sub(at) >= AddedMarkTTL {
		delete(c.added, id)
		return false
	}
	return true
}

func (c *Cart) touch(now time.Time) {
	c.mu.Lock()
	c.touched = now
	c.mu.Unlock()
}

func (c *Cart) idleSince() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.touched
}
