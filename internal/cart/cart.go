// Package cart holds the items a customer picked from one shop.
package cart

import (
	"sync"

	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Snapshot is a priced, immutable copy of a cart taken at checkout.
type Snapshot struct {
	ShopID string           `json:"shop_id"`
	Lines  []model.CartLine `json:"lines"`
	Total  decimal.Decimal  `json:"total"`
}

// IsEmpty reports whether the snapshot has no lines.
func (s Snapshot) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Cart is an ordered set of lines that all belong to one shop. It is safe
// for concurrent use.
type Cart struct {
	logger zerolog.Logger

	mu     sync.Mutex
	shopID string
	lines  []model.CartLine
}

// New creates an empty cart.
func New(logger zerolog.Logger) *Cart {
	return &Cart{
		logger: logger.With().Str("component", "cart").Logger(),
	}
}

// AddItem adds one unit of item. An empty cart binds to the item's shop;
// an item of any other shop is refused with model.ErrCrossShopItem and the
// cart is left as it was.
func (c *Cart) AddItem(item model.MenuItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.lines) > 0 && item.ShopID != c.shopID {
		c.logger.Warn().
			Str("shop_id", c.shopID).
			Str("item_shop_id", item.ShopID).
			Str("item_id", item.ID).
			Msg("refusing item from another shop")
		return model.ErrCrossShopItem
	}

	if i := c.indexOf(item.ID); i >= 0 {
		c.lines[i].Quantity++
		return nil
	}

	c.shopID = item.ShopID
	c.lines = append(c.lines, model.CartLine{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.UnitPrice,
		Quantity:  1,
	})
	return nil
}

// UpdateQuantity sets the quantity of a line. A quantity below 1 removes the
// line. Unknown items are ignored.
func (c *Cart) UpdateQuantity(itemID string, quantity int) {
	if quantity < 1 {
		c.RemoveItem(itemID)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexOf(itemID); i >= 0 {
		c.lines[i].Quantity = quantity
	}
}

// RemoveItem deletes a line if present.
func (c *Cart) RemoveItem(itemID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(itemID)
	if i < 0 {
		return
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	if len(c.lines) == 0 {
		c.shopID = ""
	}
}

// Total returns Σ unitPrice × quantity over the current lines.
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	return total(c.lines)
}

// Clear empties the cart and releases its shop binding.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = nil
	c.shopID = ""
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []model.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]model.CartLine(nil), c.lines...)
}

// ShopID returns the shop the cart is bound to, or "" when empty.
func (c *Cart) ShopID() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.shopID
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return c.Len() == 0
}

// Snapshot returns a consistent copy of shop, lines and total.
func (c *Cart) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		ShopID: c.shopID,
		Lines:  append([]model.CartLine(nil), c.lines...),
		Total:  total(c.lines),
	}
}

func (c *Cart) indexOf(itemID string) int {
	for i, l := range c.lines {
		if l.ItemID == itemID {
			return i
		}
	}
	return -1
}

func total(lines []model.CartLine) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}
