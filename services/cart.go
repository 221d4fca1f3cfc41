package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"vegn-telegram/models"
	"vegn-telegram/storage"
)

const cartKeyPrefix = "vegn-bio-cart"

// CartKey is the storage key of a customer's cart.
func CartKey(userID int64) string {
	return fmt.Sprintf("%s:%d", cartKeyPrefix, userID)
}

// Cart holds one line per menu item. Adding an item that is already in the
// cart bumps its quantity.
type Cart struct {
	lines *storage.Collection[models.CartLine]
	// onAdd is called after every successful Add, outside the cart lock.
	onAdd func(ctx context.Context, itemID int64)
}

func NewCart(ctx context.Context, kv storage.KV, userID int64, logger *zap.Logger) *Cart {
	return &Cart{
		lines: storage.NewCollection(ctx, kv, CartKey(userID), func(l models.CartLine) int64 { return l.MenuItem.ID }, logger),
	}
}

// Add puts one unit of item into the cart. The restaurant reference is copied
// into the line the first time the item is added.
func (c *Cart) Add(ctx context.Context, item models.MenuItem, restaurant models.RestaurantRef) {
	c.lines.Mutate(ctx, func(lines []models.CartLine) ([]models.CartLine, bool) {
		for i := range lines {
			if lines[i].MenuItem.ID == item.ID {
				lines[i].Quantity++
				return lines, true
			}
		}
		return append(lines, models.CartLine{MenuItem: item, RestaurantRef: restaurant, Quantity: 1}), true
	})
	if c.onAdd != nil {
		c.onAdd(ctx, item.ID)
	}
}

// Remove drops the line for itemID if there is one.
func (c *Cart) Remove(ctx context.Context, itemID int64) {
	c.lines.Remove(ctx, itemID)
}

// UpdateQuantity sets the quantity of a line. A quantity of zero or less removes it.
func (c *Cart) UpdateQuantity(ctx context.Context, itemID int64, quantity int) {
	if quantity <= 0 {
		c.Remove(ctx, itemID)
		return
	}
	c.lines.Update(ctx, itemID, func(l *models.CartLine) {
		l.Quantity = quantity
	})
}

// Increment adds delta to a line's quantity, removing it when the result drops to zero.
func (c *Cart) Increment(ctx context.Context, itemID int64, delta int) {
	line, ok := c.lines.Find(itemID)
	if !ok {
		return
	}
	c.UpdateQuantity(ctx, itemID, line.Quantity+delta)
}

func (c *Cart) Clear(ctx context.Context) {
	c.lines.Clear(ctx)
}

// Lines returns a copy of the cart lines in insertion order.
func (c *Cart) Lines() []models.CartLine {
	return c.lines.Items()
}

func (c *Cart) Line(itemID int64) (models.CartLine, bool) {
	return c.lines.Find(itemID)
}

// TotalPrice is the sum of price times quantity over all lines, in cents.
func (c *Cart) TotalPrice() int64 {
	var total int64
	for _, l := range c.lines.Items() {
		total += l.SubtotalCents()
	}
	return total
}

// TotalItems is the sum of quantities over all lines.
func (c *Cart) TotalItems() int {
	total := 0
	for _, l := range c.lines.Items() {
		total += l.Quantity
	}
	return total
}

func (c *Cart) IsEmpty() bool {
	return c.lines.Len() == 0
}
