package services

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vegn-telegram/models"
	"vegn-telegram/storage"
)

var bastille = models.RestaurantRef{RestaurantID: 1, RestaurantName: "Veg'N Bio Bastille"}

func item(id int64, name string, priceCents int64) models.MenuItem {
	return models.MenuItem{ID: id, Name: name, PriceCents: priceCents, Allergens: []models.Allergen{}}
}

func TestCart_AddTwiceIncrementsQuantity(t *testing.T) {
	ctx := context.Background()
	cart := NewCart(ctx, storage.NewMemory(), 1, nil)

	cart.Add(ctx, item(3, "Salade", 1200), bastille)
	cart.Add(ctx, item(3, "Salade", 1200), bastille)

	lines := cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "Veg'N Bio Bastille", lines[0].RestaurantName)
}

func TestCart_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name      string
		quantity  int
		wantLines int
		wantItems int
	}{
		{"positive sets absolute value", 5, 1, 5},
		{"one", 1, 1, 1},
		{"zero removes", 0, 0, 0},
		{"negative removes", -3, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			cart := NewCart(ctx, storage.NewMemory(), 1, nil)
			cart.Add(ctx, item(7, "Bowl", 500), bastille)
			cart.Add(ctx, item(7, "Bowl", 500), bastille)

			cart.UpdateQuantity(ctx, 7, tt.quantity)

			assert.Len(t, cart.Lines(), tt.wantLines)
			assert.Equal(t, tt.wantItems, cart.TotalItems())
		})
	}
}

func TestCart_UpdateQuantityUnknownItem(t *testing.T) {
	ctx := context.Background()
	cart := NewCart(ctx, storage.NewMemory(), 1, nil)
	cart.UpdateQuantity(ctx, 99, 4)
	assert.True(t, cart.IsEmpty())
}

func TestCart_Totals(t *testing.T) {
	ctx := context.Background()
	cart := NewCart(ctx, storage.NewMemory(), 1, nil)

	cart.Add(ctx, item(7, "Bowl", 500), bastille)
	cart.UpdateQuantity(ctx, 7, 3)

	assert.Equal(t, int64(1500), cart.TotalPrice())
	assert.Equal(t, 3, cart.TotalItems())
}

func TestCart_TotalPriceIsExact(t *testing.T) {
	ctx := context.Background()
	cart := NewCart(ctx, storage.NewMemory(), 1, nil)
	for id := int64(1); id <= 3; id++ {
		cart.Add(ctx, item(id, "Tartine", 333), bastille)
		cart.UpdateQuantity(ctx, id, 3)
	}
	// 3 lines of 333 cents x 3
	assert.Equal(t, int64(2997), cart.TotalPrice())

	cart.Clear(ctx)
	cart.Add(ctx, item(1, "Tartine", 333), bastille)
	cart.UpdateQuantity(ctx, 1, 3)
	assert.Equal(t, int64(999), cart.TotalPrice())
}

func TestCart_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	cart := NewCart(ctx, storage.NewMemory(), 1, nil)
	cart.Add(ctx, item(1, "a", 100), bastille)
	cart.Add(ctx, item(2, "b", 200), bastille)

	cart.Remove(ctx, 1)
	cart.Remove(ctx, 1)
	assert.Len(t, cart.Lines(), 1)

	cart.Clear(ctx)
	assert.True(t, cart.IsEmpty())
	assert.Equal(t, int64(0), cart.TotalPrice())
}

func TestCart_Increment(t *testing.T) {
	ctx := context.Background()
	cart := NewCart(ctx, storage.NewMemory(), 1, nil)
	cart.Add(ctx, item(1, "a", 100), bastille)

	cart.Increment(ctx, 1, 1)
	line, ok := cart.Line(1)
	require.True(t, ok)
	assert.Equal(t, 2, line.Quantity)

	cart.Increment(ctx, 1, -2)
	_, ok = cart.Line(1)
	assert.False(t, ok)
}

func TestCart_SurvivesReload(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	cart := NewCart(ctx, kv, 1, nil)
	cart.Add(ctx, item(1, "Salade", 1200), bastille)
	cart.Add(ctx, item(2, "Burger", 1500), models.RestaurantRef{RestaurantID: 2, RestaurantName: "Veg'N Bio République"})
	cart.UpdateQuantity(ctx, 2, 4)

	reloaded := NewCart(ctx, kv, 1, nil)

	if diff := cmp.Diff(cart.Lines(), reloaded.Lines()); diff != "" {
		t.Errorf("cart lines changed across reload (-before +after):\n%s", diff)
	}
}

func TestCart_ScopedPerUser(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	NewCart(ctx, kv, 1, nil).Add(ctx, item(1, "a", 100), bastille)

	assert.True(t, NewCart(ctx, kv, 2, nil).IsEmpty())
	assert.Equal(t, "vegn-bio-cart:1", CartKey(1))
}

func TestCart_LinesAreDenormalized(t *testing.T) {
	ctx := context.Background()
	cart := NewCart(ctx, storage.NewMemory(), 1, nil)
	src := item(1, "Salade", 1200)
	cart.Add(ctx, src, bastille)

	src.Name = "Renamed"
	src.PriceCents = 9999

	line, _ := cart.Line(1)
	assert.Equal(t, "Salade", line.Name)
	assert.Equal(t, int64(1200), line.PriceCents)
}
