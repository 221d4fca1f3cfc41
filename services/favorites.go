package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vegn-telegram/models"
	"vegn-telegram/storage"
)

const favoritesKeyPrefix = "vegn-bio-favorites"

func FavoritesKey(userID int64) string {
	return fmt.Sprintf("%s:%d", favoritesKeyPrefix, userID)
}

// Favorites is a set of saved menu items, kept in the order they were saved.
type Favorites struct {
	items *storage.Collection[models.FavoriteItem]
	now   func() time.Time
}

func NewFavorites(ctx context.Context, kv storage.KV, userID int64, logger *zap.Logger) *Favorites {
	return &Favorites{
		items: storage.NewCollection(ctx, kv, FavoritesKey(userID), func(f models.FavoriteItem) int64 { return f.MenuItem.ID }, logger),
		now:   time.Now,
	}
}

// Add saves item. Adding an item that is already saved changes nothing, AddedAt included.
func (f *Favorites) Add(ctx context.Context, item models.MenuItem, restaurant models.RestaurantRef) bool {
	return f.items.Append(ctx, models.FavoriteItem{
		MenuItem:      item,
		RestaurantRef: restaurant,
		AddedAt:       f.now().UTC(),
	})
}

func (f *Favorites) Remove(ctx context.Context, itemID int64) {
	f.items.Remove(ctx, itemID)
}

// Toggle saves item if absent and removes it otherwise. It returns the new state.
func (f *Favorites) Toggle(ctx context.Context, item models.MenuItem, restaurant models.RestaurantRef) bool {
	if f.IsFavorite(item.ID) {
		f.Remove(ctx, item.ID)
		return false
	}
	f.Add(ctx, item, restaurant)
	return true
}

func (f *Favorites) IsFavorite(itemID int64) bool {
	return f.items.Contains(itemID)
}

func (f *Favorites) Clear(ctx context.Context) {
	f.items.Clear(ctx)
}

func (f *Favorites) Count() int {
	return f.items.Len()
}

func (f *Favorites) Items() []models.FavoriteItem {
	return f.items.Items()
}
