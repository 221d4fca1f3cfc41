package models

import "time"

// CartLine is a menu item captured at insertion time with its quantity.
// The embedded item is a copy: later catalog changes do not reach it.
type CartLine struct {
	MenuItem
	RestaurantRef
	Quantity int `json:"quantity"`
}

// SubtotalCents is price times quantity, in cents.
func (l CartLine) SubtotalCents() int64 {
	return l.PriceCents * int64(l.Quantity)
}

// FavoriteItem is a saved menu item. AddedAt is set on first insert only.
type FavoriteItem struct {
	MenuItem
	RestaurantRef
	AddedAt time.Time `json:"addedAt"`
}
