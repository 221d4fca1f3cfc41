package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vegn-telegram/lang"
	"vegn-telegram/models"
	"vegn-telegram/services"
)

// Telegram caps inline keyboards at 100 buttons; keep menus readable well below that.
const maxItemButtons = 40

// fixedPriceRanges are offered on the filters screen when they hold at least one
// loaded item, in euros.
var fixedPriceRanges = [][2]int64{{0, 10}, {10, 20}, {20, 50}}

// pricePresets returns the fixed ranges overlapping the items' prices, the
// whole range of the items and "any price" (0 max means no limit).
func pricePresets(items []models.MenuItem) [][2]int64 {
	lo, hi := services.PriceBounds(items)
	lo, hi = min(lo, services.MaxPrice), min(hi, services.MaxPrice)
	var out [][2]int64
	for _, p := range fixedPriceRanges {
		if p[0] <= hi && p[1] >= lo && p != ([2]int64{lo, hi}) {
			out = append(out, p)
		}
	}
	return append(out, [2]int64{lo, hi}, [2]int64{0, 0})
}

func menuItems(entries []services.CatalogEntry) []models.MenuItem {
	items := make([]models.MenuItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, e.Item)
	}
	return items
}

func (b *Bot) sendRestaurants(ctx context.Context, chatID, userID int64, editID int) {
	l := b.session(ctx, userID).Language()
	restaurants, err := b.catalog.Restaurants(ctx, editID == 0)
	if err != nil {
		b.logger.Warn("failed to list restaurants", zap.Error(err))
		b.sendError(chatID, l, err, actionMenu, editID)
		return
	}
	if len(restaurants) == 0 {
		b.show(chatID, editID, lang.T(l, "no_restaurants"), nil)
		return
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, r := range restaurants {
		label := r.Name
		if r.City != "" {
			label += " · " + r.City
		}
		rows = append(rows, row(button(label, idData(actionRestaurant, r.ID))))
	}
	b.show(chatID, editID, lang.T(l, "choose_restaurant"), keyboard(rows...))
}

func (b *Bot) sendRestaurantMenu(ctx context.Context, chatID, userID, restaurantID int64, editID int) {
	sess := b.session(ctx, userID)
	l := sess.Language()
	restaurant, ok := b.catalog.Restaurant(restaurantID)
	if !ok {
		// restaurant list not loaded yet in this process
		if _, err := b.catalog.Restaurants(ctx, false); err != nil {
			b.sendError(chatID, l, err, idData(actionRestaurant, restaurantID), editID)
			return
		}
		if restaurant, ok = b.catalog.Restaurant(restaurantID); !ok {
			b.show(chatID, editID, lang.T(l, "restaurant_not_found"), keyboard(row(button(lang.T(l, "btn_back"), actionMenu))))
			return
		}
	}
	items, err := b.catalog.MenuItems(ctx, restaurant, false)
	if err != nil {
		b.logger.Warn("failed to load menu", zap.Int64("restaurant_id", restaurantID), zap.Error(err))
		b.sendError(chatID, l, err, idData(actionRestaurant, restaurantID), editID)
		return
	}
	f := sess.Filter()
	filtered := services.ApplyFilter(items, f)

	text := lang.T(l, "menu_header", restaurant.Name, len(filtered), len(items))
	if n := f.ActiveCount(); n > 0 {
		text += "\n" + lang.T(l, "filters_active", n)
	}
	if len(filtered) == 0 {
		text += "\n\n" + lang.T(l, "menu_empty_filtered")
	}
	b.show(chatID, editID, text, b.itemsKeyboard(l, filtered, f.Allergens, actionMenu))
}

func (b *Bot) itemsKeyboard(l string, items []models.MenuItem, prefs map[int64]bool, backData string) *tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, it := range items {
		if i == maxItemButtons {
			break
		}
		rows = append(rows, row(button(itemButtonLabel(it, prefs), idData(actionItem, it.ID))))
	}
	rows = append(rows, row(
		button(lang.T(l, "btn_filters"), actionFilters),
		button(lang.T(l, "btn_cart"), actionCart),
	))
	rows = append(rows, row(button(lang.T(l, "btn_back"), backData)))
	return keyboard(rows...)
}

func (b *Bot) sendItem(ctx context.Context, chatID, userID, itemID int64, editID int) {
	sess := b.session(ctx, userID)
	l := sess.Language()
	entry, ok := b.lookupItem(ctx, sess, itemID)
	if !ok {
		b.show(chatID, editID, lang.T(l, "item_not_found"), keyboard(row(button(lang.T(l, "btn_back"), actionMenu))))
		return
	}
	inCart := 0
	if line, ok := sess.Cart.Line(itemID); ok {
		inCart = line.Quantity
	}
	favorite := sess.Favorites.IsFavorite(itemID)
	text := itemText(l, entry, sess.Allergens.Preferences(), inCart, favorite)

	favLabel := lang.T(l, "btn_favorite_add")
	if favorite {
		favLabel = lang.T(l, "btn_favorite_remove")
	}
	back := actionMenu
	if entry.Restaurant.RestaurantID != 0 {
		back = idData(actionRestaurant, entry.Restaurant.RestaurantID)
	}
	kb := keyboard(
		row(button(lang.T(l, "btn_add_to_cart"), idData(actionAdd, itemID))),
		row(button(favLabel, idData(actionFavorite, itemID))),
		row(button(lang.T(l, "btn_cart"), actionCart), button(lang.T(l, "btn_back"), back)),
	)
	b.show(chatID, editID, text, kb)
}

func (b *Bot) handleSearch(ctx context.Context, chatID, userID int64, term string) {
	sess := b.session(ctx, userID)
	l := sess.Language()
	sess.UpdateFilter(func(f *services.Filter) { f.SearchTerm = term })
	if term == "" {
		b.send(chatID, lang.T(l, "search_usage"))
		return
	}

	items, err := b.searchCandidates(ctx, sess, term)
	if err != nil {
		b.logger.Warn("search failed", zap.String("term", term), zap.Error(err))
		b.sendError(chatID, l, err, actionMenu, 0)
		return
	}
	f := sess.Filter()
	found := services.ApplyFilter(items, f)
	text := lang.T(l, "search_results", term, len(found))
	b.show(chatID, 0, text, b.itemsKeyboard(l, found, f.Allergens, actionMenu))
}

// searchCandidates returns the items a search runs over: the whole catalog,
// loaded first when some restaurant's menus are not cached. If the catalog
// cannot be loaded the backend matches item names instead.
func (b *Bot) searchCandidates(ctx context.Context, sess *services.Session, term string) ([]models.MenuItem, error) {
	if !b.catalog.Complete() {
		if err := b.catalog.LoadAll(ctx); err != nil {
			b.logger.Warn("failed to load catalog for search, asking the backend", zap.Error(err))
			return b.clientFor(sess).SearchMenuItems(ctx, term)
		}
	}
	return menuItems(b.catalog.AllItems()), nil
}

func (b *Bot) sendFilters(ctx context.Context, chatID, userID int64, editID int) {
	sess := b.session(ctx, userID)
	l := sess.Language()
	f := sess.Filter()

	vegan := lang.T(l, "btn_vegan_on")
	if f.VeganOnly {
		vegan = lang.T(l, "btn_vegan_off")
	}
	rows := [][]tgbotapi.InlineKeyboardButton{
		row(button(vegan, actionFilter+":"+filterVegan)),
		row(
			button(lang.T(l, "btn_sort", lang.T(l, "sort_"+string(f.SortBy.Next()))), actionFilter+":"+filterSort),
			button(lang.T(l, "order_"+string(f.SortOrder.Reverse())), actionFilter+":"+filterOrder),
		),
	}
	var prices []tgbotapi.InlineKeyboardButton
	for _, p := range pricePresets(menuItems(b.catalog.AllItems())) {
		label := priceRangeLabel(l, services.Filter{PriceMin: p[0], PriceMax: p[1]})
		if f.PriceMin == p[0] && f.PriceMax == p[1] {
			label = "• " + label
		}
		prices = append(prices, button(label, priceData(p[0], p[1])))
		if len(prices) == 3 {
			rows = append(rows, prices)
			prices = nil
		}
	}
	if len(prices) > 0 {
		rows = append(rows, prices)
	}
	rows = append(rows,
		row(button(lang.T(l, "btn_allergens"), actionAllergens)),
		row(button(lang.T(l, "btn_reset_filters"), actionFilter+":"+filterReset), button(lang.T(l, "btn_menu"), actionMenu)),
	)
	kb := keyboard(rows...)
	b.show(chatID, editID, filterText(l, f), kb)
}

func (b *Bot) applyFilterAction(sess *services.Session, cb callback) {
	if cb.Arg == filterReset {
		sess.ResetFilter()
		return
	}
	sess.UpdateFilter(func(f *services.Filter) {
		switch cb.Arg {
		case filterVegan:
			f.VeganOnly = !f.VeganOnly
		case filterSort:
			f.SortBy = f.SortBy.Next()
		case filterOrder:
			f.SortOrder = f.SortOrder.Reverse()
		case filterPrice:
			next := *f
			next.PriceMin, next.PriceMax = cb.PriceMin, cb.PriceMax
			if err := next.Validate(); err != nil {
				b.logger.Debug("ignoring price range", zap.Error(err))
				return
			}
			f.PriceMin, f.PriceMax = cb.PriceMin, cb.PriceMax
		}
	})
}

func (b *Bot) sendAllergens(ctx context.Context, chatID, userID int64, editID int) {
	sess := b.session(ctx, userID)
	l := sess.Language()
	allergens := b.catalog.Allergens(ctx)

	var rows [][]tgbotapi.InlineKeyboardButton
	var pair []tgbotapi.InlineKeyboardButton
	for _, a := range allergens {
		label := a.Label
		if label == "" {
			label = a.Code
		}
		if sess.Allergens.IsAllergic(a.ID) {
			label = "✅ " + label
		}
		pair = append(pair, button(label, idData(actionAllergen, a.ID)))
		if len(pair) == 2 {
			rows = append(rows, row(pair...))
			pair = nil
		}
	}
	if len(pair) > 0 {
		rows = append(rows, row(pair...))
	}
	rows = append(rows, row(
		button(lang.T(l, "btn_clear"), actionAllergens+":"+argClear),
		button(lang.T(l, "btn_menu"), actionMenu),
	))
	b.show(chatID, editID, allergensText(l, sess.Allergens.Count()), keyboard(rows...))
}
