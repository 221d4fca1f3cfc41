package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vegn-telegram/lang"
)

// maxLineRows caps the per-line button rows of the cart and favorites screens
// so the keyboard stays under Telegram's 100 button limit.
const maxLineRows = 20

func (b *Bot) sendCart(ctx context.Context, chatID, userID int64, editID int) {
	sess := b.session(ctx, userID)
	l := sess.Language()
	lines := sess.Cart.Lines()
	text := cartText(l, lines, sess.Cart.TotalItems(), sess.Cart.TotalPrice())

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, line := range lines {
		if i == maxLineRows {
			break
		}
		rows = append(rows, row(
			button("−", idData(actionDec, line.MenuItem.ID)),
			button(fmt.Sprintf("%s × %d", line.Name, line.Quantity), idData(actionItem, line.MenuItem.ID)),
			button("+", idData(actionInc, line.MenuItem.ID)),
			button("✕", idData(actionRemove, line.MenuItem.ID)),
		))
	}
	if len(lines) > 0 {
		rows = append(rows, row(button(lang.T(l, "btn_clear_cart"), actionCart+":"+argClear)))
	}
	rows = append(rows, row(button(lang.T(l, "btn_menu"), actionMenu)))
	b.show(chatID, editID, text, keyboard(rows...))
}

func (b *Bot) sendFavorites(ctx context.Context, chatID, userID int64, editID int) {
	sess := b.session(ctx, userID)
	l := sess.Language()
	favs := sess.Favorites.Items()

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, f := range favs {
		if i == maxLineRows {
			break
		}
		rows = append(rows, row(
			button(f.Name, idData(actionItem, f.MenuItem.ID)),
			button("🛒", idData(actionAdd, f.MenuItem.ID)),
			button("✕", idData(actionFavorite, f.MenuItem.ID, argList)),
		))
	}
	if len(favs) > 0 {
		rows = append(rows, row(button(lang.T(l, "btn_clear_favorites"), actionFavorites+":"+argClear)))
	}
	rows = append(rows, row(button(lang.T(l, "btn_menu"), actionMenu)))
	b.show(chatID, editID, favoritesText(l, favs), keyboard(rows...))
}
