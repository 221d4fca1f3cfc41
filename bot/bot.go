package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vegn-telegram/api"
	"vegn-telegram/config"
	"vegn-telegram/lang"
	"vegn-telegram/services"
)

// sender is the part of tgbotapi.BotAPI the handlers use.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Deps are the services the bot drives.
type Deps struct {
	Sessions *services.Sessions
	Catalog  *services.Catalog
	API      *api.Client
	Throttle *services.LoginThrottle
	Logger   *zap.Logger
}

type Bot struct {
	tg       *tgbotapi.BotAPI
	api      sender
	sessions *services.Sessions
	catalog  *services.Catalog
	client   *api.Client
	throttle *services.LoginThrottle
	logger   *zap.Logger
}

func New(cfg *config.Config, deps Deps) (*Bot, error) {
	tg, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, err
	}
	b := newBot(tg, deps)
	b.tg = tg
	return b, nil
}

func newBot(s sender, deps Deps) *Bot {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	throttle := deps.Throttle
	if throttle == nil {
		throttle = services.NewLoginThrottle()
	}
	return &Bot{
		api:      s,
		sessions: deps.Sessions,
		catalog:  deps.Catalog,
		client:   deps.API,
		throttle: throttle,
		logger:   logger,
	}
}

func (b *Bot) setBotCommands() error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Accueil"},
		tgbotapi.BotCommand{Command: "menu", Description: "Restaurants et menus"},
		tgbotapi.BotCommand{Command: "search", Description: "Chercher un plat"},
		tgbotapi.BotCommand{Command: "cart", Description: "Mon panier"},
		tgbotapi.BotCommand{Command: "favorites", Description: "Mes favoris"},
		tgbotapi.BotCommand{Command: "allergens", Description: "Mes allergènes"},
		tgbotapi.BotCommand{Command: "filters", Description: "Filtres du menu"},
		tgbotapi.BotCommand{Command: "events", Description: "Événements"},
		tgbotapi.BotCommand{Command: "bookings", Description: "Mes réservations"},
		tgbotapi.BotCommand{Command: "login", Description: "Se connecter"},
		tgbotapi.BotCommand{Command: "language", Description: "Changer de langue"},
	)
	_, err := b.api.Request(cfg)
	return err
}

// Start polls Telegram for updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	if err := b.setBotCommands(); err != nil {
		b.logger.Warn("failed to register bot commands", zap.Error(err))
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	defer b.tg.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID
	text := strings.TrimSpace(msg.Text)
	if !msg.IsCommand() {
		if text != "" {
			b.sendLang(ctx, chatID, userID, "unknown_command")
		}
		return
	}
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		b.handleStart(ctx, chatID, userID)
	case "menu":
		b.sendRestaurants(ctx, chatID, userID, 0)
	case "search":
		b.handleSearch(ctx, chatID, userID, args)
	case "cart":
		b.sendCart(ctx, chatID, userID, 0)
	case "favorites":
		b.sendFavorites(ctx, chatID, userID, 0)
	case "allergens":
		b.sendAllergens(ctx, chatID, userID, 0)
	case "filters":
		b.sendFilters(ctx, chatID, userID, 0)
	case "events":
		b.sendEvents(ctx, chatID, userID, 0)
	case "bookings":
		b.sendBookings(ctx, chatID, userID, 0)
	case "login":
		b.handleLogin(ctx, chatID, userID, msg.MessageID, args)
	case "language":
		b.handleLanguage(ctx, chatID, userID)
	default:
		b.sendLang(ctx, chatID, userID, "unknown_command")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	// Telegram expects exactly one answer per callback query.
	var notice string
	defer func() { b.toast(cq.ID, notice) }()

	if cq.Message == nil || cq.From == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	userID := cq.From.ID
	editID := cq.Message.MessageID

	cb, err := parseCallback(cq.Data)
	if err != nil {
		b.logger.Warn("bad callback data", zap.String("data", cq.Data), zap.Error(err))
		return
	}
	sess := b.session(ctx, userID)

	switch cb.Action {
	case actionMenu:
		b.sendRestaurants(ctx, chatID, userID, editID)
	case actionRestaurant:
		b.sendRestaurantMenu(ctx, chatID, userID, cb.ID, editID)
	case actionItem:
		b.sendItem(ctx, chatID, userID, cb.ID, editID)
	case actionAdd:
		entry, ok := b.lookupItem(ctx, sess, cb.ID)
		if !ok {
			b.sendLang(ctx, chatID, userID, "item_not_found")
			return
		}
		sess.Cart.Add(ctx, entry.Item, entry.Restaurant)
		notice = lang.T(sess.Language(), "added_to_cart", entry.Item.Name)
		b.sendItem(ctx, chatID, userID, cb.ID, editID)
	case actionInc:
		sess.Cart.Increment(ctx, cb.ID, 1)
		b.sendCart(ctx, chatID, userID, editID)
	case actionDec:
		sess.Cart.Increment(ctx, cb.ID, -1)
		b.sendCart(ctx, chatID, userID, editID)
	case actionRemove:
		sess.Cart.Remove(ctx, cb.ID)
		b.sendCart(ctx, chatID, userID, editID)
	case actionCart:
		if cb.Arg == argClear {
			sess.Cart.Clear(ctx)
		}
		b.sendCart(ctx, chatID, userID, editID)
	case actionFavorite:
		entry, ok := b.lookupItem(ctx, sess, cb.ID)
		if !ok {
			sess.Favorites.Remove(ctx, cb.ID)
		} else {
			sess.Favorites.Toggle(ctx, entry.Item, entry.Restaurant)
		}
		if cb.Arg == argList {
			b.sendFavorites(ctx, chatID, userID, editID)
			return
		}
		b.sendItem(ctx, chatID, userID, cb.ID, editID)
	case actionFavorites:
		if cb.Arg == argClear {
			sess.Favorites.Clear(ctx)
		}
		b.sendFavorites(ctx, chatID, userID, editID)
	case actionAllergen:
		sess.Allergens.Toggle(ctx, cb.ID)
		b.sendAllergens(ctx, chatID, userID, editID)
	case actionAllergens:
		if cb.Arg == argClear {
			sess.Allergens.Clear(ctx)
		}
		b.sendAllergens(ctx, chatID, userID, editID)
	case actionFilter:
		b.applyFilterAction(sess, cb)
		b.sendFilters(ctx, chatID, userID, editID)
	case actionFilters:
		b.sendFilters(ctx, chatID, userID, editID)
	case actionEvents:
		b.sendEvents(ctx, chatID, userID, editID)
	case actionEvent:
		b.sendEvent(ctx, chatID, userID, cb.ID, editID)
	case actionBook:
		b.handleBook(ctx, chatID, cq.From, cb.ID, cb.Pax, editID)
	case actionBookings:
		if cb.Arg == argRefresh {
			b.refreshBookings(ctx, chatID, userID, editID)
			return
		}
		b.sendBookings(ctx, chatID, userID, editID)
	case actionLanguage:
		if !lang.Supported(cb.Arg) {
			return
		}
		sess.SetLanguage(ctx, cb.Arg)
		b.edit(chatID, editID, lang.T(cb.Arg, "language_changed"), nil)
	}
}

func (b *Bot) session(ctx context.Context, userID int64) *services.Session {
	return b.sessions.Get(ctx, userID)
}

// clientFor returns an api client that authenticates as the session's customer.
func (b *Bot) clientFor(sess *services.Session) *api.Client {
	return b.client.WithToken(sess.Token)
}

// lookupItem finds an item in the catalog, then in the customer's own favorites
// and cart, then on the backend for items only a backend search returned.
func (b *Bot) lookupItem(ctx context.Context, sess *services.Session, itemID int64) (services.CatalogEntry, bool) {
	if e, ok := b.catalog.Item(itemID); ok {
		return e, true
	}
	for _, f := range sess.Favorites.Items() {
		if f.MenuItem.ID == itemID {
			return services.CatalogEntry{Item: f.MenuItem, Restaurant: f.RestaurantRef}, true
		}
	}
	if l, ok := sess.Cart.Line(itemID); ok {
		return services.CatalogEntry{Item: l.MenuItem, Restaurant: l.RestaurantRef}, true
	}
	item, err := b.clientFor(sess).MenuItem(ctx, itemID)
	if err != nil {
		b.logger.Debug("item lookup failed", zap.Int64("item_id", itemID), zap.Error(err))
		return services.CatalogEntry{}, false
	}
	return services.CatalogEntry{Item: item}, true
}

func (b *Bot) handleStart(ctx context.Context, chatID, userID int64) {
	sess := b.session(ctx, userID)
	l := sess.Language()
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(lang.T(l, "btn_menu"), actionMenu),
			tgbotapi.NewInlineKeyboardButtonData(lang.T(l, "btn_events"), actionEvents),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(lang.T(l, "btn_cart"), actionCart),
			tgbotapi.NewInlineKeyboardButtonData(lang.T(l, "btn_favorites"), actionFavorites),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(lang.T(l, "btn_allergens"), actionAllergens),
			tgbotapi.NewInlineKeyboardButtonData(lang.T(l, "btn_filters"), actionFilters),
		),
	)
	status := lang.T(l, "session_guest")
	if sess.Token.LoggedIn() {
		status = lang.T(l, "session_logged_in")
	}
	b.sendWithInline(chatID, lang.T(l, "welcome")+"\n\n"+status, kb)
}

func (b *Bot) handleLanguage(ctx context.Context, chatID, userID int64) {
	l := b.session(ctx, userID).Language()
	var buttons []tgbotapi.InlineKeyboardButton
	for _, code := range lang.Languages() {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(lang.T(code, "language_name"), actionLanguage+":"+code))
	}
	b.sendWithInline(chatID, lang.T(l, "choose_language"), tgbotapi.NewInlineKeyboardMarkup(buttons))
}

func (b *Bot) handleLogin(ctx context.Context, chatID, userID int64, msgID int, args string) {
	sess := b.session(ctx, userID)
	l := sess.Language()

	// the command carries a password, do not leave it in the chat
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, msgID)); err != nil {
		b.logger.Debug("failed to delete login message", zap.Error(err))
	}

	fields := strings.Fields(args)
	if len(fields) != 2 {
		b.send(chatID, lang.T(l, "login_usage"))
		return
	}
	if wait := b.throttle.WaitSeconds(userID); wait > 0 {
		b.send(chatID, lang.T(l, "login_wait", wait))
		return
	}

	resp, err := b.clientFor(sess).Login(ctx, fields[0], fields[1])
	if err != nil {
		if api.StatusCode(err) == 0 {
			b.logger.Warn("login request failed", zap.Int64("user_id", userID), zap.Error(err))
			b.send(chatID, lang.T(l, "error_network"))
			return
		}
		b.throttle.RecordFailed(userID)
		b.send(chatID, lang.T(l, "login_failed", b.throttle.WaitSeconds(userID)))
		return
	}
	b.throttle.RecordSuccess(userID)
	name := resp.FullName
	if name == "" {
		if u, err := b.clientFor(sess).Me(ctx); err == nil {
			name = u.FullName
		} else {
			b.logger.Debug("failed to load profile", zap.Int64("user_id", userID), zap.Error(err))
		}
	}
	if name == "" {
		name = fields[0]
	}
	b.send(chatID, lang.T(l, "login_ok", name))
}

// errorKey maps a backend error to a message key.
func errorKey(err error) string {
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		return "error_unauthorized"
	case api.StatusCode(err) == 404:
		return "error_not_found"
	case api.StatusCode(err) != 0:
		return "error_backend"
	default:
		return "error_network"
	}
}

// sendError shows a localized error with a button that repeats retryData.
func (b *Bot) sendError(chatID int64, l string, err error, retryData string, editID int) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(lang.T(l, "btn_retry"), retryData),
		),
	)
	b.show(chatID, editID, lang.T(l, errorKey(err)), &kb)
}
