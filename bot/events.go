package bot

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vegn-telegram/lang"
	"vegn-telegram/models"
)

const maxPax = 4

func (b *Bot) sendEvents(ctx context.Context, chatID, userID int64, editID int) {
	sess := b.session(ctx, userID)
	l := sess.Language()
	events, err := b.clientFor(sess).Events(ctx)
	if err != nil {
		b.logger.Warn("failed to list events", zap.Error(err))
		b.sendError(chatID, l, err, actionEvents, editID)
		return
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, e := range events {
		if e.Status == models.EventStatusCancelled {
			continue
		}
		label := e.Title + " · " + formatDate(e.DateStart)
		rows = append(rows, row(button(label, idData(actionEvent, e.ID))))
	}
	text := lang.T(l, "events_header")
	if len(rows) == 0 {
		text = lang.T(l, "events_empty")
	}
	rows = append(rows, row(button(lang.T(l, "btn_bookings"), actionBookings)))
	b.show(chatID, editID, text, keyboard(rows...))
}

func (b *Bot) sendEvent(ctx context.Context, chatID, userID, eventID int64, editID int) {
	sess := b.session(ctx, userID)
	l := sess.Language()
	event, err := b.clientFor(sess).Event(ctx, eventID)
	if err != nil {
		b.logger.Warn("failed to load event", zap.Int64("event_id", eventID), zap.Error(err))
		b.sendError(chatID, l, err, idData(actionEvent, eventID), editID)
		return
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	if event.Status != models.EventStatusCancelled {
		var pax []tgbotapi.InlineKeyboardButton
		for n := 1; n <= maxPax; n++ {
			if event.AvailableSpots != nil && n > *event.AvailableSpots {
				break
			}
			pax = append(pax, button(lang.T(l, "btn_book_pax", n), idData(actionBook, eventID, strconv.Itoa(n))))
		}
		if len(pax) > 0 {
			rows = append(rows, pax)
		}
	}
	rows = append(rows, row(button(lang.T(l, "btn_back"), actionEvents)))
	b.show(chatID, editID, eventText(l, event), keyboard(rows...))
}

func customerName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	if name == "" {
		name = "Telegram " + strconv.FormatInt(u.ID, 10)
	}
	return name
}

func (b *Bot) handleBook(ctx context.Context, chatID int64, from *tgbotapi.User, eventID int64, pax int, editID int) {
	sess := b.session(ctx, from.ID)
	l := sess.Language()
	client := b.clientFor(sess)

	booking, err := client.CreateBooking(ctx, models.CreateBookingInput{
		EventID:      eventID,
		CustomerName: customerName(from),
		Pax:          pax,
	})
	if err != nil {
		b.logger.Warn("failed to create booking", zap.Int64("event_id", eventID), zap.Error(err))
		b.sendError(chatID, l, err, idData(actionBook, eventID, strconv.Itoa(pax)), editID)
		return
	}

	pb := models.PersonalBooking{Booking: booking}
	if event, err := client.Event(ctx, eventID); err == nil {
		pb.Event = &event
	} else {
		b.logger.Debug("booking saved without event details", zap.Int64("event_id", eventID), zap.Error(err))
	}
	sess.Bookings.Add(ctx, pb)

	kb := keyboard(row(
		button(lang.T(l, "btn_bookings"), actionBookings),
		button(lang.T(l, "btn_events"), actionEvents),
	))
	b.show(chatID, editID, lang.T(l, "booking_created", booking.ID, pax), kb)
}

func (b *Bot) bookingsKeyboard(l string) *tgbotapi.InlineKeyboardMarkup {
	return keyboard(row(
		button(lang.T(l, "btn_refresh"), actionBookings+":"+argRefresh),
		button(lang.T(l, "btn_events"), actionEvents),
	))
}

func (b *Bot) sendBookings(ctx context.Context, chatID, userID int64, editID int) {
	sess := b.session(ctx, userID)
	l := sess.Language()
	b.show(chatID, editID, bookingsText(l, sess.Bookings.Items()), b.bookingsKeyboard(l))
}

func (b *Bot) refreshBookings(ctx context.Context, chatID, userID int64, editID int) {
	sess := b.session(ctx, userID)
	l := sess.Language()
	if err := sess.Bookings.Refresh(ctx, b.clientFor(sess)); err != nil {
		b.logger.Warn("failed to refresh bookings", zap.Int64("user_id", userID), zap.Error(err))
		text := bookingsText(l, sess.Bookings.Items()) + "\n\n" + lang.T(l, "bookings_refresh_failed")
		kb := keyboard(row(button(lang.T(l, "btn_retry"), actionBookings+":"+argRefresh)))
		b.show(chatID, editID, text, kb)
		return
	}
	b.show(chatID, editID, bookingsText(l, sess.Bookings.Items()), b.bookingsKeyboard(l))
}
