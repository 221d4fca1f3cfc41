package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"vegn-telegram/lang"
)

func (b *Bot) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("send error", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) sendLang(ctx context.Context, chatID, userID int64, key string, args ...interface{}) {
	b.send(chatID, lang.T(b.session(ctx, userID).Language(), key, args...))
}

func (b *Bot) sendWithInline(chatID int64, text string, kb tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = kb
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("send error", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// edit replaces the text and keyboard of a message sent earlier.
// "message is not modified" answers are ignored.
func (b *Bot) edit(chatID int64, msgID int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	if kb != nil {
		edit.ReplyMarkup = kb
	} else {
		emptyKb := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
		edit.ReplyMarkup = &emptyKb
	}
	if _, err := b.api.Send(edit); err != nil {
		if strings.Contains(err.Error(), "not modified") {
			return
		}
		b.logger.Warn("edit error", zap.Int64("chat_id", chatID), zap.Int("message_id", msgID), zap.Error(err))
	}
}

// show edits editID when it is set and sends a new message otherwise.
func (b *Bot) show(chatID int64, editID int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	if editID != 0 {
		b.edit(chatID, editID, text, kb)
		return
	}
	if kb == nil {
		b.send(chatID, text)
		return
	}
	b.sendWithInline(chatID, text, *kb)
}

// toast shows a short notice on top of the chat.
func (b *Bot) toast(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.Debug("failed to answer callback", zap.Error(err))
	}
}

func row(buttons ...tgbotapi.InlineKeyboardButton) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(buttons...)
}

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func keyboard(rows ...[]tgbotapi.InlineKeyboardButton) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &kb
}
