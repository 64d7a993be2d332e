package telegram

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stock-bot/internal/navigator"
	"stock-bot/internal/screen"
	"stock-bot/internal/session"
)

// Delivery renders screens into Telegram messages.
type Delivery struct {
	s sender
}

func NewDelivery(api *tgbotapi.BotAPI) *Delivery {
	return &Delivery{s: botAPISender{api: api}}
}

// Deliver edits the message behind r.Handle when present and falls back to
// a new message. A failed send is retried once.
func (d *Delivery) Deliver(_ context.Context, r navigator.Render) (session.MessageHandle, error) {
	kb := keyboard(r.Screen.Rows)
	if !r.Handle.IsZero() {
		edit := tgbotapi.NewEditMessageTextAndMarkup(r.Handle.ChatID, r.Handle.MessageID, r.Screen.Text, kb)
		edit.ParseMode = tgbotapi.ModeHTML
		_, err := d.s.Send(edit)
		if err == nil || isNotModified(err) {
			return r.Handle, nil
		}
		log.Printf("failed to edit message %d, sending new: %v", r.Handle.MessageID, err)
	}

	msg := tgbotapi.NewMessage(r.ChatID, r.Screen.Text)
	msg.ParseMode = tgbotapi.ModeHTML
	if len(r.Screen.Rows) > 0 {
		msg.ReplyMarkup = kb
	}
	sent, err := d.s.Send(msg)
	if err != nil {
		log.Printf("failed to send message, retrying: %v", err)
		if sent, err = d.s.Send(msg); err != nil {
			return session.MessageHandle{}, fmt.Errorf("send message: %w", err)
		}
	}
	return session.MessageHandle{ChatID: r.ChatID, MessageID: sent.MessageID}, nil
}

// Notify sends a standalone HTML message without a keyboard.
func (d *Delivery) Notify(_ context.Context, chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := d.s.Send(msg); err != nil {
		return fmt.Errorf("notify %d: %w", chatID, err)
	}
	return nil
}

func keyboard(rows [][]screen.Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, r := range rows {
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Action))
		}
		out = append(out, tgbotapi.NewInlineKeyboardRow(btns...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}

// Telegram rejects edits that would not change the message; the screen is
// already what we want in that case.
func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
