package telegram

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stock-bot/internal/navigator"
)

// Handler consumes inbound events.
type Handler interface {
	Handle(ctx context.Context, ev navigator.Event) error
}

type Bot struct {
	api     *tgbotapi.BotAPI
	s       sender
	handler Handler
}

func NewAPI(botToken string) (*tgbotapi.BotAPI, error) {
	return tgbotapi.NewBotAPI(botToken)
}

func New(api *tgbotapi.BotAPI, handler Handler) *Bot {
	return &Bot{api: api, s: botAPISender{api: api}, handler: handler}
}

var commands = []tgbotapi.BotCommand{
	{Command: "start", Description: "Главное меню"},
	{Command: "report", Description: "Сводка склада"},
	{Command: "reorder", Description: "Список на дозаказ"},
	{Command: "massadd", Description: "Массовое добавление: строки «артикул: цвет, цвет»"},
}

// Start processes updates one at a time until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	if _, err := b.s.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		log.Printf("failed to register commands: %v", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	log.Printf("Authorized on account %s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
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
	if update.Message != nil {
		b.handleIncomingMessage(ctx, update.Message)
		return
	}
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	ev := navigator.Event{UserID: msg.From.ID, ChatID: msg.Chat.ID}
	switch {
	case msg.IsCommand():
		ev.Kind = navigator.Command
		ev.Payload = msg.Command()
		ev.Args = msg.CommandArguments()
	case msg.Text != "":
		ev.Kind = navigator.Text
		ev.Payload = msg.Text
	default:
		return
	}
	log.Printf("Incoming message from %d (@%s): %q", msg.From.ID, msg.From.UserName, msg.Text)
	if err := b.handler.Handle(ctx, ev); err != nil {
		log.Printf("failed to handle message from %d: %v", msg.From.ID, err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.s.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("failed to answer callback: %v", err)
	}
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return
	}
	ev := navigator.Event{
		UserID:  cb.From.ID,
		ChatID:  cb.Message.Chat.ID,
		Kind:    navigator.Button,
		Payload: cb.Data,
	}
	if err := b.handler.Handle(ctx, ev); err != nil {
		log.Printf("failed to handle callback %q from %d: %v", cb.Data, cb.From.ID, err)
	}
}
