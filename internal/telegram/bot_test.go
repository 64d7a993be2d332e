package telegram

import (
	"context"
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"stock-bot/internal/navigator"
	"stock-bot/internal/screen"
	"stock-bot/internal/session"
)

type fakeSender struct {
	sent      []tgbotapi.Chattable
	requests  []tgbotapi.Chattable
	editErr   error
	sendErrs  int
	nextMsgID int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	switch c.(type) {
	case tgbotapi.EditMessageTextConfig:
		if f.editErr != nil {
			return tgbotapi.Message{}, f.editErr
		}
		return tgbotapi.Message{}, nil
	case tgbotapi.MessageConfig:
		if f.sendErrs > 0 {
			f.sendErrs--
			return tgbotapi.Message{}, errors.New("connection reset")
		}
		f.nextMsgID++
		return tgbotapi.Message{MessageID: f.nextMsgID}, nil
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

type fakeHandler struct{ events []navigator.Event }

func (f *fakeHandler) Handle(ctx context.Context, ev navigator.Event) error {
	f.events = append(f.events, ev)
	return nil
}

var testScreen = screen.Screen{
	Text: "<b>hi</b>",
	Rows: [][]screen.Button{{{Label: "Black +6", Action: "increment:0"}}, {{Label: "⬅️ В меню", Action: screen.ActionBackMenu}}},
}

func TestDeliver_NewMessage(t *testing.T) {
	fs := &fakeSender{}
	d := &Delivery{s: fs}
	h, err := d.Deliver(context.Background(), navigator.Render{ChatID: 10, Screen: testScreen})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if h.ChatID != 10 || h.MessageID != 1 {
		t.Fatalf("handle: %+v", h)
	}
	msg, ok := fs.sent[0].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("expected MessageConfig, got %T", fs.sent[0])
	}
	if msg.ParseMode != tgbotapi.ModeHTML || msg.Text != testScreen.Text {
		t.Fatalf("message: %+v", msg)
	}
	kb, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(kb.InlineKeyboard) != 2 || *kb.InlineKeyboard[0][0].CallbackData != "increment:0" {
		t.Fatalf("keyboard: %+v", msg.ReplyMarkup)
	}
}

func TestDeliver_EditsInPlace(t *testing.T) {
	fs := &fakeSender{}
	d := &Delivery{s: fs}
	prev := session.MessageHandle{ChatID: 10, MessageID: 7}
	h, err := d.Deliver(context.Background(), navigator.Render{ChatID: 10, Handle: prev, Screen: testScreen})
	if err != nil || h != prev {
		t.Fatalf("handle=%+v err=%v", h, err)
	}
	if len(fs.sent) != 1 {
		t.Fatalf("want 1 request, got %d", len(fs.sent))
	}
	edit, ok := fs.sent[0].(tgbotapi.EditMessageTextConfig)
	if !ok || edit.MessageID != 7 || edit.ReplyMarkup == nil {
		t.Fatalf("edit: %+v", fs.sent[0])
	}
}

func TestDeliver_EditNotModifiedKeepsHandle(t *testing.T) {
	fs := &fakeSender{editErr: errors.New("Bad Request: message is not modified")}
	d := &Delivery{s: fs}
	prev := session.MessageHandle{ChatID: 10, MessageID: 7}
	h, err := d.Deliver(context.Background(), navigator.Render{ChatID: 10, Handle: prev, Screen: testScreen})
	if err != nil || h != prev || len(fs.sent) != 1 {
		t.Fatalf("handle=%+v err=%v sent=%d", h, err, len(fs.sent))
	}
}

func TestDeliver_EditFailureFallsBackToNewMessage(t *testing.T) {
	fs := &fakeSender{editErr: errors.New("Bad Request: message can't be edited"), sendErrs: 1}
	d := &Delivery{s: fs}
	h, err := d.Deliver(context.Background(), navigator.Render{ChatID: 10, Handle: session.MessageHandle{ChatID: 10, MessageID: 7}, Screen: testScreen})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	// edit, failed send, retried send
	if len(fs.sent) != 3 {
		t.Fatalf("want 3 requests, got %d", len(fs.sent))
	}
	if h.MessageID != 1 {
		t.Fatalf("expected new message handle, got %+v", h)
	}
}

func TestDeliver_GivesUpAfterRetry(t *testing.T) {
	fs := &fakeSender{sendErrs: 2}
	d := &Delivery{s: fs}
	if _, err := d.Deliver(context.Background(), navigator.Render{ChatID: 10, Screen: testScreen}); err == nil {
		t.Fatalf("expected error")
	}
	if len(fs.sent) != 2 {
		t.Fatalf("want exactly one retry, got %d sends", len(fs.sent))
	}
}

func TestHandleUpdate_RoutesEvents(t *testing.T) {
	fs := &fakeSender{}
	fh := &fakeHandler{}
	b := &Bot{s: fs, handler: fh}
	from := &tgbotapi.User{ID: 42, UserName: "clerk"}
	chat := &tgbotapi.Chat{ID: 100}

	b.handleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{From: from, Chat: chat, Text: "715-44"}})
	b.handleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{
		From: from, Chat: chat, Text: "/massadd 1: Black",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 8}},
	}})
	b.handleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID: "cb1", From: from, Message: &tgbotapi.Message{Chat: chat}, Data: "increment:0",
	}})
	b.handleUpdate(context.Background(), tgbotapi.Update{Message: &tgbotapi.Message{From: from, Chat: chat}})

	if len(fh.events) != 3 {
		t.Fatalf("want 3 events, got %d: %+v", len(fh.events), fh.events)
	}
	if e := fh.events[0]; e.Kind != navigator.Text || e.Payload != "715-44" || e.UserID != 42 || e.ChatID != 100 {
		t.Fatalf("text event: %+v", e)
	}
	if e := fh.events[1]; e.Kind != navigator.Command || e.Payload != "massadd" || e.Args != "1: Black" {
		t.Fatalf("command event: %+v", e)
	}
	if e := fh.events[2]; e.Kind != navigator.Button || e.Payload != "increment:0" {
		t.Fatalf("button event: %+v", e)
	}
	if len(fs.requests) != 1 {
		t.Fatalf("callback not answered")
	}
	if _, ok := fs.requests[0].(tgbotapi.CallbackConfig); !ok {
		t.Fatalf("expected CallbackConfig, got %T", fs.requests[0])
	}
}
