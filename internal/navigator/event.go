package navigator

import (
	"context"
	"strings"
	"unicode"

	"stock-bot/internal/screen"
	"stock-bot/internal/session"
)

// Kind is the type of an inbound event.
type Kind int

const (
	Text Kind = iota
	Button
	Command
)

// Event is one inbound user interaction.
// For Command events Payload is the command name and Args its arguments.
type Event struct {
	UserID  int64
	ChatID  int64
	Kind    Kind
	Payload string
	Args    string
}

// Render asks the transport to show a screen. A zero Handle means "send new".
type Render struct {
	ChatID int64
	Handle session.MessageHandle
	Screen screen.Screen
}

// Deliverer shows screens to users. When r.Handle is set it edits that
// message in place and falls back to a new message; it returns the handle
// of whichever message now shows the screen.
type Deliverer interface {
	Deliver(ctx context.Context, r Render) (session.MessageHandle, error)
}

// IsArticleLike reports whether text looks like an article number: any digit.
func IsArticleLike(text string) bool {
	return strings.IndexFunc(text, unicode.IsDigit) >= 0
}
