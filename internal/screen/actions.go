package screen

import (
	"strconv"
	"strings"
)

// Callback tokens carried by inline buttons.
// Per-color tokens carry the color index in the article, not its name,
// so they always fit into Telegram's 64-byte callback data.
const (
	ActionReport         = "report"
	ActionReorder        = "need_order"
	ActionStart          = "start_bot"
	ActionBackMenu       = "back_menu"
	ActionRestartConfirm = "restart_confirm"
	ActionRestartYes     = "restart_yes"
	ActionRestartNo      = "restart_no"
	ActionAddColor       = "add_color"
	ActionDeleteArticle  = "delete_article"
	ActionResetConfirm   = "reset_article_confirm"
	ActionResetYes       = "reset_article_yes"
	ActionResetNo        = "reset_article_no"
	ActionCancel         = "cancel"

	ActionIncrement   = "increment"
	ActionEdit        = "edit"
	ActionDeleteColor = "delete_color"
)

// Action is a parsed callback token.
type Action struct {
	Name string
	// Index is the color position for per-color actions, -1 otherwise.
	Index int
}

func indexed(name string, idx int) string { return name + ":" + strconv.Itoa(idx) }

// ParseAction decodes a callback token. Unknown or malformed tokens are rejected.
func ParseAction(token string) (Action, bool) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(token), ":")
	switch name {
	case ActionIncrement, ActionEdit, ActionDeleteColor:
		if !hasArg {
			return Action{}, false
		}
		idx, err := strconv.Atoi(arg)
		if err != nil || idx < 0 {
			return Action{}, false
		}
		return Action{Name: name, Index: idx}, true
	case ActionReport, ActionReorder, ActionStart, ActionBackMenu,
		ActionRestartConfirm, ActionRestartYes, ActionRestartNo,
		ActionAddColor, ActionDeleteArticle, ActionResetConfirm,
		ActionResetYes, ActionResetNo, ActionCancel:
		if hasArg {
			return Action{}, false
		}
		return Action{Name: name, Index: -1}, true
	}
	return Action{}, false
}
