package session

import "sync"

// State is the navigation state of one user.
type State int

const (
	MainMenu State = iota
	ArticleDetail
	ConfirmRestart
	ConfirmResetArticle
	AwaitingColorName
	AwaitingQuantityEdit
)

func (s State) String() string {
	switch s {
	case MainMenu:
		return "main_menu"
	case ArticleDetail:
		return "article_detail"
	case ConfirmRestart:
		return "confirm_restart"
	case ConfirmResetArticle:
		return "confirm_reset_article"
	case AwaitingColorName:
		return "awaiting_color_name"
	case AwaitingQuantityEdit:
		return "awaiting_quantity_edit"
	}
	return "unknown"
}

// MessageHandle points at the last screen delivered to a user.
type MessageHandle struct {
	ChatID    int64
	MessageID int
}

func (h MessageHandle) IsZero() bool { return h.MessageID == 0 }

// Session is the transient per-user navigation record.
type Session struct {
	State State
	// Article is the selected article; empty in MainMenu.
	Article string
	// Color is the pending edit target while AwaitingQuantityEdit,
	// or while a restart dialog opened from it is shown.
	Color string
	// Return is the state restored when a restart is declined.
	Return  State
	Message MessageHandle
	// Warning is shown once on the next render.
	Warning string
}

// HasArticle reports whether an article is selected.
func (s Session) HasArticle() bool { return s.Article != "" }

// Registry holds sessions keyed by user id for the process lifetime.
type Registry struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[int64]*Session)}
}

// Get returns a copy of the user's session, creating it on first use.
func (r *Registry) Get(userID int64) Session {
	r.mu.RLock()
	s, ok := r.sessions[userID]
	if ok {
		out := *s
		r.mu.RUnlock()
		return out
	}
	r.mu.RUnlock()
	var out Session
	r.update(userID, func(s *Session) { out = *s })
	return out
}

func (r *Registry) SetSelectedArticle(userID int64, article string) {
	r.update(userID, func(s *Session) {
		s.State = ArticleDetail
		s.Article = article
		s.Color = ""
	})
}

func (r *Registry) ClearSelectedArticle(userID int64) {
	r.update(userID, func(s *Session) {
		s.State = MainMenu
		s.Article = ""
		s.Color = ""
	})
}

func (r *Registry) SetPendingEdit(userID int64, article, color string) {
	r.update(userID, func(s *Session) {
		s.State = AwaitingQuantityEdit
		s.Article = article
		s.Color = color
	})
}

// ClearPendingEdit drops the edit target and returns to the selected article.
func (r *Registry) ClearPendingEdit(userID int64) {
	r.update(userID, func(s *Session) {
		s.Color = ""
		if s.Article != "" {
			s.State = ArticleDetail
		} else {
			s.State = MainMenu
		}
	})
}

func (r *Registry) AwaitColor(userID int64, article string) {
	r.update(userID, func(s *Session) {
		s.State = AwaitingColorName
		s.Article = article
		s.Color = ""
	})
}

func (r *Registry) ConfirmResetArticle(userID int64, article string) {
	r.update(userID, func(s *Session) {
		s.State = ConfirmResetArticle
		s.Article = article
		s.Color = ""
	})
}

// ConfirmRestart enters the restart dialog and remembers the state to go
// back to. The selection and pending edit target are kept for that return.
func (r *Registry) ConfirmRestart(userID int64) {
	r.update(userID, func(s *Session) {
		if s.State == ConfirmRestart {
			return
		}
		s.Return = s.State
		if s.Article == "" {
			s.Return = MainMenu
		}
		s.State = ConfirmRestart
	})
}

// DeclineRestart leaves the restart dialog for the remembered state and
// returns the resulting session.
func (r *Registry) DeclineRestart(userID int64) Session {
	var out Session
	r.update(userID, func(s *Session) {
		if s.State == ConfirmRestart {
			s.State = s.Return
		}
		if s.State != AwaitingQuantityEdit {
			s.Color = ""
		}
		out = *s
	})
	return out
}

func (r *Registry) RecordMessageHandle(userID int64, h MessageHandle) {
	r.update(userID, func(s *Session) { s.Message = h })
}

func (r *Registry) SetWarning(userID int64, w string) {
	r.update(userID, func(s *Session) { s.Warning = w })
}

// TakeWarning returns the pending warning and clears it.
func (r *Registry) TakeWarning(userID int64) string {
	var w string
	r.update(userID, func(s *Session) {
		w = s.Warning
		s.Warning = ""
	})
	return w
}

func (r *Registry) update(userID int64, fn func(s *Session)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok {
		s = &Session{}
		r.sessions[userID] = s
	}
	fn(s)
}
