package navigator

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strconv"
	"strings"
	"time"

	"stock-bot/internal/inventory"
	"stock-bot/internal/screen"
	"stock-bot/internal/session"
	"stock-bot/internal/storage"
)

const (
	hintArticleFirst    = "❌ Сначала введите номер артикула."
	hintMassAddUsage    = "Формат: /massadd, затем строки вида <code>артикул: цвет, цвет</code>"
	noticeRestarted     = "✅ Данные очищены."
	noticeQuantityLimit = "❌ Количество не может превышать 1000000000 пар."
	persistenceWarning  = "⚠️ Не удалось сохранить данные на диск, изменения пока только в памяти."
)

// Options tune quantities used by the machine.
type Options struct {
	// NewColorQuantity is the quantity of a color created from chat.
	NewColorQuantity int
	// Step is added by the increment button.
	Step int
	// Threshold is the low stock level used by the reorder list.
	Threshold int
}

// Machine routes user events to inventory mutations and screens.
// Events of one user must be handled one at a time; events of different
// users may interleave, the store serializes their writes.
type Machine struct {
	store    *inventory.Store
	sessions *session.Registry
	render   screen.Renderer
	out      Deliverer
	journal  storage.Recorder
	opts     Options
	now      func() time.Time
}

// New creates a machine. journal may be nil.
func New(store *inventory.Store, sessions *session.Registry, out Deliverer, journal storage.Recorder, opts Options) *Machine {
	return &Machine{
		store:    store,
		sessions: sessions,
		render:   screen.NewRenderer(opts.Threshold, opts.Step),
		out:      out,
		journal:  journal,
		opts:     opts,
		now:      time.Now,
	}
}

// Handle processes one event. Events that do not apply to the user's
// current state are ignored and nothing is rendered.
func (m *Machine) Handle(ctx context.Context, ev Event) error {
	var next *screen.Screen
	switch ev.Kind {
	case Text:
		next = m.onText(ctx, ev)
	case Button:
		next = m.onButton(ctx, ev)
	case Command:
		next = m.onCommand(ctx, ev)
	}
	if next == nil {
		return nil
	}
	return m.deliver(ctx, ev, *next)
}

func (m *Machine) onText(ctx context.Context, ev Event) *screen.Screen {
	text := strings.TrimSpace(ev.Payload)
	if text == "" {
		return nil
	}
	sess := m.sessions.Get(ev.UserID)
	switch sess.State {
	case session.AwaitingQuantityEdit:
		return m.editQuantity(ctx, ev.UserID, sess, text)
	case session.AwaitingColorName:
		return m.addColor(ctx, ev.UserID, sess.Article, text)
	}
	if IsArticleLike(text) {
		return m.selectArticle(ctx, ev.UserID, text)
	}
	switch sess.State {
	case session.ArticleDetail:
		if sess.HasArticle() {
			return m.addColor(ctx, ev.UserID, sess.Article, text)
		}
	case session.MainMenu:
		return ptr(m.render.MainMenu(hintArticleFirst))
	}
	return nil
}

func (m *Machine) onButton(ctx context.Context, ev Event) *screen.Screen {
	act, ok := screen.ParseAction(ev.Payload)
	if !ok {
		log.Printf("ignoring unknown button %q from %d", ev.Payload, ev.UserID)
		return nil
	}
	uid := ev.UserID
	sess := m.sessions.Get(uid)

	switch act.Name {
	case screen.ActionBackMenu, screen.ActionStart:
		return m.toMenu(uid, "")
	case screen.ActionRestartConfirm:
		m.sessions.ConfirmRestart(uid)
		return ptr(m.render.ConfirmRestart())
	case screen.ActionReport:
		if sess.State != session.MainMenu {
			return nil
		}
		return ptr(m.render.Report(m.store.Snapshot()))
	case screen.ActionReorder:
		if sess.State != session.MainMenu {
			return nil
		}
		return ptr(m.render.ReorderList(m.store.LowStock(m.opts.Threshold)))
	}

	switch sess.State {
	case session.ConfirmRestart:
		return m.onConfirmRestart(ctx, uid, act)
	case session.ConfirmResetArticle:
		return m.onConfirmReset(ctx, uid, sess, act)
	case session.ArticleDetail:
		return m.onArticleButton(ctx, uid, sess.Article, act)
	case session.AwaitingColorName, session.AwaitingQuantityEdit:
		if act.Name == screen.ActionCancel {
			m.sessions.SetSelectedArticle(uid, sess.Article)
			return m.articleScreen(uid, sess.Article)
		}
	}
	log.Printf("ignoring button %q from %d in state %s", ev.Payload, uid, sess.State)
	return nil
}

func (m *Machine) onConfirmRestart(ctx context.Context, uid int64, act screen.Action) *screen.Screen {
	switch act.Name {
	case screen.ActionRestartYes:
		if !m.settle(uid, m.store.Clear(ctx)) {
			return nil
		}
		m.record(storage.Movement{UserID: uid, Kind: storage.KindRestart})
		return m.toMenu(uid, noticeRestarted)
	case screen.ActionRestartNo:
		return m.resume(uid, m.sessions.DeclineRestart(uid))
	}
	return nil
}

// resume renders the screen of a state restored from the restart dialog.
// A target removed in the meantime falls back to the article or the menu.
func (m *Machine) resume(uid int64, sess session.Session) *screen.Screen {
	if !sess.HasArticle() {
		return m.toMenu(uid, "")
	}
	if _, ok := m.store.Article(sess.Article); !ok {
		return m.toMenu(uid, "")
	}
	switch sess.State {
	case session.ConfirmResetArticle:
		return ptr(m.render.ConfirmResetArticle(sess.Article))
	case session.AwaitingColorName:
		return ptr(m.render.PromptColorName(sess.Article))
	case session.AwaitingQuantityEdit:
		if qty, ok := m.variant(sess.Article, sess.Color); ok {
			return ptr(m.render.PromptQuantity(sess.Article, sess.Color, qty, false))
		}
	}
	m.sessions.SetSelectedArticle(uid, sess.Article)
	return m.articleScreen(uid, sess.Article)
}

func (m *Machine) onConfirmReset(ctx context.Context, uid int64, sess session.Session, act screen.Action) *screen.Screen {
	switch act.Name {
	case screen.ActionResetYes:
		if m.settle(uid, m.store.ResetArticle(ctx, sess.Article)) {
			m.record(storage.Movement{UserID: uid, Kind: storage.KindArticleReset, Article: sess.Article})
		}
	case screen.ActionResetNo:
	default:
		return nil
	}
	m.sessions.SetSelectedArticle(uid, sess.Article)
	return m.articleScreen(uid, sess.Article)
}

func (m *Machine) onArticleButton(ctx context.Context, uid int64, articleID string, act screen.Action) *screen.Screen {
	switch act.Name {
	case screen.ActionIncrement:
		color, ok := m.colorAt(articleID, act.Index)
		if !ok {
			return nil
		}
		qty, err := m.store.IncrementColor(ctx, articleID, color, m.opts.Step)
		if errors.Is(err, inventory.ErrInvalidValue) {
			return m.withNotice(m.articleScreen(uid, articleID), noticeQuantityLimit)
		}
		if !m.settle(uid, err) {
			return nil
		}
		m.record(storage.Movement{UserID: uid, Kind: storage.KindIncrement, Article: articleID, Color: color, Delta: m.opts.Step, Quantity: qty})
		return m.articleScreen(uid, articleID)
	case screen.ActionEdit:
		color, ok := m.colorAt(articleID, act.Index)
		if !ok {
			return nil
		}
		m.sessions.SetPendingEdit(uid, articleID, color)
		return ptr(m.render.PromptQuantity(articleID, color, m.quantityOf(articleID, color), false))
	case screen.ActionDeleteColor:
		color, ok := m.colorAt(articleID, act.Index)
		if !ok {
			return nil
		}
		deleted, err := m.store.DeleteColor(ctx, articleID, color)
		if m.settle(uid, err) && deleted {
			m.record(storage.Movement{UserID: uid, Kind: storage.KindColorDeleted, Article: articleID, Color: color})
		}
		return m.articleScreen(uid, articleID)
	case screen.ActionDeleteArticle:
		deleted, err := m.store.DeleteArticle(ctx, articleID)
		if m.settle(uid, err) && deleted {
			m.record(storage.Movement{UserID: uid, Kind: storage.KindArticleDeleted, Article: articleID})
		}
		return m.toMenu(uid, fmt.Sprintf("✅ Артикул <b>%s</b> удален.", html.EscapeString(articleID)))
	case screen.ActionResetConfirm:
		m.sessions.ConfirmResetArticle(uid, articleID)
		return ptr(m.render.ConfirmResetArticle(articleID))
	case screen.ActionAddColor:
		m.sessions.AwaitColor(uid, articleID)
		return ptr(m.render.PromptColorName(articleID))
	}
	return nil
}

func (m *Machine) onCommand(ctx context.Context, ev Event) *screen.Screen {
	uid := ev.UserID
	switch strings.ToLower(ev.Payload) {
	case "start", "menu":
		return m.toMenu(uid, "")
	case "report":
		m.sessions.ClearSelectedArticle(uid)
		return ptr(m.render.Report(m.store.Snapshot()))
	case "reorder":
		m.sessions.ClearSelectedArticle(uid)
		return ptr(m.render.ReorderList(m.store.LowStock(m.opts.Threshold)))
	case "massadd":
		return m.massAdd(ctx, uid, ev.Args)
	}
	return nil
}

func (m *Machine) massAdd(ctx context.Context, uid int64, body string) *screen.Screen {
	snap, lines := inventory.ParseBulk(body)
	if lines == 0 {
		return m.toMenu(uid, hintMassAddUsage)
	}
	created, err := m.store.Merge(ctx, snap)
	if m.settle(uid, err) && created > 0 {
		m.record(storage.Movement{UserID: uid, Kind: storage.KindBulkImport, Delta: created})
	}
	return m.toMenu(uid, fmt.Sprintf("Добавлено/обновлено %d артикулов с цветами.", lines))
}

func (m *Machine) selectArticle(ctx context.Context, uid int64, articleID string) *screen.Screen {
	created, err := m.store.EnsureArticle(ctx, articleID)
	if m.settle(uid, err) && created {
		m.record(storage.Movement{UserID: uid, Kind: storage.KindArticleCreated, Article: articleID})
	}
	m.sessions.SetSelectedArticle(uid, articleID)
	return m.articleScreen(uid, articleID)
}

func (m *Machine) addColor(ctx context.Context, uid int64, articleID, color string) *screen.Screen {
	created, err := m.store.EnsureColor(ctx, articleID, color, m.opts.NewColorQuantity)
	if m.settle(uid, err) && created {
		m.record(storage.Movement{UserID: uid, Kind: storage.KindColorCreated, Article: articleID, Color: color, Quantity: m.opts.NewColorQuantity})
	}
	m.sessions.SetSelectedArticle(uid, articleID)
	return m.articleScreen(uid, articleID)
}

func (m *Machine) editQuantity(ctx context.Context, uid int64, sess session.Session, text string) *screen.Screen {
	current, ok := m.variant(sess.Article, sess.Color)
	if !ok {
		m.sessions.ClearPendingEdit(uid)
		return m.articleScreen(uid, sess.Article)
	}
	value, err := strconv.Atoi(text)
	if err != nil || value < 0 || value > inventory.MaxQuantity {
		return ptr(m.render.PromptQuantity(sess.Article, sess.Color, current, true))
	}
	if m.settle(uid, m.store.SetColorQuantity(ctx, sess.Article, sess.Color, value)) {
		m.record(storage.Movement{UserID: uid, Kind: storage.KindSetQuantity, Article: sess.Article, Color: sess.Color, Delta: value - current, Quantity: value})
	}
	m.sessions.ClearPendingEdit(uid)
	return m.articleScreen(uid, sess.Article)
}

// articleScreen renders the article, or the menu if it no longer exists.
func (m *Machine) articleScreen(uid int64, articleID string) *screen.Screen {
	a, ok := m.store.Article(articleID)
	if !ok {
		return m.toMenu(uid, "")
	}
	return ptr(m.render.ArticleDetail(a))
}

func (m *Machine) withNotice(s *screen.Screen, line string) *screen.Screen {
	if s == nil {
		return nil
	}
	return ptr(screen.WithNotice(*s, line))
}

func (m *Machine) toMenu(uid int64, hint string) *screen.Screen {
	m.sessions.ClearSelectedArticle(uid)
	return ptr(m.render.MainMenu(hint))
}

func (m *Machine) colorAt(articleID string, idx int) (string, bool) {
	a, ok := m.store.Article(articleID)
	if !ok || idx < 0 || idx >= len(a.Colors) {
		return "", false
	}
	return a.Colors[idx].Color, true
}

func (m *Machine) variant(articleID, color string) (int, bool) {
	a, ok := m.store.Article(articleID)
	if !ok {
		return 0, false
	}
	for _, v := range a.Colors {
		if v.Color == color {
			return v.Quantity, true
		}
	}
	return 0, false
}

func (m *Machine) quantityOf(articleID, color string) int {
	q, _ := m.variant(articleID, color)
	return q
}

// settle applies the error policy to a store result and reports whether the
// mutation is in effect. Persistence failures keep the in-memory change and
// leave a warning for the next render.
func (m *Machine) settle(uid int64, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, inventory.ErrPersistence):
		log.Printf("⚠️ %v", err)
		m.sessions.SetWarning(uid, persistenceWarning)
		return true
	case errors.Is(err, inventory.ErrNotFound):
		return false
	default:
		log.Printf("inventory operation failed for %d: %v", uid, err)
		return false
	}
}

func (m *Machine) record(mv storage.Movement) {
	if m.journal == nil {
		return
	}
	mv.Timestamp = m.now().UTC()
	if err := m.journal.AppendMovement(mv); err != nil {
		log.Printf("failed to append movement: %v", err)
	}
}

func (m *Machine) deliver(ctx context.Context, ev Event, s screen.Screen) error {
	if w := m.sessions.TakeWarning(ev.UserID); w != "" {
		s = screen.WithNotice(s, w)
	}
	r := Render{ChatID: ev.ChatID, Screen: s}
	if ev.Kind == Button {
		if last := m.sessions.Get(ev.UserID).Message; !last.IsZero() && last.ChatID == ev.ChatID {
			r.Handle = last
		}
	}
	h, err := m.out.Deliver(ctx, r)
	if err != nil {
		return fmt.Errorf("deliver screen to %d: %w", ev.ChatID, err)
	}
	m.sessions.RecordMessageHandle(ev.UserID, h)
	return nil
}

func ptr(s screen.Screen) *screen.Screen { return &s }
