package scheduler

import (
	"context"
	"html"
	"log"
	"strings"
	"time"

	"stock-bot/internal/analytics"
	"stock-bot/internal/inventory"
	"stock-bot/internal/screen"
	"stock-bot/internal/storage"
)

// Notifier delivers a standalone message.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// StockReport sends the administrator the reorder list and the day's movements.
type StockReport struct {
	Store    *inventory.Store
	Journal  storage.Recorder
	Renderer screen.Renderer
	Notifier Notifier
	AdminID  int64
	Now      func() time.Time
}

// Build returns the report text, clipped to one Telegram message.
func (r StockReport) Build() string {
	lines := strings.Split(r.Renderer.ReorderText(r.Store.LowStock(r.Renderer.Threshold)), "\n")
	if r.Journal == nil {
		return screen.Clip(lines)
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	day := now().UTC()
	movements, err := r.Journal.MovementsOn(day)
	if err != nil {
		lines = append(lines, "", "⚠️ Журнал недоступен: "+html.EscapeString(err.Error()))
		return screen.Clip(lines)
	}
	stats := analytics.AnalyzeDailyMovements(movements, day)
	if js, err := stats.ToJSON(); err == nil {
		log.Printf("📊 daily stats: %s", js)
	}
	summary := strings.TrimRight(html.EscapeString(stats.GenerateReportSummary()), "\n")
	lines = append(lines, "")
	lines = append(lines, strings.Split(summary, "\n")...)
	return screen.Clip(lines)
}

// Run builds and sends the report. It is a no-op without an administrator.
func (r StockReport) Run(ctx context.Context) error {
	if r.AdminID == 0 {
		return nil
	}
	return r.Notifier.Notify(ctx, r.AdminID, r.Build())
}
