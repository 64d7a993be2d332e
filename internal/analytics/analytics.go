package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"stock-bot/internal/storage"
)

// DailyStats содержит статистику движений склада за день
type DailyStats struct {
	Date        string                `json:"date"`
	Movements   int                   `json:"movements"`
	ActiveUsers int                   `json:"active_users"`
	PairsAdded  int                   `json:"pairs_added"`
	ByKind      map[storage.Kind]int  `json:"by_kind"`
	Articles    map[string]ArticleDay `json:"articles"`
}

// ArticleDay содержит итоги по одному артикулу
type ArticleDay struct {
	Article    string `json:"article"`
	Movements  int    `json:"movements"`
	PairsAdded int    `json:"pairs_added"`
}

// AnalyzeDailyMovements собирает статистику за день, в котором лежит targetDate
func AnalyzeDailyMovements(movements []storage.Movement, targetDate time.Time) *DailyStats {
	startOfDay, _ := storage.DayBounds(targetDate)

	stats := &DailyStats{
		Date:     startOfDay.Format("2006-01-02"),
		ByKind:   make(map[storage.Kind]int),
		Articles: make(map[string]ArticleDay),
	}
	users := make(map[int64]bool)

	for _, m := range movements {
		if !m.OnDay(targetDate) {
			continue
		}
		stats.Movements++
		stats.ByKind[m.Kind]++
		users[m.UserID] = true

		added := 0
		if m.Kind == storage.KindIncrement && m.Delta > 0 {
			added = m.Delta
		}
		stats.PairsAdded += added

		if m.Article == "" {
			continue
		}
		day := stats.Articles[m.Article]
		day.Article = m.Article
		day.Movements++
		day.PairsAdded += added
		stats.Articles[m.Article] = day
	}

	stats.ActiveUsers = len(users)
	return stats
}

// GenerateReportSummary создает текстовое резюме для администратора
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Движение склада за %s:\n", ds.Date)
	fmt.Fprintf(&b, "- Операций: %d\n", ds.Movements)
	fmt.Fprintf(&b, "- Пользователей: %d\n", ds.ActiveUsers)
	fmt.Fprintf(&b, "- Добавлено пар: %d\n", ds.PairsAdded)

	if len(ds.Articles) > 0 {
		ids := make([]string, 0, len(ds.Articles))
		for id := range ds.Articles {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		b.WriteString("\nПо артикулам:\n")
		for _, id := range ids {
			a := ds.Articles[id]
			fmt.Fprintf(&b, "- %s: %d операций", a.Article, a.Movements)
			if a.PairsAdded > 0 {
				fmt.Fprintf(&b, ", +%d пар", a.PairsAdded)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// ToJSON сериализует статистику в JSON для детального анализа
func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
