package storage

import "time"

// Kind names an inventory mutation.
type Kind string

const (
	KindArticleCreated Kind = "article_created"
	KindColorCreated   Kind = "color_created"
	KindIncrement      Kind = "increment"
	KindSetQuantity    Kind = "set_quantity"
	KindColorDeleted   Kind = "color_deleted"
	KindArticleDeleted Kind = "article_deleted"
	KindArticleReset   Kind = "article_reset"
	KindRestart        Kind = "restart"
	KindBulkImport     Kind = "bulk_import"
)

// Movement is one applied inventory mutation.
// Delta is the change in pairs where it is meaningful; Quantity is the
// resulting quantity of the color for color-level movements.
type Movement struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"user_id"`
	Kind      Kind      `json:"kind"`
	Article   string    `json:"article,omitempty"`
	Color     string    `json:"color,omitempty"`
	Delta     int       `json:"delta,omitempty"`
	Quantity  int       `json:"quantity"`
}

// DayBounds returns the start and end of the calendar day containing t,
// in t's location.
func DayBounds(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// OnDay reports whether the movement happened on the day containing day.
func (m Movement) OnDay(day time.Time) bool {
	start, end := DayBounds(day)
	return !m.Timestamp.Before(start) && m.Timestamp.Before(end)
}

// FilterDay keeps the movements of the day containing day, in order.
func FilterDay(ms []Movement, day time.Time) []Movement {
	var out []Movement
	for _, m := range ms {
		if m.OnDay(day) {
			out = append(out, m)
		}
	}
	return out
}

// Recorder abstracts the movement journal.
// LoadMovements returns movements in the order they were appended;
// MovementsOn returns only those of one day.
// Implementations must be safe for concurrent use.
type Recorder interface {
	AppendMovement(m Movement) error
	LoadMovements() ([]Movement, error)
	MovementsOn(day time.Time) ([]Movement, error)
}
