package screen

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"testing"
	"unicode/utf8"

	"stock-bot/internal/inventory"
)

func TestArticleDetail_EmptyArticle(t *testing.T) {
	r := NewRenderer(6, 6)
	s := r.ArticleDetail(inventory.Article{ID: "715-44"})
	if !strings.Contains(s.Text, "Артикул: 715-44") {
		t.Fatalf("missing header: %q", s.Text)
	}
	if len(s.Rows) != 2 {
		t.Fatalf("want only the fixed rows, got %d", len(s.Rows))
	}
	last := s.Rows[len(s.Rows)-1]
	if last[0].Action != ActionDeleteArticle || last[1].Action != ActionBackMenu {
		t.Fatalf("fixed row: %+v", last)
	}
}

func TestArticleDetail_LowStockMarker(t *testing.T) {
	r := NewRenderer(6, 6)
	low := r.ArticleDetail(inventory.Article{ID: "1", Colors: []inventory.Variant{{Color: "Black", Quantity: 6}}})
	if !strings.Contains(low.Text, "⚠️ Black: <code>6</code>") {
		t.Fatalf("low stock marker missing: %q", low.Text)
	}
	ok := r.ArticleDetail(inventory.Article{ID: "1", Colors: []inventory.Variant{{Color: "Black", Quantity: 12}}})
	if !strings.Contains(ok.Text, "🔹 Black: <code>12</code>") || strings.Contains(ok.Text, "⚠️") {
		t.Fatalf("normal marker wrong: %q", ok.Text)
	}
	first := ok.Rows[0]
	got := []string{first[0].Action, first[1].Action, first[2].Action}
	want := []string{"increment:0", "edit:0", "delete_color:0"}
	if !slices.Equal(got, want) {
		t.Fatalf("variant row actions: %v", got)
	}
	if first[0].Label != "Black +6" {
		t.Fatalf("increment label: %q", first[0].Label)
	}
}

func TestArticleDetail_EscapesNames(t *testing.T) {
	r := NewRenderer(6, 6)
	s := r.ArticleDetail(inventory.Article{ID: "<1>", Colors: []inventory.Variant{{Color: "a&b", Quantity: 1}}})
	if strings.Contains(s.Text, "<1>") || !strings.Contains(s.Text, "&lt;1&gt;") || !strings.Contains(s.Text, "a&amp;b") {
		t.Fatalf("not escaped: %q", s.Text)
	}
}

func TestReport_SkipsEmptyArticlesAndTotals(t *testing.T) {
	r := NewRenderer(6, 6)
	s := r.Report(inventory.Snapshot{
		{ID: "1", Colors: []inventory.Variant{{Color: "Black", Quantity: 12}, {Color: "White", Quantity: 3}}},
		{ID: "2"},
		{ID: "3", Colors: []inventory.Variant{{Color: "Red", Quantity: 0}}},
	})
	if strings.Contains(s.Text, "<b>2</b>") {
		t.Fatalf("article without colors listed: %q", s.Text)
	}
	if !strings.Contains(s.Text, "Итого: 15 пар") {
		t.Fatalf("total missing: %q", s.Text)
	}
	if !strings.Contains(s.Text, "White: 3 ⚠️") || strings.Contains(s.Text, "Black: 12 ⚠️") {
		t.Fatalf("markers wrong: %q", s.Text)
	}
	if empty := r.Report(inventory.Snapshot{{ID: "2"}}); empty.Text != "📭 Склад пуст." {
		t.Fatalf("empty report: %q", empty.Text)
	}
}

func TestReorderList(t *testing.T) {
	r := NewRenderer(6, 6)
	s := r.ReorderList(slices.Values([]inventory.StockItem{{Article: "1", Color: "Black", Quantity: 2}}))
	if !strings.Contains(s.Text, "<code>1</code> - Black: <b>2</b> пар") {
		t.Fatalf("item missing: %q", s.Text)
	}
	none := r.ReorderList(slices.Values([]inventory.StockItem(nil)))
	if none.Text != "✅ Всех позиций достаточно!" {
		t.Fatalf("sufficient message: %q", none.Text)
	}
}

func TestPromptQuantity_Invalid(t *testing.T) {
	r := NewRenderer(6, 6)
	s := r.PromptQuantity("1", "Black", 6, true)
	if !strings.HasPrefix(s.Text, "❌") || s.Rows[0][0].Action != ActionCancel {
		t.Fatalf("re-prompt: %+v", s)
	}
}

func TestWithNotice(t *testing.T) {
	s := WithNotice(Screen{Text: "body"}, "warn")
	if s.Text != "warn\n\nbody" {
		t.Fatalf("got %q", s.Text)
	}
	if WithNotice(Screen{Text: "body"}, "").Text != "body" {
		t.Fatalf("empty notice changed text")
	}
}

func TestParseAction(t *testing.T) {
	cases := []struct {
		in   string
		want Action
		ok   bool
	}{
		{"increment:3", Action{ActionIncrement, 3}, true},
		{"delete_color:0", Action{ActionDeleteColor, 0}, true},
		{"edit:x", Action{}, false},
		{"edit:-1", Action{}, false},
		{"increment", Action{}, false},
		{"restart_yes", Action{ActionRestartYes, -1}, true},
		{"restart_yes:1", Action{}, false},
		{"a_1", Action{}, false},
	}
	for _, c := range cases {
		got, ok := ParseAction(c.in)
		if ok != c.ok || got != c.want {
			t.Errorf("ParseAction(%q) = %+v, %v; want %+v, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestLongListsFitOneMessage(t *testing.T) {
	r := NewRenderer(6, 6)
	var snap inventory.Snapshot
	for i := range 100 {
		snap = append(snap, inventory.Article{
			ID:     fmt.Sprintf("ARTICLE-%04d", i),
			Colors: []inventory.Variant{{Color: "Very Long Color Name Number One", Quantity: 1}, {Color: "Another Long Color Name", Quantity: 2}},
		})
	}

	reorder := r.ReorderList(lowStock(snap, 6))
	if n := utf8.RuneCountInString(reorder.Text); n > MaxTextRunes {
		t.Fatalf("reorder text has %d runes", n)
	}
	if !strings.Contains(reorder.Text, "… и еще") || !strings.Contains(reorder.Text, "ARTICLE-0000") {
		t.Fatalf("expected a clipped list starting with the first article:\n%s", reorder.Text)
	}

	report := r.Report(snap)
	if n := utf8.RuneCountInString(report.Text); n > MaxTextRunes {
		t.Fatalf("report text has %d runes", n)
	}
	if !strings.HasSuffix(report.Text, "<b>Итого: 300 пар</b>") {
		t.Fatalf("total line lost when clipping:\n%s", report.Text)
	}
}

func TestClip_ShortTextUnchanged(t *testing.T) {
	if got := Clip([]string{"a", "b"}, "", "total"); got != "a\nb\n\ntotal" {
		t.Fatalf("got %q", got)
	}
}

func lowStock(snap inventory.Snapshot, threshold int) iter.Seq[inventory.StockItem] {
	return func(yield func(inventory.StockItem) bool) {
		for _, a := range snap {
			for _, v := range a.Colors {
				if v.Quantity <= threshold && !yield(inventory.StockItem{Article: a.ID, Color: v.Color, Quantity: v.Quantity}) {
					return
				}
			}
		}
	}
}
