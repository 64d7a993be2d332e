package screen

import (
	"fmt"
	"html"
	"iter"
	"strings"
	"unicode/utf8"

	"stock-bot/internal/inventory"
)

// MaxTextRunes keeps rendered text under Telegram's 4096 character limit
// with room for a notice line.
const MaxTextRunes = 3800

// Button is one inline button.
type Button struct {
	Label  string
	Action string
}

// Screen is rendered content ready for delivery. Text is Telegram HTML.
type Screen struct {
	Text string
	Rows [][]Button
}

// WithNotice prepends a single line to the screen text.
func WithNotice(s Screen, line string) Screen {
	if line == "" {
		return s
	}
	s.Text = line + "\n\n" + s.Text
	return s
}

// Renderer builds screens. It performs no I/O and never mutates its inputs.
type Renderer struct {
	// Threshold marks colors at or below it as low stock.
	Threshold int
	// Step is the amount added by the increment button.
	Step int
}

func NewRenderer(threshold, step int) Renderer {
	return Renderer{Threshold: threshold, Step: step}
}

func row(bs ...Button) []Button { return bs }

func backRow() []Button { return row(Button{"⬅️ В меню", ActionBackMenu}) }

func (r Renderer) MainMenu(hint string) Screen {
	var b strings.Builder
	if hint != "" {
		b.WriteString(hint)
		b.WriteString("\n\n")
	}
	b.WriteString("📦 <b>Учет склада</b>\nВведите артикул или выберите действие:")
	return Screen{
		Text: b.String(),
		Rows: [][]Button{
			row(Button{"📋 Сводка", ActionReport}, Button{"📦 Дозаказ", ActionReorder}),
			row(Button{"🔄 Обнулить склад", ActionRestartConfirm}),
			row(Button{"▶️ Начать работу", ActionStart}),
		},
	}
}

func (r Renderer) marker(qty int) string {
	if qty <= r.Threshold {
		return "⚠️"
	}
	return "🔹"
}

func (r Renderer) ArticleDetail(a inventory.Article) Screen {
	lines := []string{fmt.Sprintf("📦 <b>Артикул: %s</b>", html.EscapeString(a.ID)), "---"}
	rows := make([][]Button, 0, len(a.Colors)+2)
	for i, v := range a.Colors {
		name := html.EscapeString(v.Color)
		lines = append(lines, fmt.Sprintf("%s %s: <code>%d</code> пар", r.marker(v.Quantity), name, v.Quantity))
		rows = append(rows, row(
			Button{fmt.Sprintf("%s +%d", v.Color, r.Step), indexed(ActionIncrement, i)},
			Button{"✏️", indexed(ActionEdit, i)},
			Button{"🗑", indexed(ActionDeleteColor, i)},
		))
	}
	if len(a.Colors) == 0 {
		lines = append(lines, "Цветов пока нет. Отправьте название цвета сообщением.")
	}
	rows = append(rows,
		row(Button{"➕ Добавить цвет", ActionAddColor}, Button{"🔄 Сброс артикула", ActionResetConfirm}),
		row(Button{"❌ Удалить весь артикул", ActionDeleteArticle}, Button{"⬅️ В меню", ActionBackMenu}),
	)
	return Screen{Text: strings.Join(lines, "\n"), Rows: rows}
}

func (r Renderer) ConfirmRestart() Screen {
	return Screen{
		Text: "⚠️ Удалить всё?",
		Rows: [][]Button{row(Button{"✅ Да", ActionRestartYes}, Button{"❌ Нет", ActionRestartNo})},
	}
}

func (r Renderer) ConfirmResetArticle(id string) Screen {
	return Screen{
		Text: fmt.Sprintf("Вы уверены, что хотите обнулить артикул <b>%s</b>?", html.EscapeString(id)),
		Rows: [][]Button{row(Button{"✅ Да", ActionResetYes}, Button{"❌ Нет", ActionResetNo})},
	}
}

func (r Renderer) PromptColorName(id string) Screen {
	return Screen{
		Text: fmt.Sprintf("Артикул <b>%s</b>\nВведите название нового цвета:", html.EscapeString(id)),
		Rows: [][]Button{row(Button{"❌ Отмена", ActionCancel})},
	}
}

// PromptQuantity asks for an absolute quantity. invalid adds a re-prompt line.
func (r Renderer) PromptQuantity(id, color string, current int, invalid bool) Screen {
	var b strings.Builder
	if invalid {
		fmt.Fprintf(&b, "❌ Нужно целое число от 0 до %d.\n", inventory.MaxQuantity)
	}
	fmt.Fprintf(&b, "Артикул <b>%s</b>, цвет <b>%s</b>: сейчас <code>%d</code> пар.\nВведите новое количество:",
		html.EscapeString(id), html.EscapeString(color), current)
	return Screen{
		Text: b.String(),
		Rows: [][]Button{row(Button{"❌ Отмена", ActionCancel})},
	}
}

// Report lists every article that has at least one color and the grand total.
func (r Renderer) Report(snap inventory.Snapshot) Screen {
	lines := []string{"📋 <b>СВОДКА СКЛАДА</b>", ""}
	total := 0
	listed := 0
	for _, a := range snap {
		if len(a.Colors) == 0 {
			continue
		}
		listed++
		lines = append(lines, fmt.Sprintf("🆔 <b>%s</b> (%d пар):", html.EscapeString(a.ID), a.Total()))
		for _, v := range a.Colors {
			mark := ""
			if v.Quantity <= r.Threshold {
				mark = " ⚠️"
			}
			lines = append(lines, fmt.Sprintf("  - %s: %d%s", html.EscapeString(v.Color), v.Quantity, mark))
			total += v.Quantity
		}
	}
	if listed == 0 {
		return Screen{Text: "📭 Склад пуст.", Rows: [][]Button{backRow()}}
	}
	return Screen{
		Text: Clip(lines, "", fmt.Sprintf("<b>Итого: %d пар</b>", total)),
		Rows: [][]Button{backRow()},
	}
}

// ReorderList lists the low stock colors or says that everything is sufficient.
func (r Renderer) ReorderList(items iter.Seq[inventory.StockItem]) Screen {
	return Screen{Text: r.ReorderText(items), Rows: [][]Button{backRow()}}
}

func (r Renderer) ReorderText(items iter.Seq[inventory.StockItem]) string {
	lines := []string{fmt.Sprintf("🛒 <b>СПИСОК НА ДОЗАКАЗ (%d пар и меньше)</b>", r.Threshold), ""}
	found := false
	for it := range items {
		found = true
		lines = append(lines, fmt.Sprintf("• <code>%s</code> - %s: <b>%d</b> пар",
			html.EscapeString(it.Article), html.EscapeString(it.Color), it.Quantity))
	}
	if !found {
		return "✅ Всех позиций достаточно!"
	}
	return Clip(lines)
}

// Clip joins lines followed by tail. When the result would exceed
// MaxTextRunes, trailing lines are replaced with a count of what was left out.
func Clip(lines []string, tail ...string) string {
	all := append(lines[:len(lines):len(lines)], tail...)
	text := strings.Join(all, "\n")
	if utf8.RuneCountInString(text) <= MaxTextRunes {
		return text
	}
	budget := MaxTextRunes - utf8.RuneCountInString(strings.Join(tail, "\n")) - 40
	used, kept := 0, 0
	for _, l := range lines {
		n := utf8.RuneCountInString(l) + 1
		if used+n > budget {
			break
		}
		used += n
		kept++
	}
	out := append(lines[:kept:kept], fmt.Sprintf("… и еще %d строк", len(lines)-kept))
	return strings.Join(append(out, tail...), "\n")
}
