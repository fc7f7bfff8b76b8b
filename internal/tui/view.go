package tui

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rl1809/warehouse-console/internal/console"
	"github.com/rl1809/warehouse-console/internal/core/domain"
)

func itoa(n int) string {
	return strconv.Itoa(n)
}

func idCell(prefix string, id int64) string {
	return prefix + strconv.FormatInt(id, 10)
}

// syncResource loads r the first time and refetches it on later visits.
func syncResource[T any](ctx context.Context, r *console.Resource[T]) {
	if r.State().Key == collectionKey {
		r.Invalidate(ctx)
		return
	}
	r.Load(ctx, collectionKey)
}

func syncCmd[T any](ctx context.Context, r *console.Resource[T]) tea.Cmd {
	return func() tea.Msg {
		syncResource(ctx, r)
		return loadedMsg{err: r.State().Err}
	}
}

func refetchCmd[T any](ctx context.Context, r *console.Resource[T]) tea.Cmd {
	return func() tea.Msg {
		_, err := r.Refetch(ctx)
		return loadedMsg{err: err}
	}
}

// resourceBanner describes a resource that is not plainly showing fresh data. blocking is
// true when there is nothing to render underneath.
func resourceBanner[T any](f frame, label string, s console.Snapshot[T]) (banner string, blocking bool) {
	switch {
	case s.Err != nil && !s.HasData:
		return errorBox("Failed to load "+label, s.Err), true
	case !s.HasData:
		return f.spin + " Loading " + label + "...", true
	case s.Err != nil:
		return warningStyle.Render("Showing last loaded " + label + ": " + domain.Message(s.Err)), false
	case s.Loading:
		return mutedStyle.Render(f.spin + " refreshing"), false
	}
	return "", false
}

func errorBox(title string, err error) string {
	return errorBoxStyle.Render(
		errorStyle.Bold(true).Render(title) + "\n" +
			textStyle.Render(domain.Message(err)) + "\n" +
			mutedStyle.Render("press r to retry"),
	)
}

type column struct {
	title string
	width int
}

// renderTable lays rows out in fixed width columns. Cells may carry styling; width is
// measured on the rendered text.
func renderTable(cols []column, rows [][]string, cursor int) string {
	var b strings.Builder
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = pad(c.title, c.width)
	}
	b.WriteString("  " + headerStyle.Render(strings.Join(header, " ")) + "\n")

	for r, row := range rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = pad(cell, c.width)
		}
		line := strings.Join(cells, " ")
		if r == cursor {
			b.WriteString(cursorStyle.Render("▸ ") + selectedRow.Render(line))
		} else {
			b.WriteString("  " + line)
		}
		if r < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func pad(s string, width int) string {
	w := lipgloss.Width(s)
	if w > width {
		if w == len(s) && width > 1 {
			return s[:width-1] + "…"
		}
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

func clamp(cursor, n int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}

func confirmBox(question string) string {
	return confirmStyle.Render(question + "  " + mutedStyle.Render("(y/n)"))
}

// newInput builds a text input with a static cursor; blinking keeps the program busy.
func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Prompt = "› "
	ti.PromptStyle = cursorStyle
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func sortLabel(field console.SortField, asc bool) string {
	dir := "desc"
	if asc {
		dir = "asc"
	}
	return "sort: " + string(field) + " " + dir
}
