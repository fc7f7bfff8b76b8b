package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rl1809/warehouse-console/internal/console"
	"github.com/rl1809/warehouse-console/internal/core/domain"
)

var taskSortFields = []console.SortField{console.SortByCreatedAt, console.SortByID, console.SortByOrderID, console.SortByStatus}

type tasksScreen struct {
	app       *App
	filters   []string
	filterIdx int
	sortIdx   int
	asc       bool
	cursor    int
}

func newTasksScreen(a *App) *tasksScreen {
	filters := []string{console.StatusFilterAll}
	for _, st := range domain.AllTaskStatuses() {
		filters = append(filters, string(st))
	}
	return &tasksScreen{app: a, filters: filters}
}

func (s *tasksScreen) init() tea.Cmd {
	return syncCmd(s.app.ctx, s.app.tasks)
}

func (s *tasksScreen) close() {}

func (s *tasksScreen) capturing() bool { return false }

func (s *tasksScreen) help() []key.Binding {
	k := s.app.keys
	return []key.Binding{k.Up, k.Down, k.Open, k.Filter, k.Sort, k.Reverse, k.Refresh}
}

func (s *tasksScreen) visible() []domain.PickingTask {
	filtered := console.FilterTasks(s.app.tasks.State().Data, s.filters[s.filterIdx])
	sorted, err := console.SortTasks(filtered, taskSortFields[s.sortIdx], s.asc)
	if err != nil {
		return filtered
	}
	return sorted
}

func (s *tasksScreen) update(msg tea.Msg) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	k := s.app.keys
	items := s.visible()
	switch {
	case key.Matches(km, k.Up):
		s.cursor = clamp(s.cursor-1, len(items))
	case key.Matches(km, k.Down):
		s.cursor = clamp(s.cursor+1, len(items))
	case key.Matches(km, k.Open):
		if len(items) > 0 {
			return navigate(ViewTaskDetail, items[clamp(s.cursor, len(items))].ID)
		}
	case key.Matches(km, k.Filter):
		s.filterIdx = (s.filterIdx + 1) % len(s.filters)
		s.cursor = 0
	case key.Matches(km, k.Sort):
		s.sortIdx = (s.sortIdx + 1) % len(taskSortFields)
	case key.Matches(km, k.Reverse):
		s.asc = !s.asc
	case key.Matches(km, k.Refresh):
		return refetchCmd(s.app.ctx, s.app.tasks)
	}
	return nil
}

func (s *tasksScreen) view(f frame) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Picking Tasks") + "  " + subtitleStyle.Render("Manage warehouse picking operations") + "\n")

	state := s.app.tasks.State()
	banner, blocking := resourceBanner(f, "picking tasks", state)
	if blocking {
		return b.String() + banner
	}
	if banner != "" {
		b.WriteString(banner + "\n")
	}

	counts := console.TaskStatusCounts(state.Data)
	chips := make([]string, 0, len(s.filters))
	for i, name := range s.filters {
		n := len(state.Data)
		if name != console.StatusFilterAll {
			n = counts[domain.TaskStatus(name)]
		}
		chip := strings.ReplaceAll(name, "_", " ") + " " + itoa(n)
		if i == s.filterIdx {
			chips = append(chips, activeTabStyle.Render(chip))
		} else {
			chips = append(chips, tabStyle.Render(chip))
		}
	}
	b.WriteString(strings.Join(chips, "") + "\n")
	b.WriteString(mutedStyle.Render(sortLabel(taskSortFields[s.sortIdx], s.asc)) + "\n\n")

	items := s.visible()
	if len(items) == 0 {
		b.WriteString(mutedStyle.Render("  No picking tasks found"))
		return b.String()
	}
	rows := make([][]string, 0, len(items))
	for _, t := range items {
		rows = append(rows, []string{
			idCell("#", t.ID),
			idCell("Order #", t.OrderID),
			taskBadge(t.Status),
			domain.FormatDate(t.CreatedAt.Time),
		})
	}
	b.WriteString(renderTable([]column{{"Task", 8}, {"Order", 12}, {"Status", 13}, {"Created", 24}}, rows, clamp(s.cursor, len(rows))))
	return b.String()
}
