package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rl1809/warehouse-console/internal/console"
	"github.com/rl1809/warehouse-console/internal/core/domain"
)

var orderSortFields = []console.SortField{console.SortByCreatedAt, console.SortByID, console.SortByStatus}

func orderFilters() []string {
	out := []string{console.StatusFilterAll}
	for _, s := range domain.AllOrderStatuses() {
		out = append(out, string(s))
	}
	return out
}

type ordersScreen struct {
	app       *App
	filters   []string
	filterIdx int
	sortIdx   int
	asc       bool
	cursor    int
}

func newOrdersScreen(a *App) *ordersScreen {
	return &ordersScreen{app: a, filters: orderFilters()}
}

func (s *ordersScreen) init() tea.Cmd {
	return syncCmd(s.app.ctx, s.app.orders)
}

func (s *ordersScreen) close() {}

func (s *ordersScreen) capturing() bool { return false }

func (s *ordersScreen) help() []key.Binding {
	k := s.app.keys
	return []key.Binding{k.Up, k.Down, k.Open, k.Filter, k.Sort, k.Reverse, k.Refresh}
}

func (s *ordersScreen) visible() []domain.Order {
	filtered := console.FilterOrders(s.app.orders.State().Data, s.filters[s.filterIdx])
	sorted, err := console.SortOrders(filtered, orderSortFields[s.sortIdx], s.asc)
	if err != nil {
		return filtered
	}
	return sorted
}

func (s *ordersScreen) update(msg tea.Msg) tea.Cmd {
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
			return navigate(ViewOrderDetail, items[clamp(s.cursor, len(items))].ID)
		}
	case key.Matches(km, k.Filter):
		s.filterIdx = (s.filterIdx + 1) % len(s.filters)
		s.cursor = 0
	case key.Matches(km, k.Sort):
		s.sortIdx = (s.sortIdx + 1) % len(orderSortFields)
	case key.Matches(km, k.Reverse):
		s.asc = !s.asc
	case key.Matches(km, k.Refresh):
		return refetchCmd(s.app.ctx, s.app.orders)
	}
	return nil
}

func (s *ordersScreen) view(f frame) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Orders") + "  " + subtitleStyle.Render("Track and manage customer orders") + "\n")

	state := s.app.orders.State()
	banner, blocking := resourceBanner(f, "orders", state)
	if blocking {
		return b.String() + banner
	}
	if banner != "" {
		b.WriteString(banner + "\n")
	}

	counts := console.OrderStatusCounts(state.Data)
	chips := make([]string, 0, len(s.filters))
	for i, name := range s.filters {
		n := len(state.Data)
		if name != console.StatusFilterAll {
			n = counts[domain.OrderStatus(name)]
		}
		chip := name + " " + itoa(n)
		if i == s.filterIdx {
			chips = append(chips, activeTabStyle.Render(chip))
		} else {
			chips = append(chips, tabStyle.Render(chip))
		}
	}
	b.WriteString(strings.Join(chips, "") + "\n")
	b.WriteString(mutedStyle.Render(sortLabel(orderSortFields[s.sortIdx], s.asc)) + "\n\n")

	items := s.visible()
	if len(items) == 0 {
		b.WriteString(mutedStyle.Render("  No orders found"))
		return b.String()
	}
	rows := make([][]string, 0, len(items))
	for _, o := range items {
		rows = append(rows, []string{
			idCell("#", o.ID),
			orderBadge(o.Status),
			domain.FormatDate(o.CreatedAt.Time),
			itoa(o.ProductTypes()),
			itoa(o.TotalUnits()),
		})
	}
	b.WriteString(renderTable([]column{{"Order", 8}, {"Status", 11}, {"Created", 24}, {"Products", 9}, {"Units", 7}}, rows, clamp(s.cursor, len(rows))))
	return b.String()
}
