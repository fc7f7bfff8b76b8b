package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/rl1809/warehouse-console/internal/console"
	"github.com/rl1809/warehouse-console/internal/core/domain"
)

type dashboardScreen struct {
	app    *App
	poller *console.Poller
	cursor int
}

func newDashboardScreen(a *App) *dashboardScreen {
	return &dashboardScreen{app: a}
}

// init loads the three collections concurrently and keeps them polled while the
// dashboard is shown.
func (s *dashboardScreen) init() tea.Cmd {
	a := s.app
	s.poller = console.StartPoller(a.ctx, a.cfg.Dashboard.PollInterval, a.products, a.orders, a.tasks)
	return func() tea.Msg {
		var g errgroup.Group
		g.Go(func() error { syncResource(a.ctx, a.products); return nil })
		g.Go(func() error { syncResource(a.ctx, a.orders); return nil })
		g.Go(func() error { syncResource(a.ctx, a.tasks); return nil })
		_ = g.Wait()
		return loadedMsg{}
	}
}

func (s *dashboardScreen) close() {
	if s.poller != nil {
		s.poller.Stop()
	}
}

func (s *dashboardScreen) capturing() bool { return false }

func (s *dashboardScreen) help() []key.Binding {
	k := s.app.keys
	return []key.Binding{k.Up, k.Down, k.Open, k.Refresh}
}

func (s *dashboardScreen) recent() []domain.Order {
	return console.RecentOrders(s.app.orders.State().Data, s.app.cfg.Dashboard.RecentOrders)
}

func (s *dashboardScreen) update(msg tea.Msg) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	k := s.app.keys
	recent := s.recent()
	switch {
	case key.Matches(km, k.Up):
		s.cursor = clamp(s.cursor-1, len(recent))
	case key.Matches(km, k.Down):
		s.cursor = clamp(s.cursor+1, len(recent))
	case key.Matches(km, k.Open):
		if len(recent) > 0 {
			return navigate(ViewOrderDetail, recent[clamp(s.cursor, len(recent))].ID)
		}
	case key.Matches(km, k.Refresh):
		a := s.app
		return tea.Batch(refetchCmd(a.ctx, a.products), refetchCmd(a.ctx, a.orders), refetchCmd(a.ctx, a.tasks))
	}
	return nil
}

func (s *dashboardScreen) view(f frame) string {
	a := s.app
	products, orders, tasks := a.products.State(), a.orders.State(), a.tasks.State()

	var failed []string
	for _, st := range []struct {
		name string
		err  error
		has  bool
	}{
		{"products", products.Err, products.HasData},
		{"orders", orders.Err, orders.HasData},
		{"tasks", tasks.Err, tasks.HasData},
	} {
		if st.err != nil && !st.has {
			return errorBox("Failed to load dashboard", st.err)
		}
		if st.err != nil {
			failed = append(failed, st.name)
		}
	}
	if !products.HasData || !orders.HasData || !tasks.HasData {
		return f.spin + " Loading dashboard..."
	}

	d := console.Summarize(products.Data, orders.Data, tasks.Data, a.cfg.Dashboard.RecentOrders)
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total Products", d.TotalProducts, colorBlue),
		card("Low Stock Items", d.LowStockCount, colorWarning),
		card("Active Orders", d.ActiveOrderCount, colorPeach),
		card("Pending Tasks", d.PendingTaskCount, colorInfo),
	)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Dashboard") + "  " + subtitleStyle.Render("Overview of warehouse operations") + "\n")
	if len(failed) > 0 {
		b.WriteString(warningStyle.Render("Refresh failed for "+strings.Join(failed, ", ")+"; press r to retry") + "\n")
	}
	b.WriteString(cards + "\n\n")

	b.WriteString(headerStyle.Render("Low Stock Alert") + "\n")
	if len(d.LowStock) == 0 {
		b.WriteString(successStyle.Render("  All products are well stocked") + "\n")
	}
	for _, p := range d.LowStock {
		b.WriteString("  " + pad(p.SKU, 12) + " " + pad(p.Name, 28) + " " + stockCell(p.QuantityInStock, a.cfg.UI.LowStockThreshold) + " left\n")
	}

	b.WriteString("\n" + headerStyle.Render("Recent Orders") + "\n")
	if len(d.RecentOrders) == 0 {
		b.WriteString(mutedStyle.Render("  No orders yet"))
		return b.String()
	}
	rows := make([][]string, 0, len(d.RecentOrders))
	for _, o := range d.RecentOrders {
		rows = append(rows, []string{
			idCell("#", o.ID),
			orderBadge(o.Status),
			domain.FormatDate(o.CreatedAt.Time),
			itoa(o.ProductTypes()) + " items",
		})
	}
	b.WriteString(renderTable([]column{{"Order", 8}, {"Status", 11}, {"Created", 24}, {"Lines", 10}}, rows, clamp(s.cursor, len(rows))))
	return b.String()
}

func card(label string, value int, accent lipgloss.Color) string {
	return cardStyle.Render(
		subtitleStyle.Render(label) + "\n" +
			lipgloss.NewStyle().Foreground(accent).Bold(true).Render(itoa(value)),
	)
}
