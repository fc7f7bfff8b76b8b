// Package tui is the interactive operator console. Every view reads the shared
// console resources and performs writes through the console core.
package tui

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/warehouse-console/internal/config"
	"github.com/rl1809/warehouse-console/internal/console"
	"github.com/rl1809/warehouse-console/internal/core/domain"
	"github.com/rl1809/warehouse-console/internal/port"
)

type View int

const (
	ViewDashboard View = iota
	ViewProducts
	ViewProductForm
	ViewOrders
	ViewOrderDetail
	ViewCompose
	ViewTasks
	ViewTaskDetail
)

func (v View) String() string {
	switch v {
	case ViewDashboard:
		return "dashboard"
	case ViewProducts:
		return "products"
	case ViewProductForm:
		return "product form"
	case ViewOrders:
		return "orders"
	case ViewOrderDetail:
		return "order detail"
	case ViewCompose:
		return "new order"
	case ViewTasks:
		return "tasks"
	case ViewTaskDetail:
		return "task detail"
	}
	return "unknown"
}

// tab is the top-level section a view belongs to.
func (v View) tab() View {
	switch v {
	case ViewProductForm:
		return ViewProducts
	case ViewOrderDetail:
		return ViewOrders
	case ViewTaskDetail:
		return ViewTasks
	default:
		return v
	}
}

type Options struct {
	Gateway port.Gateway
	Config  config.Console
	Log     logrus.FieldLogger
	Start   View
}

// collectionKey is the Load key of the shared list resources: they have no parameters.
const collectionKey = "all"

// App is the state shared by every screen.
type App struct {
	ctx  context.Context
	gw   port.Gateway
	cfg  config.Console
	log  logrus.FieldLogger
	keys keyMap

	products *console.Resource[[]domain.Product]
	orders   *console.Resource[[]domain.Order]
	tasks    *console.Resource[[]domain.PickingTask]

	composer  *console.Composer
	lifecycle *console.Lifecycle
	catalog   *console.Catalog

	send    func(tea.Msg)
	pending atomic.Bool
	after   func(d time.Duration, msg tea.Msg) tea.Cmd
}

func newApp(ctx context.Context, opts Options) *App {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	gw := opts.Gateway
	a := &App{
		ctx:  ctx,
		gw:   gw,
		cfg:  opts.Config,
		log:  log,
		keys: defaultKeys(),
		products: console.NewResource("products", func(ctx context.Context) ([]domain.Product, error) {
			return gw.ListProducts(ctx)
		}, log),
		orders: console.NewResource("orders", func(ctx context.Context) ([]domain.Order, error) {
			return gw.ListOrders(ctx)
		}, log),
		tasks: console.NewResource("tasks", func(ctx context.Context) ([]domain.PickingTask, error) {
			return gw.ListTasks(ctx)
		}, log),
		composer:  console.NewComposer(gw, gw, log),
		lifecycle: console.NewLifecycle(gw, gw, log),
		catalog:   console.NewCatalog(gw, log),
		after: func(d time.Duration, msg tea.Msg) tea.Cmd {
			return tea.Tick(d, func(time.Time) tea.Msg { return msg })
		},
	}
	if a.cfg.Dashboard.RecentOrders <= 0 {
		a.cfg.Dashboard.RecentOrders = console.DefaultRecentOrders
	}
	if a.cfg.UI.LowStockThreshold <= 0 {
		a.cfg.UI.LowStockThreshold = domain.LowStockThreshold
	}

	// a cancel returns stock, so products are refreshed along with orders
	a.lifecycle.OnOrderChange(a.orders, a.tasks, a.products)
	a.lifecycle.OnTaskChange(a.tasks, a.orders)
	a.catalog.OnChange(a.products)

	a.products.OnChange(a.notify)
	a.orders.OnChange(a.notify)
	a.tasks.OnChange(a.notify)
	return a
}

// notify asks the program to re-render after a resource changed off the update loop.
// At most one redraw request is in flight.
func (a *App) notify() {
	if a.send == nil || !a.pending.CompareAndSwap(false, true) {
		return
	}
	go a.send(changedMsg{})
}

type (
	changedMsg  struct{}
	loadedMsg   struct{ err error }
	navigateMsg struct {
		view View
		id   int64
	}
)

func navigate(view View, id int64) tea.Cmd {
	return func() tea.Msg { return navigateMsg{view: view, id: id} }
}

type screen interface {
	init() tea.Cmd
	update(msg tea.Msg) tea.Cmd
	view(f frame) string
	help() []key.Binding
	// capturing screens receive every key, global bindings included
	capturing() bool
	close()
}

// frame carries render-time values owned by the root model.
type frame struct {
	spin  string
	width int
}

func (a *App) newScreen(v View, id int64) screen {
	switch v {
	case ViewDashboard:
		return newDashboardScreen(a)
	case ViewProducts:
		return newProductsScreen(a)
	case ViewProductForm:
		return newProductFormScreen(a, id)
	case ViewOrders:
		return newOrdersScreen(a)
	case ViewOrderDetail:
		return newOrderDetailScreen(a, id)
	case ViewCompose:
		return newComposeScreen(a)
	case ViewTasks:
		return newTasksScreen(a)
	case ViewTaskDetail:
		return newTaskDetailScreen(a, id)
	}
	return newDashboardScreen(a)
}

// Model is the root bubbletea model.
type Model struct {
	app     *App
	view    View
	screen  screen
	spinner spinner.Model
	help    help.Model
	width   int
	height  int
}

func New(ctx context.Context, opts Options) Model {
	a := newApp(ctx, opts)
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)
	return Model{
		app:     a,
		view:    opts.Start,
		screen:  a.newScreen(opts.Start, 0),
		spinner: s,
		help:    help.New(),
		width:   100,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.screen.init())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case changedMsg:
		m.app.pending.Store(false)
		return m, nil
	case navigateMsg:
		return m.navigate(msg.view, msg.id)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.Close()
			return m, tea.Quit
		}
		if !m.screen.capturing() {
			k := m.app.keys
			switch {
			case key.Matches(msg, k.Quit):
				m.Close()
				return m, tea.Quit
			case key.Matches(msg, k.Dashboard):
				return m.navigate(ViewDashboard, 0)
			case key.Matches(msg, k.Products):
				return m.navigate(ViewProducts, 0)
			case key.Matches(msg, k.Orders):
				return m.navigate(ViewOrders, 0)
			case key.Matches(msg, k.Tasks):
				return m.navigate(ViewTasks, 0)
			case key.Matches(msg, k.Compose):
				return m.navigate(ViewCompose, 0)
			}
		}
	}
	return m, m.screen.update(msg)
}

// navigate tears down the current screen, stopping anything it started, and enters v.
func (m Model) navigate(v View, id int64) (tea.Model, tea.Cmd) {
	m.screen.close()
	m.app.log.WithFields(logrus.Fields{"from": m.view.String(), "to": v.String(), "id": id}).Debug("navigate")
	m.view = v
	m.screen = m.app.newScreen(v, id)
	return m, m.screen.init()
}

// Close releases the current screen.
func (m Model) Close() {
	m.screen.close()
}

func (m Model) View() string {
	f := frame{spin: m.spinner.View(), width: m.width}
	body := m.screen.view(f)
	bindings := append(m.screen.help(), m.app.keys.global()...)
	footer := m.help.ShortHelpView(bindings)
	return lipgloss.JoinVertical(lipgloss.Left, m.tabs(), "", body, "", footer)
}

func (m Model) tabs() string {
	out := titleStyle.Render("wmsctl") + "  "
	for _, t := range []struct {
		view  View
		label string
	}{
		{ViewDashboard, "1 Dashboard"},
		{ViewProducts, "2 Products"},
		{ViewOrders, "3 Orders"},
		{ViewTasks, "4 Tasks"},
		{ViewCompose, "n New Order"},
	} {
		if m.view.tab() == t.view {
			out += activeTabStyle.Render(t.label)
		} else {
			out += tabStyle.Render(t.label)
		}
	}
	return out
}

// Run starts the console on the terminal and blocks until the operator quits.
func Run(ctx context.Context, opts Options) error {
	m := New(ctx, opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.app.send = p.Send
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.Close()
	}
	return err
}
