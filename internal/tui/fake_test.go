package tui

import (
	"context"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/warehouse-console/internal/config"
	"github.com/rl1809/warehouse-console/internal/core/domain"
)

// fakeGateway is an in-memory port.Gateway. failures maps a method name to an error
// returned once.
type fakeGateway struct {
	mu       sync.Mutex
	products map[int64]domain.Product
	orders   map[int64]domain.Order
	tasks    map[int64]domain.PickingTask
	nextID   int64
	calls    map[string]int
	failures map[string]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		products: map[int64]domain.Product{},
		orders:   map[int64]domain.Order{},
		tasks:    map[int64]domain.PickingTask{},
		nextID:   100,
		calls:    map[string]int{},
		failures: map[string]error{},
	}
}

func (g *fakeGateway) enter(name string) error {
	g.mu.Lock()
	g.calls[name]++
	err := g.failures[name]
	delete(g.failures, name)
	g.mu.Unlock()
	return err
}

func (g *fakeGateway) count(name string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[name]
}

func (g *fakeGateway) failOnce(name string, err error) {
	g.mu.Lock()
	g.failures[name] = err
	g.mu.Unlock()
}

func (g *fakeGateway) addProduct(p domain.Product) {
	g.mu.Lock()
	g.products[p.ID] = p
	g.mu.Unlock()
}

func (g *fakeGateway) addOrder(o domain.Order) {
	g.mu.Lock()
	g.orders[o.ID] = o
	g.mu.Unlock()
}

func (g *fakeGateway) addTask(t domain.PickingTask) {
	g.mu.Lock()
	g.tasks[t.ID] = t
	g.mu.Unlock()
}

func (g *fakeGateway) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if err := g.enter("ListProducts"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.Product, 0, len(g.products))
	for _, p := range g.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *fakeGateway) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	if err := g.enter("GetProduct"); err != nil {
		return domain.Product{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.products[id]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return p, nil
}

func (g *fakeGateway) GetProductBySKU(ctx context.Context, sku string) (domain.Product, error) {
	if err := g.enter("GetProductBySKU"); err != nil {
		return domain.Product{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrNotFound
}

func (g *fakeGateway) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	if err := g.enter("CreateProduct"); err != nil {
		return domain.Product{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	p.ID = g.nextID
	g.products[p.ID] = p
	return p, nil
}

func (g *fakeGateway) UpdateProduct(ctx context.Context, id int64, p domain.Product) (domain.Product, error) {
	if err := g.enter("UpdateProduct"); err != nil {
		return domain.Product{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.products[id]; !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	p.ID = id
	g.products[id] = p
	return p, nil
}

func (g *fakeGateway) DeleteProduct(ctx context.Context, id int64) error {
	if err := g.enter("DeleteProduct"); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.products, id)
	return nil
}

func (g *fakeGateway) CheckStock(ctx context.Context, sku string, quantity int) (domain.StockCheck, error) {
	if err := g.enter("CheckStock"); err != nil {
		return domain.StockCheck{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, p := range g.products {
		if p.SKU != sku {
			continue
		}
		check := domain.StockCheck{SKU: sku, Requested: quantity, Available: p.QuantityInStock, Sufficient: p.QuantityInStock >= quantity}
		if !check.Sufficient {
			return check, &domain.InsufficientStockError{SKU: sku, Requested: quantity, Available: p.QuantityInStock}
		}
		return check, nil
	}
	return domain.StockCheck{}, domain.ErrNotFound
}

func (g *fakeGateway) ListOrders(ctx context.Context) ([]domain.Order, error) {
	if err := g.enter("ListOrders"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.Order, 0, len(g.orders))
	for _, o := range g.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *fakeGateway) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	all, err := g.ListOrders(ctx)
	var out []domain.Order
	for _, o := range all {
		if o.Status == status {
			out = append(out, o)
		}
	}
	return out, err
}

func (g *fakeGateway) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	if err := g.enter("GetOrder"); err != nil {
		return domain.Order{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (g *fakeGateway) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error) {
	if err := g.enter("CreateOrder"); err != nil {
		return domain.Order{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	o := domain.Order{ID: g.nextID, Status: domain.OrderStatusNew, CreatedAt: domain.NewTimestamp(time.Now())}
	for i, item := range req.OrderLineItems {
		o.OrderLineItems = append(o.OrderLineItems, domain.LineItem{ID: int64(i + 1), ProductSKU: item.ProductSKU, Quantity: item.Quantity})
	}
	g.orders[o.ID] = o
	return o, nil
}

func (g *fakeGateway) CancelOrder(ctx context.Context, id int64) (domain.Order, error) {
	if err := g.enter("CancelOrder"); err != nil {
		return domain.Order{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	o.Status = domain.OrderStatusCancelled
	g.orders[id] = o
	return o, nil
}

func (g *fakeGateway) ListTasks(ctx context.Context) ([]domain.PickingTask, error) {
	if err := g.enter("ListTasks"); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]domain.PickingTask, 0, len(g.tasks))
	for _, t := range g.tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *fakeGateway) ListTasksByStatus(ctx context.Context, status domain.TaskStatus) ([]domain.PickingTask, error) {
	all, err := g.ListTasks(ctx)
	var out []domain.PickingTask
	for _, t := range all {
		if t.Status == status {
			out = append(out, t)
		}
	}
	return out, err
}

func (g *fakeGateway) ListInProgressTasks(ctx context.Context) ([]domain.PickingTask, error) {
	return g.ListTasksByStatus(ctx, domain.TaskStatusInProgress)
}

func (g *fakeGateway) ListCompletedTasks(ctx context.Context) ([]domain.PickingTask, error) {
	return g.ListTasksByStatus(ctx, domain.TaskStatusDone)
}

func (g *fakeGateway) GetTask(ctx context.Context, id int64) (domain.PickingTask, error) {
	if err := g.enter("GetTask"); err != nil {
		return domain.PickingTask{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tasks[id]
	if !ok {
		return domain.PickingTask{}, domain.ErrNotFound
	}
	return t, nil
}

func (g *fakeGateway) CompleteTask(ctx context.Context, id int64) (domain.PickingTask, error) {
	if err := g.enter("CompleteTask"); err != nil {
		return domain.PickingTask{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tasks[id]
	if !ok {
		return domain.PickingTask{}, domain.ErrNotFound
	}
	t.Status = domain.TaskStatusDone
	g.tasks[id] = t
	if o, ok := g.orders[t.OrderID]; ok {
		o.Status = domain.OrderStatusCompleted
		g.orders[o.ID] = o
	}
	return t, nil
}

// seededGateway carries a small warehouse: two products, one of them low on stock, an
// order per interesting status and a picking task for the PICKING order.
func seededGateway() *fakeGateway {
	g := newFakeGateway()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	g.addProduct(domain.Product{ID: 1, SKU: "BOX001", Name: "Cardboard Box", LocationCode: "A-01", QuantityInStock: 40})
	g.addProduct(domain.Product{ID: 2, SKU: "TAPE01", Name: "Packing Tape", LocationCode: "B-02", QuantityInStock: 3})
	g.addOrder(domain.Order{ID: 1, Status: domain.OrderStatusNew, CreatedAt: domain.NewTimestamp(now),
		OrderLineItems: []domain.LineItem{{ID: 1, ProductSKU: "BOX001", Quantity: 2}}})
	g.addOrder(domain.Order{ID: 2, Status: domain.OrderStatusPicking, CreatedAt: domain.NewTimestamp(now.Add(time.Hour)),
		OrderLineItems: []domain.LineItem{{ID: 2, ProductSKU: "BOX001", Quantity: 1}, {ID: 3, ProductSKU: "TAPE01", Quantity: 2}}})
	g.addTask(domain.PickingTask{ID: 7, OrderID: 2, Status: domain.TaskStatusInProgress, CreatedAt: domain.NewTimestamp(now.Add(2 * time.Hour))})
	return g
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newFlowModel(t *testing.T, gw *fakeGateway, start View) Model {
	t.Helper()
	m := New(context.Background(), Options{
		Gateway: gw,
		Config:  config.Console{Dashboard: config.DashboardConfig{PollInterval: time.Hour, RecentOrders: 5}},
		Log:     quietLogger(),
		Start:   start,
	})
	// redirects fire immediately
	m.app.after = func(d time.Duration, msg tea.Msg) tea.Cmd {
		return func() tea.Msg { return msg }
	}
	return flowDrainCmd(t, m, m.screen.init())
}

func flowKey(k string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func flowApplyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	got, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return flowDrainCmd(t, got, cmd)
}

func flowPress(t *testing.T, m Model, key string) Model {
	t.Helper()
	return flowApplyMsg(t, m, flowKey(key))
}

func flowType(t *testing.T, m Model, input string) Model {
	t.Helper()
	for _, r := range input {
		m = flowPress(t, m, string(r))
	}
	return m
}

func flowSpecial(t *testing.T, m Model, kt tea.KeyType) Model {
	t.Helper()
	return flowApplyMsg(t, m, tea.KeyMsg{Type: kt})
}

// flowDrainCmd runs cmd and every command it leads to, feeding each message back into
// the model. Batches are flattened.
func flowDrainCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 64 {
			t.Fatal("command chain exceeded max depth")
		}
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		switch msg := msg.(type) {
		case nil:
			continue
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case tea.QuitMsg:
			continue
		}
		updated, nextCmd := m.Update(msg)
		got, ok := updated.(Model)
		if !ok {
			t.Fatalf("command update returned %T, want Model", updated)
		}
		m = got
		queue = append(queue, nextCmd)
	}
	return m
}
