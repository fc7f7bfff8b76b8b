package console

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/warehouse-console/internal/core/domain"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// mockGateway is an in-memory port.Gateway. Stock checks answer from stock; a SKU missing
// from stock has nothing available.
type mockGateway struct {
	mu sync.Mutex

	stock    map[string]int
	orders   map[int64]domain.Order
	tasks    map[int64]domain.PickingTask
	nextID   int64
	checkFn  func(sku string, quantity int) (domain.StockCheck, error)
	createFn func(req domain.CreateOrderRequest) (domain.Order, error)
	cancelFn func(id int64) (domain.Order, error)

	calls map[string]int
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		stock:  make(map[string]int),
		orders: make(map[int64]domain.Order),
		tasks:  make(map[int64]domain.PickingTask),
		calls:  make(map[string]int),
	}
}

func (m *mockGateway) record(name string) {
	m.mu.Lock()
	m.calls[name]++
	m.mu.Unlock()
}

func (m *mockGateway) count(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockGateway) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

func (m *mockGateway) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.record("ListProducts")
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Product
	for sku, q := range m.stock {
		out = append(out, domain.Product{SKU: sku, Name: sku, QuantityInStock: q})
	}
	return out, nil
}

func (m *mockGateway) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	m.record("GetProduct")
	return domain.Product{}, domain.ErrNotFound
}

func (m *mockGateway) GetProductBySKU(ctx context.Context, sku string) (domain.Product, error) {
	m.record("GetProductBySKU")
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.stock[sku]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	return domain.Product{SKU: sku, QuantityInStock: q}, nil
}

func (m *mockGateway) CreateProduct(ctx context.Context, p domain.Product) (domain.Product, error) {
	m.record("CreateProduct")
	return p, nil
}

func (m *mockGateway) UpdateProduct(ctx context.Context, id int64, p domain.Product) (domain.Product, error) {
	m.record("UpdateProduct")
	return p, nil
}

func (m *mockGateway) DeleteProduct(ctx context.Context, id int64) error {
	m.record("DeleteProduct")
	return nil
}

func (m *mockGateway) CheckStock(ctx context.Context, sku string, quantity int) (domain.StockCheck, error) {
	m.record("CheckStock")
	if m.checkFn != nil {
		return m.checkFn(sku, quantity)
	}
	m.mu.Lock()
	available := m.stock[sku]
	m.mu.Unlock()
	check := domain.StockCheck{SKU: sku, Requested: quantity, Available: available, Sufficient: available >= quantity}
	if !check.Sufficient {
		return check, &domain.InsufficientStockError{SKU: sku, Requested: quantity, Available: available}
	}
	return check, nil
}

func (m *mockGateway) ListOrders(ctx context.Context) ([]domain.Order, error) {
	m.record("ListOrders")
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *mockGateway) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	all, _ := m.ListOrders(ctx)
	return FilterOrders(all, string(status)), nil
}

func (m *mockGateway) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	m.record("GetOrder")
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	return o, nil
}

func (m *mockGateway) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error) {
	m.record("CreateOrder")
	if m.createFn != nil {
		return m.createFn(req)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	order := domain.Order{ID: m.nextID, Status: domain.OrderStatusNew}
	for i, item := range req.OrderLineItems {
		order.OrderLineItems = append(order.OrderLineItems, domain.LineItem{ID: int64(i + 1), ProductSKU: item.ProductSKU, Quantity: item.Quantity})
	}
	m.orders[order.ID] = order
	return order, nil
}

func (m *mockGateway) CancelOrder(ctx context.Context, id int64) (domain.Order, error) {
	m.record("CancelOrder")
	if m.cancelFn != nil {
		return m.cancelFn(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrNotFound
	}
	o.Status = domain.OrderStatusCancelled
	m.orders[id] = o
	return o, nil
}

func (m *mockGateway) ListTasks(ctx context.Context) ([]domain.PickingTask, error) {
	m.record("ListTasks")
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PickingTask
	for _, t := range m.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockGateway) ListTasksByStatus(ctx context.Context, status domain.TaskStatus) ([]domain.PickingTask, error) {
	all, _ := m.ListTasks(ctx)
	return FilterTasks(all, string(status)), nil
}

func (m *mockGateway) ListInProgressTasks(ctx context.Context) ([]domain.PickingTask, error) {
	return m.ListTasksByStatus(ctx, domain.TaskStatusInProgress)
}

func (m *mockGateway) ListCompletedTasks(ctx context.Context) ([]domain.PickingTask, error) {
	return m.ListTasksByStatus(ctx, domain.TaskStatusDone)
}

func (m *mockGateway) GetTask(ctx context.Context, id int64) (domain.PickingTask, error) {
	m.record("GetTask")
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return domain.PickingTask{}, domain.ErrNotFound
	}
	return t, nil
}

func (m *mockGateway) CompleteTask(ctx context.Context, id int64) (domain.PickingTask, error) {
	m.record("CompleteTask")
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return domain.PickingTask{}, domain.ErrNotFound
	}
	t.Status = domain.TaskStatusDone
	m.tasks[id] = t
	return t, nil
}

// countingInvalidator records how often it was invalidated.
type countingInvalidator struct {
	mu sync.Mutex
	n  int
}

func (c *countingInvalidator) Invalidate(ctx context.Context) {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
