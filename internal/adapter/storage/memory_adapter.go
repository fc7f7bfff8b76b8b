package storage

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/rl1809/warehouse-console/internal/core/domain"
	"github.com/rl1809/warehouse-console/internal/port"
)

var (
	_ port.DatabaseRepository = (*MemoryDatabase)(nil)
	_ port.CacheRepository    = (*MemoryCache)(nil)
)

// MemoryDatabase is a process-local DatabaseRepository for demos and tests. It honours the
// same conditional-update semantics as the MySQL adapter.
type MemoryDatabase struct {
	mu sync.Mutex

	products map[int64]domain.Product
	orders   map[int64]domain.Order
	tasks    map[int64]domain.PickingTask

	productSeq, orderSeq, lineSeq, taskSeq int64
	now                                    func() time.Time
}

func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{
		products: make(map[int64]domain.Product),
		orders:   make(map[int64]domain.Order),
		tasks:    make(map[int64]domain.PickingTask),
		now:      time.Now,
	}
}

func (m *MemoryDatabase) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryDatabase) ListProducts(ctx context.Context) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.Product) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *MemoryDatabase) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemoryDatabase) GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.bySKU(sku)
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MemoryDatabase) bySKU(sku string) (domain.Product, bool) {
	for _, p := range m.products {
		if p.SKU == sku {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (m *MemoryDatabase) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.bySKU(product.SKU); taken {
		return domain.Product{}, errors.Wrapf(domain.ErrValidation, "sku %s already exists", product.SKU)
	}
	m.productSeq++
	product.ID = m.productSeq
	m.products[product.ID] = product
	return product, nil
}

func (m *MemoryDatabase) UpdateProduct(ctx context.Context, product domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return errors.Wrapf(domain.ErrNotFound, "product %d", product.ID)
	}
	if other, taken := m.bySKU(product.SKU); taken && other.ID != product.ID {
		return errors.Wrapf(domain.ErrValidation, "sku %s already exists", product.SKU)
	}
	m.products[product.ID] = product
	return nil
}

func (m *MemoryDatabase) DeleteProduct(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return errors.Wrapf(domain.ErrNotFound, "product %d", id)
	}
	delete(m.products, id)
	return nil
}

func (m *MemoryDatabase) CreateOrder(ctx context.Context, lines []domain.NewLineItem) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, line := range lines {
		p, ok := m.bySKU(line.ProductSKU)
		if !ok {
			return domain.Order{}, errors.Wrapf(domain.ErrValidation, "unknown sku %s", line.ProductSKU)
		}
		if p.QuantityInStock < line.Quantity {
			return domain.Order{}, &domain.InsufficientStockError{SKU: p.SKU, Requested: line.Quantity, Available: p.QuantityInStock}
		}
	}

	m.orderSeq++
	order := domain.Order{
		ID:        m.orderSeq,
		Status:    domain.OrderStatusNew,
		CreatedAt: domain.NewTimestamp(m.now().UTC()),
	}
	for _, line := range lines {
		p, _ := m.bySKU(line.ProductSKU)
		p.QuantityInStock -= line.Quantity
		m.products[p.ID] = p

		m.lineSeq++
		order.OrderLineItems = append(order.OrderLineItems, domain.LineItem{ID: m.lineSeq, ProductSKU: line.ProductSKU, Quantity: line.Quantity})
	}
	m.orders[order.ID] = order
	return order, nil
}

func (m *MemoryDatabase) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, nil
	}
	o.OrderLineItems = slices.Clone(o.OrderLineItems)
	return &o, nil
}

func (m *MemoryDatabase) ListOrders(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if status != nil && o.Status != *status {
			continue
		}
		o.OrderLineItems = slices.Clone(o.OrderLineItems)
		out = append(out, o)
	}
	slices.SortFunc(out, func(a, b domain.Order) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *MemoryDatabase) TransitionOrder(ctx context.Context, id int64, from []domain.OrderStatus, next domain.OrderStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || !slices.Contains(from, o.Status) {
		return false, nil
	}
	o.Status = next
	m.orders[id] = o
	return true, nil
}

func (m *MemoryDatabase) CancelOrder(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok || !o.Status.CanCancel() {
		return false, nil
	}
	o.Status = domain.OrderStatusCancelled
	m.orders[id] = o

	for _, line := range o.OrderLineItems {
		if p, ok := m.bySKU(line.ProductSKU); ok {
			p.QuantityInStock += line.Quantity
			m.products[p.ID] = p
		}
	}
	for tid, t := range m.tasks {
		if t.OrderID == id && t.Status == domain.TaskStatusInProgress {
			delete(m.tasks, tid)
		}
	}
	return true, nil
}

func (m *MemoryDatabase) CreateTask(ctx context.Context, orderID int64) (domain.PickingTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return domain.PickingTask{}, errors.Wrapf(domain.ErrNotFound, "order %d", orderID)
	}
	if o.Status != domain.OrderStatusAllocated {
		return domain.PickingTask{}, errors.Wrapf(domain.ErrIllegalTransition, "order %d is %s", orderID, o.Status)
	}
	o.Status = domain.OrderStatusPicking
	m.orders[orderID] = o

	m.taskSeq++
	task := domain.PickingTask{
		ID:        m.taskSeq,
		OrderID:   orderID,
		Status:    domain.TaskStatusInProgress,
		CreatedAt: domain.NewTimestamp(m.now().UTC()),
	}
	m.tasks[task.ID] = task
	return task, nil
}

func (m *MemoryDatabase) GetTask(ctx context.Context, id int64) (*domain.PickingTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *MemoryDatabase) ListTasks(ctx context.Context, status *domain.TaskStatus) ([]domain.PickingTask, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.PickingTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		if status != nil && t.Status != *status {
			continue
		}
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b domain.PickingTask) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *MemoryDatabase) CompleteTask(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.Status != domain.TaskStatusInProgress {
		return false, nil
	}
	t.Status = domain.TaskStatusDone
	m.tasks[id] = t
	if o, ok := m.orders[t.OrderID]; ok {
		o.Status = domain.OrderStatusCompleted
		m.orders[o.ID] = o
	}
	return true, nil
}

// MemoryCache is a process-local CacheRepository. Idempotency keys never expire.
type MemoryCache struct {
	mu    sync.Mutex
	stock map[string]int
	keys  map[string]struct{}
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{stock: make(map[string]int), keys: make(map[string]struct{})}
}

func (c *MemoryCache) DecrementStock(ctx context.Context, sku string, quantity int) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, ok := c.stock[sku]
	if !ok || current < quantity {
		return false, nil
	}
	c.stock[sku] = current - quantity
	return true, nil
}

func (c *MemoryCache) IncrementStock(ctx context.Context, sku string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stock[sku] += quantity
	return nil
}

func (c *MemoryCache) GetStock(ctx context.Context, sku string) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.stock[sku]
	return q, ok, nil
}

func (c *MemoryCache) SetStock(ctx context.Context, sku string, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stock[sku] = quantity
	return nil
}

func (c *MemoryCache) DeleteStock(ctx context.Context, sku string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stock, sku)
	return nil
}

func (c *MemoryCache) SetIdempotency(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.keys[key]; ok {
		return false, nil
	}
	c.keys[key] = struct{}{}
	return true, nil
}

func (c *MemoryCache) Ping(ctx context.Context) error {
	return ctx.Err()
}
