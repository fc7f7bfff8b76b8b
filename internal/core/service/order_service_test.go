package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/warehouse-console/internal/adapter/storage"
	"github.com/rl1809/warehouse-console/internal/core/domain"
)

// Mock CacheRepository
type mockCacheRepo struct {
	stock          map[string]int
	idempotencySet map[string]bool
	failDecrement  error
	mu             sync.Mutex
}

func newMockCacheRepo() *mockCacheRepo {
	return &mockCacheRepo{
		stock:          make(map[string]int),
		idempotencySet: make(map[string]bool),
	}
}

func (m *mockCacheRepo) DecrementStock(ctx context.Context, sku string, quantity int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failDecrement != nil {
		return false, m.failDecrement
	}
	current, ok := m.stock[sku]
	if ok && current >= quantity {
		m.stock[sku] -= quantity
		return true, nil
	}
	return false, nil
}

func (m *mockCacheRepo) IncrementStock(ctx context.Context, sku string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[sku] += quantity
	return nil
}

func (m *mockCacheRepo) GetStock(ctx context.Context, sku string) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.stock[sku]
	return q, ok, nil
}

func (m *mockCacheRepo) SetStock(ctx context.Context, sku string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stock[sku] = quantity
	return nil
}

func (m *mockCacheRepo) DeleteStock(ctx context.Context, sku string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stock, sku)
	return nil
}

func (m *mockCacheRepo) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.idempotencySet[key] {
		return false, nil
	}
	m.idempotencySet[key] = true
	return true, nil
}

func (m *mockCacheRepo) Ping(ctx context.Context) error { return nil }

func (m *mockCacheRepo) get(sku string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stock[sku]
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fixture seeds a memory database with products and returns an order service over it.
func fixture(t *testing.T, stock map[string]int) (*OrderService, *storage.MemoryDatabase, *mockCacheRepo) {
	t.Helper()
	ctx := context.Background()
	db := storage.NewMemoryDatabase()
	cache := newMockCacheRepo()
	for sku, q := range stock {
		_, err := db.CreateProduct(ctx, domain.Product{SKU: sku, Name: "Item " + sku, QuantityInStock: q})
		require.NoError(t, err)
		cache.stock[sku] = q
	}
	svc := NewOrderService(db, cache, 100, quietLogger())
	t.Cleanup(svc.Close)
	return svc, db, cache
}

func drain(svc *OrderService) {
	go func() {
		for range svc.Queue() {
		}
	}()
}

func dbStock(t *testing.T, db *storage.MemoryDatabase, sku string) int {
	t.Helper()
	p, err := db.GetProductBySKU(context.Background(), sku)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.QuantityInStock
}

func TestCreateOrder_Success(t *testing.T) {
	svc, db, cache := fixture(t, map[string]int{"ABC": 10, "XYZ": 4})
	drain(svc)

	order, err := svc.CreateOrder(context.Background(), "", []domain.NewLineItem{
		{ProductSKU: "ABC", Quantity: 3},
		{ProductSKU: "xyz", Quantity: 4},
	})
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusNew, order.Status)
	require.Len(t, order.OrderLineItems, 2)
	assert.Equal(t, "XYZ", order.OrderLineItems[1].ProductSKU)
	assert.Equal(t, 7, cache.get("ABC"))
	assert.Equal(t, 0, cache.get("XYZ"))
	assert.Equal(t, 7, dbStock(t, db, "ABC"))
}

func TestCreateOrder_MergesDuplicateSKUs(t *testing.T) {
	svc, _, cache := fixture(t, map[string]int{"ABC": 10})
	drain(svc)

	order, err := svc.CreateOrder(context.Background(), "", []domain.NewLineItem{
		{ProductSKU: "ABC", Quantity: 2},
		{ProductSKU: "ABC", Quantity: 5},
	})
	require.NoError(t, err)

	require.Len(t, order.OrderLineItems, 1)
	assert.Equal(t, 7, order.OrderLineItems[0].Quantity)
	assert.Equal(t, 3, cache.get("ABC"))
}

func TestCreateOrder_Validation(t *testing.T) {
	svc, _, _ := fixture(t, map[string]int{"ABC": 10})

	_, err := svc.CreateOrder(context.Background(), "", nil)
	assert.ErrorIs(t, err, domain.ErrEmptyDraft)

	_, err = svc.CreateOrder(context.Background(), "", []domain.NewLineItem{{ProductSKU: "ABC", Quantity: 0}})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = svc.CreateOrder(context.Background(), "", []domain.NewLineItem{{ProductSKU: "NOPE", Quantity: 1}})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateOrder_InsufficientStockRollsBackEveryLine(t *testing.T) {
	svc, db, cache := fixture(t, map[string]int{"ABC": 10, "XYZ": 1})

	_, err := svc.CreateOrder(context.Background(), "", []domain.NewLineItem{
		{ProductSKU: "ABC", Quantity: 5},
		{ProductSKU: "XYZ", Quantity: 2},
	})

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr), "got %v", err)
	assert.Equal(t, "XYZ", stockErr.SKU)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)

	assert.Equal(t, 10, cache.get("ABC"))
	assert.Equal(t, 1, cache.get("XYZ"))
	assert.Equal(t, 10, dbStock(t, db, "ABC"))
}

func TestCreateOrder_CacheErrorRollsBack(t *testing.T) {
	svc, _, cache := fixture(t, map[string]int{"ABC": 10})
	cache.failDecrement = errors.New("connection reset")

	_, err := svc.CreateOrder(context.Background(), "", []domain.NewLineItem{{ProductSKU: "ABC", Quantity: 1}})
	assert.Error(t, err)
	assert.Equal(t, 10, cache.get("ABC"))
}

// A counter that ran ahead of the database is corrected from the database's answer.
func TestCreateOrder_DatabaseShortfallResyncsCache(t *testing.T) {
	svc, db, cache := fixture(t, map[string]int{"ABC": 2})
	cache.stock["ABC"] = 50

	_, err := svc.CreateOrder(context.Background(), "", []domain.NewLineItem{{ProductSKU: "ABC", Quantity: 5}})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 2, cache.get("ABC"))
	assert.Equal(t, 2, dbStock(t, db, "ABC"))
}

func TestCreateOrder_DuplicateRequest(t *testing.T) {
	svc, _, cache := fixture(t, map[string]int{"ABC": 10})
	drain(svc)
	lines := []domain.NewLineItem{{ProductSKU: "ABC", Quantity: 1}}

	_, err := svc.CreateOrder(context.Background(), "req-1", lines)
	require.NoError(t, err)

	_, err = svc.CreateOrder(context.Background(), "req-1", lines)
	assert.ErrorIs(t, err, domain.ErrDuplicateRequest)

	// Stock should only be decremented once
	assert.Equal(t, 9, cache.get("ABC"))
}

func TestCreateOrder_Concurrent(t *testing.T) {
	initialStock := 20
	totalRequests := 50

	svc, db, cache := fixture(t, map[string]int{"ITEM": initialStock})
	drain(svc)

	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, err := svc.CreateOrder(context.Background(), fmt.Sprintf("req-%d", id), []domain.NewLineItem{{ProductSKU: "ITEM", Quantity: 1}})
			if err == nil {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	assert.Equal(t, int32(initialStock), successCount.Load())
	assert.Equal(t, 0, cache.get("ITEM"))
	assert.Equal(t, 0, dbStock(t, db, "ITEM"))
}

func TestCreateOrder_Queued(t *testing.T) {
	svc, _, _ := fixture(t, map[string]int{"ABC": 10})

	order, err := svc.CreateOrder(context.Background(), "", []domain.NewLineItem{{ProductSKU: "ABC", Quantity: 2}})
	require.NoError(t, err)

	assert.Equal(t, order.ID, <-svc.Queue())
}

func TestCreateOrder_AfterCloseLeavesOrderNew(t *testing.T) {
	svc, db, cache := fixture(t, map[string]int{"ABC": 10})
	svc.Close()

	order, err := svc.CreateOrder(context.Background(), "", []domain.NewLineItem{{ProductSKU: "ABC", Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusNew, order.Status)

	n, err := svc.RequeuePending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	restarted := NewOrderService(db, cache, 10, quietLogger())
	defer restarted.Close()
	n, err = restarted.RequeuePending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, order.ID, <-restarted.Queue())
}

func TestCancel(t *testing.T) {
	svc, db, cache := fixture(t, map[string]int{"ABC": 10})
	drain(svc)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, "", []domain.NewLineItem{{ProductSKU: "ABC", Quantity: 4}})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 10, cache.get("ABC"))
	assert.Equal(t, 10, dbStock(t, db, "ABC"))

	_, err = svc.Cancel(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.Equal(t, 10, cache.get("ABC"))

	_, err = svc.Cancel(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancel_PickingRefused(t *testing.T) {
	svc, db, _ := fixture(t, map[string]int{"ABC": 10})
	drain(svc)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, "", []domain.NewLineItem{{ProductSKU: "ABC", Quantity: 1}})
	require.NoError(t, err)
	require.NoError(t, NewAllocator(db, 0, quietLogger()).Allocate(ctx, order.ID))

	_, err = svc.Cancel(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.Contains(t, err.Error(), "PICKING")
}
