package console

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/warehouse-console/internal/core/domain"
)

func at(minutes int) domain.Timestamp {
	return domain.NewTimestamp(time.Date(2024, 3, 1, 12, minutes, 0, 0, time.UTC))
}

func sampleOrders() []domain.Order {
	return []domain.Order{
		{ID: 1, Status: domain.OrderStatusNew, CreatedAt: at(1)},
		{ID: 2, Status: domain.OrderStatusAllocated, CreatedAt: at(5)},
		{ID: 3, Status: domain.OrderStatusPicking, CreatedAt: at(3)},
		{ID: 4, Status: domain.OrderStatusCompleted, CreatedAt: at(7)},
		{ID: 5, Status: domain.OrderStatusCancelled, CreatedAt: at(2)},
		{ID: 6, Status: domain.OrderStatusNew, CreatedAt: at(9)},
		{ID: 7, Status: domain.OrderStatusNew, CreatedAt: at(4)},
	}
}

func TestProductMetrics(t *testing.T) {
	products := []domain.Product{
		{SKU: "A", QuantityInStock: 9},
		{SKU: "B", QuantityInStock: 10},
		{SKU: "C", QuantityInStock: 0},
		{SKU: "D", QuantityInStock: 50},
	}

	assert.Equal(t, 4, TotalProducts(products))
	assert.Equal(t, 2, LowStockCount(products))

	low := LowStockProducts(products, 1)
	require.Len(t, low, 1)
	assert.Equal(t, "A", low[0].SKU)
	assert.Len(t, LowStockProducts(products, 0), 2)
}

func TestOrderMetrics(t *testing.T) {
	orders := sampleOrders()

	assert.Equal(t, 5, ActiveOrderCount(orders))

	recent := RecentOrders(orders, DefaultRecentOrders)
	ids := make([]int64, len(recent))
	for i, o := range recent {
		ids[i] = o.ID
	}
	assert.Equal(t, []int64{6, 4, 2, 7, 3}, ids)
	assert.Equal(t, int64(1), orders[0].ID, "input must not be reordered")

	counts := OrderStatusCounts(orders)
	assert.Equal(t, 3, counts[domain.OrderStatusNew])
	assert.Equal(t, 1, counts[domain.OrderStatusCancelled])
	assert.Len(t, counts, len(domain.AllOrderStatuses()))
}

func TestTaskMetrics(t *testing.T) {
	tasks := []domain.PickingTask{
		{ID: 1, OrderID: 3, Status: domain.TaskStatusInProgress},
		{ID: 2, OrderID: 1, Status: domain.TaskStatusDone},
		{ID: 3, OrderID: 2, Status: domain.TaskStatusInProgress},
	}

	assert.Equal(t, 2, PendingTaskCount(tasks))
	assert.Equal(t, map[domain.TaskStatus]int{domain.TaskStatusInProgress: 2, domain.TaskStatusDone: 1}, TaskStatusCounts(tasks))
	assert.Len(t, FilterTasks(tasks, "DONE"), 1)
	assert.Len(t, FilterTasks(tasks, StatusFilterAll), 3)

	sorted, err := SortTasks(tasks, SortByOrderID, true)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, []int64{sorted[0].OrderID, sorted[1].OrderID, sorted[2].OrderID})
}

func TestSummarize(t *testing.T) {
	products := []domain.Product{{SKU: "A", QuantityInStock: 1}, {SKU: "B", QuantityInStock: 100}}
	tasks := []domain.PickingTask{{ID: 1, Status: domain.TaskStatusInProgress}}

	dash := Summarize(products, sampleOrders(), tasks, DefaultRecentOrders)

	assert.Equal(t, 2, dash.TotalProducts)
	assert.Equal(t, 1, dash.LowStockCount)
	assert.Equal(t, 5, dash.ActiveOrderCount)
	assert.Equal(t, 1, dash.PendingTaskCount)
	assert.Len(t, dash.RecentOrders, 5)
}

func TestSummarize_Empty(t *testing.T) {
	dash := Summarize(nil, nil, nil, DefaultRecentOrders)
	assert.Zero(t, dash.TotalProducts)
	assert.Empty(t, dash.RecentOrders)
}

func TestFilterAndSortOrders(t *testing.T) {
	orders := sampleOrders()

	assert.Len(t, FilterOrders(orders, "NEW"), 3)
	assert.Len(t, FilterOrders(orders, ""), len(orders))

	byID, err := SortOrders(orders, SortByID, false)
	require.NoError(t, err)
	assert.Equal(t, int64(7), byID[0].ID)

	byDate, err := SortOrders(orders, SortByCreatedAt, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), byDate[0].ID)

	_, err = SortOrders(orders, "price", true)
	assert.ErrorIs(t, err, ErrUnknownSortField)
}

func TestFilterAndSortProducts(t *testing.T) {
	products := []domain.Product{
		{SKU: "B2", Name: "bolt", QuantityInStock: 40},
		{SKU: "A1", Name: "Anchor", QuantityInStock: 2},
		{SKU: "C3", Name: "Clamp", QuantityInStock: 8},
	}

	low := FilterProducts(products, "", true)
	assert.Len(t, low, 2)
	assert.Len(t, FilterProducts(products, "cla", true), 1)
	assert.Len(t, FilterProducts(products, "", false), 3)

	byName, err := SortProducts(products, SortByName, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Anchor", "bolt", "Clamp"}, []string{byName[0].Name, byName[1].Name, byName[2].Name})

	byStock, err := SortProducts(products, SortByStock, false)
	require.NoError(t, err)
	assert.Equal(t, 40, byStock[0].QuantityInStock)
}
