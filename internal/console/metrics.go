package console

import (
	"cmp"
	"slices"
	"strings"

	"github.com/pkg/errors"

	"github.com/rl1809/warehouse-console/internal/core/domain"
)

const DefaultRecentOrders = 5

func TotalProducts(products []domain.Product) int {
	return len(products)
}

func LowStockCount(products []domain.Product) int {
	n := 0
	for _, p := range products {
		if p.LowStock() {
			n++
		}
	}
	return n
}

// LowStockProducts returns up to limit low-stock products in input order. limit <= 0 means all.
func LowStockProducts(products []domain.Product, limit int) []domain.Product {
	out := make([]domain.Product, 0)
	for _, p := range products {
		if limit > 0 && len(out) == limit {
			break
		}
		if p.LowStock() {
			out = append(out, p)
		}
	}
	return out
}

func ActiveOrderCount(orders []domain.Order) int {
	n := 0
	for _, o := range orders {
		if o.Status.IsActive() {
			n++
		}
	}
	return n
}

func PendingTaskCount(tasks []domain.PickingTask) int {
	n := 0
	for _, t := range tasks {
		if t.Status == domain.TaskStatusInProgress {
			n++
		}
	}
	return n
}

// RecentOrders returns the n newest orders by createdAt. The input is not reordered.
func RecentOrders(orders []domain.Order, n int) []domain.Order {
	sorted := slices.Clone(orders)
	slices.SortStableFunc(sorted, func(a, b domain.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt.Time)
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func OrderStatusCounts(orders []domain.Order) map[domain.OrderStatus]int {
	counts := make(map[domain.OrderStatus]int, len(domain.AllOrderStatuses()))
	for _, s := range domain.AllOrderStatuses() {
		counts[s] = 0
	}
	for _, o := range orders {
		counts[o.Status]++
	}
	return counts
}

func TaskStatusCounts(tasks []domain.PickingTask) map[domain.TaskStatus]int {
	counts := make(map[domain.TaskStatus]int, len(domain.AllTaskStatuses()))
	for _, s := range domain.AllTaskStatuses() {
		counts[s] = 0
	}
	for _, t := range tasks {
		counts[t.Status]++
	}
	return counts
}

// Dashboard is the set of figures shown on the landing view.
type Dashboard struct {
	TotalProducts    int
	LowStockCount    int
	ActiveOrderCount int
	PendingTaskCount int
	LowStock         []domain.Product
	RecentOrders     []domain.Order
}

func Summarize(products []domain.Product, orders []domain.Order, tasks []domain.PickingTask, recent int) Dashboard {
	return Dashboard{
		TotalProducts:    TotalProducts(products),
		LowStockCount:    LowStockCount(products),
		ActiveOrderCount: ActiveOrderCount(orders),
		PendingTaskCount: PendingTaskCount(tasks),
		LowStock:         LowStockProducts(products, recent),
		RecentOrders:     RecentOrders(orders, recent),
	}
}

// StatusFilterAll matches every status in FilterOrders and FilterTasks.
const StatusFilterAll = "ALL"

func FilterOrders(orders []domain.Order, status string) []domain.Order {
	if status == "" || status == StatusFilterAll {
		return orders
	}
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		if string(o.Status) == status {
			out = append(out, o)
		}
	}
	return out
}

func FilterTasks(tasks []domain.PickingTask, status string) []domain.PickingTask {
	if status == "" || status == StatusFilterAll {
		return tasks
	}
	out := make([]domain.PickingTask, 0, len(tasks))
	for _, t := range tasks {
		if string(t.Status) == status {
			out = append(out, t)
		}
	}
	return out
}

type SortField string

const (
	SortByID        SortField = "id"
	SortByCreatedAt SortField = "createdAt"
	SortByStatus    SortField = "status"
	SortByOrderID   SortField = "orderId"
	SortByName      SortField = "name"
	SortBySKU       SortField = "sku"
	SortByStock     SortField = "quantityInStock"
)

var ErrUnknownSortField = errors.New("unknown sort field")

// FilterProducts applies the catalog view's search term and low-stock toggle.
func FilterProducts(products []domain.Product, term string, lowStockOnly bool) []domain.Product {
	matched := SearchProducts(products, term)
	if !lowStockOnly {
		return matched
	}
	out := make([]domain.Product, 0, len(matched))
	for _, p := range matched {
		if p.LowStock() {
			out = append(out, p)
		}
	}
	return out
}

// SortProducts returns a sorted copy. Supported fields: name, sku, quantityInStock.
func SortProducts(products []domain.Product, field SortField, asc bool) ([]domain.Product, error) {
	var compare func(a, b domain.Product) int
	switch field {
	case SortByName:
		compare = func(a, b domain.Product) int { return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) }
	case SortBySKU:
		compare = func(a, b domain.Product) int { return cmp.Compare(a.SKU, b.SKU) }
	case SortByStock:
		compare = func(a, b domain.Product) int { return cmp.Compare(a.QuantityInStock, b.QuantityInStock) }
	default:
		return nil, errors.Wrapf(ErrUnknownSortField, "products by %q", field)
	}
	return sortedCopy(products, compare, asc), nil
}

// SortOrders returns a sorted copy. Supported fields: id, createdAt, status.
func SortOrders(orders []domain.Order, field SortField, asc bool) ([]domain.Order, error) {
	var compare func(a, b domain.Order) int
	switch field {
	case SortByID:
		compare = func(a, b domain.Order) int { return cmp.Compare(a.ID, b.ID) }
	case SortByCreatedAt:
		compare = func(a, b domain.Order) int { return a.CreatedAt.Compare(b.CreatedAt.Time) }
	case SortByStatus:
		compare = func(a, b domain.Order) int { return cmp.Compare(a.Status, b.Status) }
	default:
		return nil, errors.Wrapf(ErrUnknownSortField, "orders by %q", field)
	}
	return sortedCopy(orders, compare, asc), nil
}

// SortTasks returns a sorted copy. Supported fields: id, orderId, status, createdAt.
func SortTasks(tasks []domain.PickingTask, field SortField, asc bool) ([]domain.PickingTask, error) {
	var compare func(a, b domain.PickingTask) int
	switch field {
	case SortByID:
		compare = func(a, b domain.PickingTask) int { return cmp.Compare(a.ID, b.ID) }
	case SortByOrderID:
		compare = func(a, b domain.PickingTask) int { return cmp.Compare(a.OrderID, b.OrderID) }
	case SortByStatus:
		compare = func(a, b domain.PickingTask) int { return cmp.Compare(a.Status, b.Status) }
	case SortByCreatedAt:
		compare = func(a, b domain.PickingTask) int { return a.CreatedAt.Compare(b.CreatedAt.Time) }
	default:
		return nil, errors.Wrapf(ErrUnknownSortField, "tasks by %q", field)
	}
	return sortedCopy(tasks, compare, asc), nil
}

func sortedCopy[T any](in []T, compare func(a, b T) int, asc bool) []T {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b T) int {
		if asc {
			return compare(a, b)
		}
		return -compare(a, b)
	})
	return out
}
