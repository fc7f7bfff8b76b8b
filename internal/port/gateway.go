package port

import (
	"context"

	"github.com/rl1809/warehouse-console/internal/core/domain"
)

type ProductGateway interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, product domain.Product) (domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	// CheckStock is advisory: it does not reserve anything. A shortfall is reported as
	// *domain.InsufficientStockError.
	CheckStock(ctx context.Context, sku string, quantity int) (domain.StockCheck, error)
}

type OrderGateway interface {
	ListOrders(ctx context.Context) ([]domain.Order, error)
	ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error)
	GetOrder(ctx context.Context, id int64) (domain.Order, error)
	CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error)
	CancelOrder(ctx context.Context, id int64) (domain.Order, error)
}

type TaskGateway interface {
	ListTasks(ctx context.Context) ([]domain.PickingTask, error)
	ListTasksByStatus(ctx context.Context, status domain.TaskStatus) ([]domain.PickingTask, error)
	ListInProgressTasks(ctx context.Context) ([]domain.PickingTask, error)
	ListCompletedTasks(ctx context.Context) ([]domain.PickingTask, error)
	GetTask(ctx context.Context, id int64) (domain.PickingTask, error)
	CompleteTask(ctx context.Context, id int64) (domain.PickingTask, error)
}

// Gateway is the full remote surface the console talks to.
type Gateway interface {
	ProductGateway
	OrderGateway
	TaskGateway
}
