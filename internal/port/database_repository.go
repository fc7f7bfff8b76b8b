package port

import (
	"context"

	"github.com/rl1809/warehouse-console/internal/core/domain"
)

type ProductRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

type OrderRepository interface {
	// CreateOrder persists the order and its lines and decrements product stock in one
	// transaction. Any line without enough stock fails the whole order.
	CreateOrder(ctx context.Context, lines []domain.NewLineItem) (domain.Order, error)

	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error)

	// TransitionOrder moves an order from one of the given statuses to next, returning
	// false if the order was not in any of them.
	TransitionOrder(ctx context.Context, id int64, from []domain.OrderStatus, next domain.OrderStatus) (bool, error)

	// CancelOrder cancels an order in NEW or ALLOCATED, restocking its lines and dropping
	// its open picking task. Returns false if the order was in another status.
	CancelOrder(ctx context.Context, id int64) (bool, error)
}

type TaskRepository interface {
	// CreateTask opens a picking task for an ALLOCATED order and moves the order to PICKING.
	CreateTask(ctx context.Context, orderID int64) (domain.PickingTask, error)

	GetTask(ctx context.Context, id int64) (*domain.PickingTask, error)
	ListTasks(ctx context.Context, status *domain.TaskStatus) ([]domain.PickingTask, error)

	// CompleteTask marks an IN_PROGRESS task DONE and its order COMPLETED. Returns false if
	// the task was not in progress.
	CompleteTask(ctx context.Context, id int64) (bool, error)
}

type DatabaseRepository interface {
	ProductRepository
	OrderRepository
	TaskRepository
	Ping(ctx context.Context) error
}
