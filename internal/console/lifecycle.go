package console

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/warehouse-console/internal/core/domain"
	"github.com/rl1809/warehouse-console/internal/port"
)

// RedirectDelay is how long a completed task stays on screen before the view navigates
// back to the task list.
const RedirectDelay = 1500 * time.Millisecond

type Invalidator interface {
	Invalidate(ctx context.Context)
}

type Redirect struct {
	After time.Duration
}

// Lifecycle performs the two client-initiated transitions, cancel order and complete
// task, and refreshes the views that depend on them.
type Lifecycle struct {
	orders port.OrderGateway
	tasks  port.TaskGateway
	log    logrus.FieldLogger

	orderDeps []Invalidator
	taskDeps  []Invalidator
}

func NewLifecycle(orders port.OrderGateway, tasks port.TaskGateway, log logrus.FieldLogger) *Lifecycle {
	return &Lifecycle{orders: orders, tasks: tasks, log: log}
}

// OnOrderChange registers views refreshed after a successful cancel.
func (l *Lifecycle) OnOrderChange(deps ...Invalidator) {
	l.orderDeps = append(l.orderDeps, deps...)
}

// OnTaskChange registers views refreshed after a successful completion.
func (l *Lifecycle) OnTaskChange(deps ...Invalidator) {
	l.taskDeps = append(l.taskDeps, deps...)
}

// CancelOrder requests cancellation. The returned order carries whatever status the
// service reports; it is not assumed to be CANCELLED.
func (l *Lifecycle) CancelOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	if !order.Status.CanCancel() {
		return order, errors.Wrapf(domain.ErrIllegalTransition, "cancel order %d in status %s", order.ID, order.Status)
	}
	updated, err := l.orders.CancelOrder(ctx, order.ID)
	if err != nil {
		l.log.WithError(err).WithField("order_id", order.ID).Warn("cancel failed")
		return order, err
	}
	l.log.WithFields(logrus.Fields{"order_id": updated.ID, "status": updated.Status}).Info("order cancelled")
	invalidateAll(ctx, l.orderDeps)
	return updated, nil
}

// CompleteTask marks an IN_PROGRESS task done and tells the view when to leave.
func (l *Lifecycle) CompleteTask(ctx context.Context, task domain.PickingTask) (domain.PickingTask, Redirect, error) {
	if !task.Status.CanComplete() {
		return task, Redirect{}, errors.Wrapf(domain.ErrIllegalTransition, "complete task %d in status %s", task.ID, task.Status)
	}
	updated, err := l.tasks.CompleteTask(ctx, task.ID)
	if err != nil {
		l.log.WithError(err).WithField("task_id", task.ID).Warn("complete failed")
		return task, Redirect{}, err
	}
	l.log.WithFields(logrus.Fields{"task_id": updated.ID, "order_id": updated.OrderID}).Info("task completed")
	invalidateAll(ctx, l.taskDeps)
	return updated, Redirect{After: RedirectDelay}, nil
}

func invalidateAll(ctx context.Context, deps []Invalidator) {
	for _, dep := range deps {
		dep.Invalidate(ctx)
	}
}

// OrderDetail is the synchronized state behind one order's detail view.
type OrderDetail struct {
	ID    int64
	Order *Resource[domain.Order]
}

func NewOrderDetail(orders port.OrderGateway, id int64, log logrus.FieldLogger) *OrderDetail {
	return &OrderDetail{
		ID: id,
		Order: NewResource("order", func(ctx context.Context) (domain.Order, error) {
			return orders.GetOrder(ctx, id)
		}, log),
	}
}

func (d *OrderDetail) Load(ctx context.Context) {
	d.Order.Load(ctx, strconv.FormatInt(d.ID, 10))
}

// Apply shows the status a mutation returned straight away, without waiting on a refetch.
// The mutation response may omit line items, so only the status replaces loaded data.
func (d *OrderDetail) Apply(updated domain.Order) {
	merged := updated
	if st := d.Order.State(); st.HasData {
		merged = st.Data
		merged.Status = updated.Status
	}
	d.Order.Set(merged)
}

// TaskDetail loads a task and then the order it points at. The order is keyed by the
// task's orderId so it reloads only when that changes.
type TaskDetail struct {
	ID    int64
	Task  *Resource[domain.PickingTask]
	Order *Resource[domain.Order]
}

func NewTaskDetail(gw port.Gateway, id int64, log logrus.FieldLogger) *TaskDetail {
	d := &TaskDetail{ID: id}
	d.Task = NewResource("task", func(ctx context.Context) (domain.PickingTask, error) {
		return gw.GetTask(ctx, id)
	}, log)
	d.Order = NewResource("task_order", func(ctx context.Context) (domain.Order, error) {
		task := d.Task.State()
		if !task.HasData {
			return domain.Order{}, errors.Wrapf(domain.ErrNotFound, "task %d not loaded", id)
		}
		return gw.GetOrder(ctx, task.Data.OrderID)
	}, log)
	return d
}

func (d *TaskDetail) Load(ctx context.Context) {
	d.Task.Load(ctx, strconv.FormatInt(d.ID, 10))
	d.loadOrder(ctx)
}

// Invalidate refetches the task and, if its orderId moved, the order.
func (d *TaskDetail) Invalidate(ctx context.Context) {
	d.Task.Invalidate(ctx)
	d.loadOrder(ctx)
}

// Apply is OrderDetail.Apply for the task.
func (d *TaskDetail) Apply(updated domain.PickingTask) {
	merged := updated
	if st := d.Task.State(); st.HasData {
		merged = st.Data
		merged.Status = updated.Status
	}
	d.Task.Set(merged)
}

func (d *TaskDetail) loadOrder(ctx context.Context) {
	task := d.Task.State()
	if !task.HasData {
		return
	}
	d.Order.Load(ctx, strconv.FormatInt(task.Data.OrderID, 10))
}

// PickList is available once both the task and its order are loaded.
func (d *TaskDetail) PickList() ([]domain.PickLine, bool) {
	task, order := d.Task.State(), d.Order.State()
	if !task.HasData || !order.HasData {
		return nil, false
	}
	return domain.PickList(task.Data, order.Data), true
}
