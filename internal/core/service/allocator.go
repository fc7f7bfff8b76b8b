package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/warehouse-console/internal/core/domain"
	"github.com/rl1809/warehouse-console/internal/port"
)

// Allocator is a stand-in for the warehouse's allocation system: it moves queued orders
// NEW → ALLOCATED and opens a picking task, which moves them on to PICKING.
type Allocator struct {
	orders port.OrderRepository
	tasks  port.TaskRepository
	delay  time.Duration
	log    logrus.FieldLogger
}

func NewAllocator(db port.DatabaseRepository, delay time.Duration, log logrus.FieldLogger) *Allocator {
	return &Allocator{orders: db, tasks: db, delay: delay, log: log}
}

// Run drains queue until it is closed. Cancelling ctx makes remaining items fail fast,
// leaving them for RequeuePending on the next start.
func (a *Allocator) Run(ctx context.Context, worker int, queue <-chan int64) {
	log := a.log.WithField("worker", worker)
	for id := range queue {
		if err := a.Allocate(ctx, id); err != nil {
			log.WithError(err).WithField("order_id", id).Error("allocation failed")
		}
	}
}

func (a *Allocator) Allocate(ctx context.Context, id int64) error {
	if a.delay > 0 {
		timer := time.NewTimer(a.delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	order, err := a.orders.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order == nil {
		return errors.Wrapf(domain.ErrNotFound, "order %d", id)
	}
	log := a.log.WithField("order_id", id)

	switch order.Status {
	case domain.OrderStatusNew:
		ok, err := a.orders.TransitionOrder(ctx, id, []domain.OrderStatus{domain.OrderStatusNew}, domain.OrderStatusAllocated)
		if err != nil {
			return err
		}
		if !ok {
			log.Info("order left NEW before allocation, skipping")
			return nil
		}
		log.Info("order allocated")
	case domain.OrderStatusAllocated:
	case domain.OrderStatusPicking, domain.OrderStatusCompleted, domain.OrderStatusCancelled:
		log.WithField("status", order.Status).Debug("nothing to allocate")
		return nil
	}

	task, err := a.tasks.CreateTask(ctx, id)
	if errors.Is(err, domain.ErrIllegalTransition) {
		// cancelled between allocation and task creation
		log.Info("order no longer allocated, no task opened")
		return nil
	}
	if err != nil {
		return err
	}
	log.WithField("task_id", task.ID).Info("picking task opened")
	return nil
}
