package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/warehouse-console/internal/core/domain"
	"github.com/rl1809/warehouse-console/internal/port"
)

type TaskService struct {
	db  port.TaskRepository
	log logrus.FieldLogger
}

func NewTaskService(db port.TaskRepository, log logrus.FieldLogger) *TaskService {
	return &TaskService{db: db, log: log}
}

func (s *TaskService) List(ctx context.Context, status *domain.TaskStatus) ([]domain.PickingTask, error) {
	return s.db.ListTasks(ctx, status)
}

func (s *TaskService) Get(ctx context.Context, id int64) (domain.PickingTask, error) {
	t, err := s.db.GetTask(ctx, id)
	if err != nil {
		return domain.PickingTask{}, err
	}
	if t == nil {
		return domain.PickingTask{}, errors.Wrapf(domain.ErrNotFound, "picking task %d", id)
	}
	return *t, nil
}

// Complete marks an IN_PROGRESS task DONE, which completes its order.
func (s *TaskService) Complete(ctx context.Context, id int64) (domain.PickingTask, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return domain.PickingTask{}, err
	}
	if !task.Status.CanComplete() {
		return domain.PickingTask{}, errors.Wrapf(domain.ErrIllegalTransition, "task cannot be completed in status %s", task.Status)
	}

	ok, err := s.db.CompleteTask(ctx, id)
	if err != nil {
		return domain.PickingTask{}, err
	}
	if !ok {
		return domain.PickingTask{}, errors.Wrapf(domain.ErrIllegalTransition, "task %d already completed", id)
	}
	s.log.WithFields(logrus.Fields{"task_id": id, "order_id": task.OrderID}).Info("picking task completed")
	return s.Get(ctx, id)
}
