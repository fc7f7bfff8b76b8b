package domain

import (
	"encoding/json"
	"fmt"
)

type TaskStatus string

const (
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

func AllTaskStatuses() []TaskStatus {
	return []TaskStatus{TaskStatusInProgress, TaskStatusDone}
}

func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	switch status {
	case TaskStatusInProgress, TaskStatusDone:
		return status, nil
	}
	return "", fmt.Errorf("%w: task status %q", ErrUnknownStatus, s)
}

func (s *TaskStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseTaskStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s TaskStatus) CanComplete() bool {
	switch s {
	case TaskStatusInProgress:
		return true
	case TaskStatusDone:
		return false
	}
	panic(unreachable("task status", s))
}

// Progress is the share of the two-step task timeline (created, completed) that is filled.
func (s TaskStatus) Progress() int {
	switch s {
	case TaskStatusInProgress:
		return 50
	case TaskStatusDone:
		return 100
	}
	panic(unreachable("task status", s))
}

type PickingTask struct {
	ID        int64      `json:"id"`
	OrderID   int64      `json:"orderId"`
	Status    TaskStatus `json:"status"`
	CreatedAt Timestamp  `json:"createdAt"`
}

type PickStatus string

const (
	PickPending PickStatus = "Pending"
	PickPicked  PickStatus = "Picked"
)

// PickStatusFor is derived from the task alone: partial picks are not tracked.
func PickStatusFor(task PickingTask) PickStatus {
	switch task.Status {
	case TaskStatusDone:
		return PickPicked
	case TaskStatusInProgress:
		return PickPending
	}
	panic(unreachable("task status", task.Status))
}

type PickLine struct {
	LineItem
	Status PickStatus
}

// PickList pairs every line item of the task's order with the task-derived pick status.
func PickList(task PickingTask, order Order) []PickLine {
	status := PickStatusFor(task)
	lines := make([]PickLine, 0, len(order.OrderLineItems))
	for _, item := range order.OrderLineItems {
		lines = append(lines, PickLine{LineItem: item, Status: status})
	}
	return lines
}
