package domain

import (
	"encoding/json"
	"fmt"
)

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusAllocated OrderStatus = "ALLOCATED"
	OrderStatusPicking   OrderStatus = "PICKING"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// orderFlow is the forward path shown on the order timeline. CANCELLED is off-path.
var orderFlow = []OrderStatus{
	OrderStatusNew,
	OrderStatusAllocated,
	OrderStatusPicking,
	OrderStatusCompleted,
}

func AllOrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusNew,
		OrderStatusAllocated,
		OrderStatusPicking,
		OrderStatusCompleted,
		OrderStatusCancelled,
	}
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	switch status {
	case OrderStatusNew, OrderStatusAllocated, OrderStatusPicking, OrderStatusCompleted, OrderStatusCancelled:
		return status, nil
	}
	return "", fmt.Errorf("%w: order status %q", ErrUnknownStatus, s)
}

func (s *OrderStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	parsed, err := ParseOrderStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// CanCancel reports whether the client may request cancellation.
func (s OrderStatus) CanCancel() bool {
	switch s {
	case OrderStatusNew, OrderStatusAllocated:
		return true
	case OrderStatusPicking, OrderStatusCompleted, OrderStatusCancelled:
		return false
	}
	panic(unreachable("order status", s))
}

func (s OrderStatus) IsActive() bool {
	switch s {
	case OrderStatusNew, OrderStatusAllocated, OrderStatusPicking:
		return true
	case OrderStatusCompleted, OrderStatusCancelled:
		return false
	}
	panic(unreachable("order status", s))
}

func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusCancelled:
		return true
	case OrderStatusNew, OrderStatusAllocated, OrderStatusPicking:
		return false
	}
	panic(unreachable("order status", s))
}

// ShowsPickProgress reports whether an order's line-item table carries pick progress.
func (s OrderStatus) ShowsPickProgress() bool {
	switch s {
	case OrderStatusPicking, OrderStatusCompleted:
		return true
	case OrderStatusNew, OrderStatusAllocated, OrderStatusCancelled:
		return false
	}
	panic(unreachable("order status", s))
}

// flowIndex is the position on orderFlow, -1 for CANCELLED.
func (s OrderStatus) flowIndex() int {
	for i, st := range orderFlow {
		if st == s {
			return i
		}
	}
	return -1
}

type StepState int

const (
	StepPending StepState = iota
	StepCurrent
	StepDone
	StepCancelled
)

func (s StepState) String() string {
	switch s {
	case StepPending:
		return "pending"
	case StepCurrent:
		return "current"
	case StepDone:
		return "done"
	case StepCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("StepState(%d)", int(s))
}

type TimelineStep struct {
	Status OrderStatus
	State  StepState
}

// Timeline maps status onto the NEW → COMPLETED flow. Steps before the current one are
// done, the current one is current (done once the order is COMPLETED) and later steps are
// pending. For a cancelled order only the first step is done and every later step is
// marked cancelled.
func Timeline(status OrderStatus) []TimelineStep {
	cancelled := status == OrderStatusCancelled
	current := status.flowIndex()
	steps := make([]TimelineStep, len(orderFlow))
	for i, st := range orderFlow {
		step := TimelineStep{Status: st}
		switch {
		case cancelled && i > 0:
			step.State = StepCancelled
		case cancelled:
			step.State = StepDone
		case i < current:
			step.State = StepDone
		case i == current && status.IsTerminal():
			step.State = StepDone
		case i == current:
			step.State = StepCurrent
		default:
			step.State = StepPending
		}
		steps[i] = step
	}
	return steps
}

// TimelineProgress is the filled share of the timeline connector, 0..100.
func TimelineProgress(status OrderStatus) int {
	idx := status.flowIndex()
	if status == OrderStatusCancelled || idx < 0 {
		return 0
	}
	return idx * 100 / (len(orderFlow) - 1)
}

type LineItem struct {
	ID         int64  `json:"id"`
	ProductSKU string `json:"productSku"`
	Quantity   int    `json:"quantity"`
}

type Order struct {
	ID             int64       `json:"id"`
	Status         OrderStatus `json:"status"`
	CreatedAt      Timestamp   `json:"createdAt"`
	OrderLineItems []LineItem  `json:"orderLineItems"`
}

func (o Order) TotalUnits() int {
	total := 0
	for _, item := range o.OrderLineItems {
		total += item.Quantity
	}
	return total
}

func (o Order) ProductTypes() int {
	return len(o.OrderLineItems)
}

type NewLineItem struct {
	ProductSKU string `json:"productSku"`
	Quantity   int    `json:"quantity"`
}

type CreateOrderRequest struct {
	OrderLineItems []NewLineItem `json:"orderLineItems"`
}

func unreachable(kind string, v any) string {
	return fmt.Sprintf("unhandled %s %q", kind, v)
}
