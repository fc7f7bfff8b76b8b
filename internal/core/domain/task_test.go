package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatus_AllMembersMapped(t *testing.T) {
	for _, s := range AllTaskStatuses() {
		assert.NotPanics(t, func() {
			s.CanComplete()
			s.Progress()
			PickStatusFor(PickingTask{Status: s})
		}, "status %s", s)
	}
}

func TestTaskStatus_CanComplete(t *testing.T) {
	assert.True(t, TaskStatusInProgress.CanComplete())
	assert.False(t, TaskStatusDone.CanComplete())
	assert.Equal(t, 50, TaskStatusInProgress.Progress())
	assert.Equal(t, 100, TaskStatusDone.Progress())
}

func TestParseTaskStatus(t *testing.T) {
	_, err := ParseTaskStatus("PAUSED")
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestPickList(t *testing.T) {
	order := Order{ID: 3, OrderLineItems: []LineItem{{ID: 1, ProductSKU: "A", Quantity: 2}, {ID: 2, ProductSKU: "B", Quantity: 1}}}

	pending := PickList(PickingTask{OrderID: 3, Status: TaskStatusInProgress}, order)
	picked := PickList(PickingTask{OrderID: 3, Status: TaskStatusDone}, order)

	assert.Len(t, pending, 2)
	for i := range pending {
		assert.Equal(t, PickPending, pending[i].Status)
		assert.Equal(t, PickPicked, picked[i].Status)
		assert.Equal(t, order.OrderLineItems[i], pending[i].LineItem)
	}
}
