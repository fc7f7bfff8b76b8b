package console

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/warehouse-console/internal/core/domain"
)

func setupComposer(stock map[string]int) (*Composer, *mockGateway) {
	gw := newMockGateway()
	for sku, q := range stock {
		gw.stock[sku] = q
	}
	return NewComposer(gw, gw, quietLogger()), gw
}

func TestAdd_MergesDuplicateSKU(t *testing.T) {
	composer, gw := setupComposer(map[string]int{"ABC": 10})
	product := domain.Product{SKU: "ABC", Name: "Widget", QuantityInStock: 10}
	ctx := context.Background()

	draft, err := composer.Add(ctx, Draft{}, product, 3)
	require.NoError(t, err)
	draft, err = composer.Add(ctx, draft, product, 4)
	require.NoError(t, err)

	require.Equal(t, 1, draft.Len())
	line, ok := draft.Line("ABC")
	require.True(t, ok)
	assert.Equal(t, 7, line.Quantity)
	assert.Equal(t, 10, line.AvailableStock)
	assert.Equal(t, "Widget", line.ProductName)
	assert.Equal(t, 2, gw.count("CheckStock"))
}

func TestAdd_InsufficientForMergedTotal(t *testing.T) {
	composer, _ := setupComposer(map[string]int{"ABC": 5})
	product := domain.Product{SKU: "ABC", Name: "Widget", QuantityInStock: 5}
	ctx := context.Background()

	draft, err := composer.Add(ctx, Draft{}, product, 3)
	require.NoError(t, err)

	after, err := composer.Add(ctx, draft, product, 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "ABC", stockErr.SKU)
	assert.Equal(t, 5, stockErr.Available)

	line, _ := after.Line("ABC")
	assert.Equal(t, 3, line.Quantity)
	line, _ = draft.Line("ABC")
	assert.Equal(t, 3, line.Quantity)
}

func TestAdd_ShortfallWithoutFigureUsesSnapshot(t *testing.T) {
	composer, gw := setupComposer(nil)
	gw.checkFn = func(sku string, quantity int) (domain.StockCheck, error) {
		return domain.StockCheck{}, &domain.InsufficientStockError{Requested: quantity, Available: domain.AvailableUnknown}
	}
	product := domain.Product{SKU: "ABC", Name: "Widget", QuantityInStock: 4}

	_, err := composer.Add(context.Background(), Draft{}, product, 9)

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "ABC", stockErr.SKU)
	assert.Equal(t, 4, stockErr.Available)
	assert.Equal(t, "Insufficient stock. Only 4 available.", domain.Message(err))
}

func TestAdd_RejectsNonPositiveQuantityWithoutNetwork(t *testing.T) {
	composer, gw := setupComposer(map[string]int{"ABC": 5})

	_, err := composer.Add(context.Background(), Draft{}, domain.Product{SKU: "ABC"}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	assert.Zero(t, gw.totalCalls())
}

func TestAdd_DoesNotMutateInput(t *testing.T) {
	composer, _ := setupComposer(map[string]int{"ABC": 10, "XYZ": 10})
	ctx := context.Background()

	first, err := composer.Add(ctx, Draft{}, domain.Product{SKU: "ABC"}, 1)
	require.NoError(t, err)
	second, err := composer.Add(ctx, first, domain.Product{SKU: "XYZ"}, 2)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Len())
	assert.Equal(t, 2, second.Len())
}

func TestUpdateQuantity(t *testing.T) {
	composer, _ := setupComposer(map[string]int{"ABC": 5, "XYZ": 5})
	ctx := context.Background()
	draft, _ := composer.Add(ctx, Draft{}, domain.Product{SKU: "ABC"}, 2)
	draft, _ = composer.Add(ctx, draft, domain.Product{SKU: "XYZ"}, 2)

	t.Run("replaces rather than adds", func(t *testing.T) {
		updated, err := composer.UpdateQuantity(ctx, draft, "ABC", 5)
		require.NoError(t, err)
		line, _ := updated.Line("ABC")
		assert.Equal(t, 5, line.Quantity)
	})

	t.Run("rejects above availability", func(t *testing.T) {
		updated, err := composer.UpdateQuantity(ctx, draft, "ABC", 6)
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		line, _ := updated.Line("ABC")
		assert.Equal(t, 2, line.Quantity)
	})

	t.Run("zero equals remove", func(t *testing.T) {
		updated, err := composer.UpdateQuantity(ctx, draft, "ABC", 0)
		require.NoError(t, err)
		assert.Equal(t, composer.Remove(draft, "ABC").Lines(), updated.Lines())
		_, ok := updated.Line("ABC")
		assert.False(t, ok)
	})

	t.Run("unknown sku", func(t *testing.T) {
		_, err := composer.UpdateQuantity(ctx, draft, "NOPE", 1)
		assert.ErrorIs(t, err, domain.ErrLineNotFound)
	})
}

func TestRemove_KeepsOrderOfRemainingLines(t *testing.T) {
	composer, gw := setupComposer(map[string]int{"A": 5, "B": 5, "C": 5})
	ctx := context.Background()
	draft := Draft{}
	for _, sku := range []string{"A", "B", "C"} {
		draft, _ = composer.Add(ctx, draft, domain.Product{SKU: sku}, 1)
	}
	calls := gw.totalCalls()

	draft = composer.Remove(draft, "B")

	req := draft.Request()
	require.Len(t, req.OrderLineItems, 2)
	assert.Equal(t, "A", req.OrderLineItems[0].ProductSKU)
	assert.Equal(t, "C", req.OrderLineItems[1].ProductSKU)
	assert.Equal(t, calls, gw.totalCalls())
}

func TestSubmit(t *testing.T) {
	t.Run("empty draft is rejected locally", func(t *testing.T) {
		composer, gw := setupComposer(nil)
		_, err := composer.Submit(context.Background(), Draft{})
		assert.ErrorIs(t, err, domain.ErrEmptyDraft)
		assert.Zero(t, gw.totalCalls())
	})

	t.Run("preserves insertion order", func(t *testing.T) {
		composer, gw := setupComposer(map[string]int{"ZED": 5, "ALPHA": 5})
		ctx := context.Background()
		draft, _ := composer.Add(ctx, Draft{}, domain.Product{SKU: "ZED"}, 2)
		draft, _ = composer.Add(ctx, draft, domain.Product{SKU: "ALPHA"}, 1)

		var got domain.CreateOrderRequest
		gw.createFn = func(req domain.CreateOrderRequest) (domain.Order, error) {
			got = req
			return domain.Order{ID: 42, Status: domain.OrderStatusNew}, nil
		}

		order, err := composer.Submit(ctx, draft)
		require.NoError(t, err)
		assert.Equal(t, int64(42), order.ID)
		assert.Equal(t, []domain.NewLineItem{{ProductSKU: "ZED", Quantity: 2}, {ProductSKU: "ALPHA", Quantity: 1}}, got.OrderLineItems)
	})

	t.Run("failure keeps the draft", func(t *testing.T) {
		composer, gw := setupComposer(map[string]int{"ABC": 5})
		ctx := context.Background()
		draft, _ := composer.Add(ctx, Draft{}, domain.Product{SKU: "ABC"}, 2)
		gw.createFn = func(req domain.CreateOrderRequest) (domain.Order, error) {
			return domain.Order{}, &domain.InsufficientStockError{SKU: "ABC", Available: 1}
		}

		_, err := composer.Submit(ctx, draft)
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		assert.Equal(t, 1, draft.Len())
		assert.Equal(t, 2, draft.TotalUnits())
	})
}

func TestSelection(t *testing.T) {
	var sel Selection
	sel.Select(domain.Product{SKU: "ABC"})
	require.NotNil(t, sel.Product)
	assert.Equal(t, 1, sel.Quantity)

	sel.Quantity = 4
	sel.Reset()
	assert.Nil(t, sel.Product)
	assert.Equal(t, 1, sel.Quantity)
}

func TestSearchProducts(t *testing.T) {
	products := []domain.Product{
		{SKU: "WID001", Name: "Blue Widget"},
		{SKU: "GAD002", Name: "Gadget"},
	}

	assert.Len(t, SearchProducts(products, ""), 2)
	assert.Len(t, SearchProducts(products, "widget"), 1)
	assert.Len(t, SearchProducts(products, "gad0"), 1)
	assert.Empty(t, SearchProducts(products, "nothing"))
}
