package console

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/warehouse-console/internal/core/domain"
)

func TestValidateProduct(t *testing.T) {
	valid := domain.Product{Name: "Box", SKU: "BOX001", LocationCode: "A-1", QuantityInStock: 0}
	require.NoError(t, ValidateProduct(valid))

	tests := []struct {
		name  string
		edit  func(p *domain.Product)
		field string
	}{
		{"missing name", func(p *domain.Product) { p.Name = " " }, "name"},
		{"short name", func(p *domain.Product) { p.Name = "B" }, "name"},
		{"missing sku", func(p *domain.Product) { p.SKU = "" }, "sku"},
		{"short sku", func(p *domain.Product) { p.SKU = "AB" }, "sku"},
		{"lowercase sku", func(p *domain.Product) { p.SKU = "box001" }, "sku"},
		{"missing location", func(p *domain.Product) { p.LocationCode = "" }, "locationCode"},
		{"short location", func(p *domain.Product) { p.LocationCode = "A" }, "locationCode"},
		{"negative stock", func(p *domain.Product) { p.QuantityInStock = -1 }, "quantityInStock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.edit(&p)
			err := ValidateProduct(p)

			var fieldErr *FieldError
			require.True(t, errors.As(err, &fieldErr), "got %v", err)
			assert.Equal(t, tt.field, fieldErr.Field)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestCatalog_CreateNormalizesAndInvalidates(t *testing.T) {
	gw := newMockGateway()
	c := NewCatalog(gw, quietLogger())
	dep := &countingInvalidator{}
	c.OnChange(dep)

	created, err := c.Create(context.Background(), domain.Product{Name: " Box ", SKU: "box001", LocationCode: "A-1"})

	require.NoError(t, err)
	assert.Equal(t, "BOX001", created.SKU)
	assert.Equal(t, "Box", created.Name)
	assert.Equal(t, 1, gw.count("CreateProduct"))
	assert.Equal(t, 1, dep.count())
}

func TestCatalog_InvalidFormSkipsNetwork(t *testing.T) {
	gw := newMockGateway()
	c := NewCatalog(gw, quietLogger())
	dep := &countingInvalidator{}
	c.OnChange(dep)

	_, err := c.Update(context.Background(), 1, domain.Product{Name: "Box", SKU: "B-1", LocationCode: "A-1"})

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, gw.totalCalls())
	assert.Zero(t, dep.count())
}

func TestCatalog_Delete(t *testing.T) {
	gw := newMockGateway()
	c := NewCatalog(gw, quietLogger())
	dep := &countingInvalidator{}
	c.OnChange(dep)

	require.NoError(t, c.Delete(context.Background(), 4))
	assert.Equal(t, 1, gw.count("DeleteProduct"))
	assert.Equal(t, 1, dep.count())
}

func TestCatalog_SuggestSKU(t *testing.T) {
	c := NewCatalog(newMockGateway(), quietLogger())
	c.suffix = func() int { return 7 }

	assert.Equal(t, "BLWIMO007", c.SuggestSKU("Blue Wireless Mouse"))
	assert.Equal(t, "", c.SuggestSKU("   "))
}
