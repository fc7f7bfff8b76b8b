package console

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/warehouse-console/internal/core/domain"
	"github.com/rl1809/warehouse-console/internal/port"
)

const (
	minNameLength     = 2
	minSKULength      = 3
	minLocationLength = 2
)

// FieldError names the form field a validation failure belongs to.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return domain.ErrValidation
}

// ValidateProduct applies the product form rules before anything is sent.
func ValidateProduct(p domain.Product) error {
	switch {
	case len(strings.TrimSpace(p.Name)) == 0:
		return &FieldError{Field: "name", Message: "Product name is required"}
	case len(strings.TrimSpace(p.Name)) < minNameLength:
		return &FieldError{Field: "name", Message: "Product name must be at least 2 characters"}
	case p.SKU == "":
		return &FieldError{Field: "sku", Message: "SKU is required"}
	case len(p.SKU) < minSKULength:
		return &FieldError{Field: "sku", Message: "SKU must be at least 3 characters"}
	case domain.ValidateSKU(p.SKU) != nil:
		return &FieldError{Field: "sku", Message: "SKU must contain only uppercase letters and numbers"}
	case len(strings.TrimSpace(p.LocationCode)) == 0:
		return &FieldError{Field: "locationCode", Message: "Location code is required"}
	case len(strings.TrimSpace(p.LocationCode)) < minLocationLength:
		return &FieldError{Field: "locationCode", Message: "Location code must be at least 2 characters"}
	case p.QuantityInStock < 0:
		return &FieldError{Field: "quantityInStock", Message: "Quantity cannot be negative"}
	}
	return nil
}

// Catalog performs product writes and refreshes the views that list products.
type Catalog struct {
	products port.ProductGateway
	log      logrus.FieldLogger
	suffix   func() int
	deps     []Invalidator
}

func NewCatalog(products port.ProductGateway, log logrus.FieldLogger) *Catalog {
	return &Catalog{
		products: products,
		log:      log,
		suffix:   func() int { return rand.IntN(1000) },
	}
}

// OnChange registers views refreshed after a successful write.
func (c *Catalog) OnChange(deps ...Invalidator) {
	c.deps = append(c.deps, deps...)
}

// SuggestSKU generates a SKU from a product name for the auto-generate form option.
func (c *Catalog) SuggestSKU(name string) string {
	return domain.GenerateSKU(name, c.suffix)
}

func (c *Catalog) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	p = normalizeProduct(p)
	if err := ValidateProduct(p); err != nil {
		return domain.Product{}, err
	}
	created, err := c.products.CreateProduct(ctx, p)
	if err != nil {
		c.log.WithError(err).WithField("sku", p.SKU).Warn("create product failed")
		return domain.Product{}, err
	}
	c.log.WithFields(logrus.Fields{"product_id": created.ID, "sku": created.SKU}).Info("product created")
	invalidateAll(ctx, c.deps)
	return created, nil
}

func (c *Catalog) Update(ctx context.Context, id int64, p domain.Product) (domain.Product, error) {
	p = normalizeProduct(p)
	if err := ValidateProduct(p); err != nil {
		return domain.Product{}, err
	}
	updated, err := c.products.UpdateProduct(ctx, id, p)
	if err != nil {
		c.log.WithError(err).WithField("product_id", id).Warn("update product failed")
		return domain.Product{}, err
	}
	c.log.WithField("product_id", id).Info("product updated")
	invalidateAll(ctx, c.deps)
	return updated, nil
}

func (c *Catalog) Delete(ctx context.Context, id int64) error {
	if err := c.products.DeleteProduct(ctx, id); err != nil {
		c.log.WithError(err).WithField("product_id", id).Warn("delete product failed")
		return errors.Wrapf(err, "delete product %d", id)
	}
	c.log.WithField("product_id", id).Info("product deleted")
	invalidateAll(ctx, c.deps)
	return nil
}

func normalizeProduct(p domain.Product) domain.Product {
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = domain.NormalizeSKU(p.SKU)
	p.LocationCode = strings.TrimSpace(p.LocationCode)
	return p
}
