package service

import (
	"context"
	"math/rand/v2"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/warehouse-console/internal/core/domain"
	"github.com/rl1809/warehouse-console/internal/port"
)

// CatalogService owns products and keeps the cached stock counters in line with them.
type CatalogService struct {
	db     port.ProductRepository
	cache  port.CacheRepository
	log    logrus.FieldLogger
	suffix func() int
}

func NewCatalogService(db port.ProductRepository, cache port.CacheRepository, log logrus.FieldLogger) *CatalogService {
	return &CatalogService{
		db:     db,
		cache:  cache,
		log:    log,
		suffix: func() int { return rand.IntN(1000) },
	}
}

func (s *CatalogService) List(ctx context.Context) ([]domain.Product, error) {
	return s.db.ListProducts(ctx)
}

func (s *CatalogService) Get(ctx context.Context, id int64) (domain.Product, error) {
	p, err := s.db.GetProduct(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if p == nil {
		return domain.Product{}, errors.Wrapf(domain.ErrNotFound, "product %d", id)
	}
	return *p, nil
}

func (s *CatalogService) GetBySKU(ctx context.Context, sku string) (domain.Product, error) {
	sku = domain.NormalizeSKU(sku)
	p, err := s.db.GetProductBySKU(ctx, sku)
	if err != nil {
		return domain.Product{}, err
	}
	if p == nil {
		return domain.Product{}, errors.Wrapf(domain.ErrNotFound, "product %s", sku)
	}
	return *p, nil
}

// Create stores a new product. An empty SKU is generated from the name.
func (s *CatalogService) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	p.ID = 0
	p.SKU = domain.NormalizeSKU(p.SKU)
	if p.SKU == "" {
		p.SKU = domain.GenerateSKU(p.Name, s.suffix)
	}
	if err := validateProduct(p); err != nil {
		return domain.Product{}, err
	}

	created, err := s.db.CreateProduct(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}
	s.seed(ctx, created)
	s.log.WithFields(logrus.Fields{"sku": created.SKU, "product_id": created.ID}).Info("product created")
	return created, nil
}

func (s *CatalogService) Update(ctx context.Context, id int64, p domain.Product) (domain.Product, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	p.ID = id
	p.SKU = domain.NormalizeSKU(p.SKU)
	if p.SKU == "" {
		p.SKU = existing.SKU
	}
	if err := validateProduct(p); err != nil {
		return domain.Product{}, err
	}
	if err := s.db.UpdateProduct(ctx, p); err != nil {
		return domain.Product{}, err
	}

	if p.SKU != existing.SKU {
		s.drop(ctx, existing.SKU)
	}
	s.seed(ctx, p)
	return p, nil
}

func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.drop(ctx, existing.SKU)
	s.log.WithField("sku", existing.SKU).Info("product deleted")
	return nil
}

// CheckStock answers whether quantity units of sku are available without reserving them.
func (s *CatalogService) CheckStock(ctx context.Context, sku string, quantity int) (domain.StockCheck, error) {
	if quantity <= 0 {
		return domain.StockCheck{}, domain.ErrInvalidQuantity
	}
	sku = domain.NormalizeSKU(sku)
	available, err := currentStock(ctx, s.db, s.cache, sku)
	if err != nil {
		return domain.StockCheck{}, err
	}
	return domain.StockCheck{
		SKU:        sku,
		Requested:  quantity,
		Available:  available,
		Sufficient: available >= quantity,
	}, nil
}

// SeedCache copies every product's stock into the cache.
func (s *CatalogService) SeedCache(ctx context.Context) error {
	products, err := s.db.ListProducts(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		if err := s.cache.SetStock(ctx, p.SKU, p.QuantityInStock); err != nil {
			return err
		}
	}
	s.log.WithField("products", len(products)).Info("stock cache seeded")
	return nil
}

func (s *CatalogService) seed(ctx context.Context, p domain.Product) {
	if err := s.cache.SetStock(ctx, p.SKU, p.QuantityInStock); err != nil {
		s.log.WithError(err).WithField("sku", p.SKU).Warn("seed stock cache")
	}
}

func (s *CatalogService) drop(ctx context.Context, sku string) {
	if err := s.cache.DeleteStock(ctx, sku); err != nil {
		s.log.WithError(err).WithField("sku", sku).Warn("drop stock cache")
	}
}

func validateProduct(p domain.Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.Wrap(domain.ErrValidation, "name is required")
	}
	if err := domain.ValidateSKU(p.SKU); err != nil {
		return err
	}
	if p.QuantityInStock < 0 {
		return errors.Wrap(domain.ErrValidation, "quantity in stock cannot be negative")
	}
	return nil
}

// currentStock reads the cached counter, falling back to the database and reseeding on a miss.
func currentStock(ctx context.Context, db port.ProductRepository, cache port.CacheRepository, sku string) (int, error) {
	available, found, err := cache.GetStock(ctx, sku)
	if err != nil {
		return 0, err
	}
	if found {
		return available, nil
	}

	p, err := db.GetProductBySKU(ctx, sku)
	if err != nil {
		return 0, err
	}
	if p == nil {
		return 0, errors.Wrapf(domain.ErrNotFound, "product %s", sku)
	}
	if err := cache.SetStock(ctx, sku, p.QuantityInStock); err != nil {
		return 0, err
	}
	return p.QuantityInStock, nil
}
