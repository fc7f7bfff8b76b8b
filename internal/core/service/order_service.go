package service

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/warehouse-console/internal/core/domain"
	"github.com/rl1809/warehouse-console/internal/port"
)

type OrderService struct {
	db    port.DatabaseRepository
	cache port.CacheRepository
	log   logrus.FieldLogger

	// mu guards sends on orderQueue against Close.
	mu         sync.RWMutex
	closed     bool
	orderQueue chan int64
}

func NewOrderService(db port.DatabaseRepository, cache port.CacheRepository, queueSize int, log logrus.FieldLogger) *OrderService {
	return &OrderService{
		db:         db,
		cache:      cache,
		log:        log,
		orderQueue: make(chan int64, queueSize),
	}
}

// CreateOrder reserves stock for every line in the cache, persists the order and queues it
// for allocation. A non-empty idempotencyKey rejects replays with ErrDuplicateRequest.
func (s *OrderService) CreateOrder(ctx context.Context, idempotencyKey string, lines []domain.NewLineItem) (domain.Order, error) {
	merged, err := s.validate(ctx, lines)
	if err != nil {
		return domain.Order{}, err
	}

	if idempotencyKey != "" {
		ok, err := s.cache.SetIdempotency(ctx, idempotencyKey)
		if err != nil {
			return domain.Order{}, errors.Wrap(err, "idempotency check failed")
		}
		if !ok {
			return domain.Order{}, domain.ErrDuplicateRequest
		}
	}

	for i, line := range merged {
		ok, err := s.cache.DecrementStock(ctx, line.ProductSKU, line.Quantity)
		if err != nil {
			s.restock(ctx, merged[:i])
			return domain.Order{}, errors.Wrap(err, "stock decrement failed")
		}
		if !ok {
			s.restock(ctx, merged[:i])
			available, _, _ := s.cache.GetStock(ctx, line.ProductSKU)
			return domain.Order{}, &domain.InsufficientStockError{
				SKU:       line.ProductSKU,
				Requested: line.Quantity,
				Available: available,
			}
		}
	}

	order, err := s.db.CreateOrder(ctx, merged)
	if err != nil {
		s.restock(ctx, merged)
		// the database is the source of truth; resync a counter that drifted
		var stockErr *domain.InsufficientStockError
		if errors.As(err, &stockErr) {
			if syncErr := s.cache.SetStock(ctx, stockErr.SKU, stockErr.Available); syncErr != nil {
				s.log.WithError(syncErr).WithField("sku", stockErr.SKU).Error("resync stock cache")
			}
		}
		return domain.Order{}, err
	}

	s.log.WithFields(logrus.Fields{"order_id": order.ID, "lines": len(order.OrderLineItems)}).Info("order created")
	s.enqueue(ctx, order.ID)
	return order, nil
}

// validate merges duplicate SKUs, keeping first-seen order, and checks every line.
func (s *OrderService) validate(ctx context.Context, lines []domain.NewLineItem) ([]domain.NewLineItem, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptyDraft
	}

	merged := make([]domain.NewLineItem, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, errors.Wrapf(domain.ErrInvalidQuantity, "sku %s", line.ProductSKU)
		}
		sku := domain.NormalizeSKU(line.ProductSKU)
		if i, ok := index[sku]; ok {
			merged[i].Quantity += line.Quantity
			continue
		}
		index[sku] = len(merged)
		merged = append(merged, domain.NewLineItem{ProductSKU: sku, Quantity: line.Quantity})
	}

	for _, line := range merged {
		// also warms the cache so the decrement below sees a counter
		if _, err := currentStock(ctx, s.db, s.cache, line.ProductSKU); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, errors.Wrapf(domain.ErrValidation, "unknown sku %s", line.ProductSKU)
			}
			return nil, err
		}
	}
	return merged, nil
}

func (s *OrderService) restock(ctx context.Context, lines []domain.NewLineItem) {
	for _, line := range lines {
		if err := s.cache.IncrementStock(ctx, line.ProductSKU, line.Quantity); err != nil {
			s.log.WithError(err).WithField("sku", line.ProductSKU).Error("CRITICAL stock rollback failed")
		}
	}
}

func (s *OrderService) enqueue(ctx context.Context, id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.log.WithField("order_id", id).Warn("allocation queue closed, order left NEW")
		return false
	}
	select {
	case s.orderQueue <- id:
		return true
	case <-ctx.Done():
		s.log.WithField("order_id", id).Warn("allocation queue full, order left NEW")
		return false
	}
}

// RequeuePending queues orders a previous run left unallocated.
func (s *OrderService) RequeuePending(ctx context.Context) (int, error) {
	n := 0
	for _, status := range []domain.OrderStatus{domain.OrderStatusNew, domain.OrderStatusAllocated} {
		orders, err := s.db.ListOrders(ctx, &status)
		if err != nil {
			return n, err
		}
		for _, o := range orders {
			if s.enqueue(ctx, o.ID) {
				n++
			}
		}
	}
	return n, nil
}

func (s *OrderService) List(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error) {
	return s.db.ListOrders(ctx, status)
}

func (s *OrderService) Get(ctx context.Context, id int64) (domain.Order, error) {
	o, err := s.db.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if o == nil {
		return domain.Order{}, errors.Wrapf(domain.ErrNotFound, "order %d", id)
	}
	return *o, nil
}

// Cancel cancels a NEW or ALLOCATED order and returns its stock.
func (s *OrderService) Cancel(ctx context.Context, id int64) (domain.Order, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !order.Status.CanCancel() {
		return domain.Order{}, errors.Wrapf(domain.ErrIllegalTransition, "order cannot be cancelled in status %s", order.Status)
	}

	ok, err := s.db.CancelOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if !ok {
		// lost a race with allocation
		current, err := s.Get(ctx, id)
		if err != nil {
			return domain.Order{}, err
		}
		return domain.Order{}, errors.Wrapf(domain.ErrIllegalTransition, "order cannot be cancelled in status %s", current.Status)
	}

	for _, line := range order.OrderLineItems {
		if err := s.cache.IncrementStock(ctx, line.ProductSKU, line.Quantity); err != nil {
			s.log.WithError(err).WithField("sku", line.ProductSKU).Error("restore cached stock")
		}
	}
	s.log.WithField("order_id", id).Info("order cancelled")
	return s.Get(ctx, id)
}

func (s *OrderService) Queue() <-chan int64 {
	return s.orderQueue
}

// Close stops accepting allocation work. Orders created afterwards stay NEW.
func (s *OrderService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.orderQueue)
	}
}
