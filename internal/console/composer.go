package console

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rl1809/warehouse-console/internal/core/domain"
	"github.com/rl1809/warehouse-console/internal/port"
)

type DraftLine struct {
	SKU         string
	ProductName string
	// AvailableStock is the last availability the inventory side reported for SKU.
	AvailableStock int
	Quantity       int
}

// Draft is an order under composition. It is a value: every operation returns a new Draft
// and leaves the receiver untouched, so a rejected step never loses input.
type Draft struct {
	order []string
	lines map[string]DraftLine
}

func (d Draft) Len() int {
	return len(d.order)
}

func (d Draft) IsEmpty() bool {
	return len(d.order) == 0
}

// Lines returns the lines in insertion order.
func (d Draft) Lines() []DraftLine {
	out := make([]DraftLine, 0, len(d.order))
	for _, sku := range d.order {
		out = append(out, d.lines[sku])
	}
	return out
}

func (d Draft) Line(sku string) (DraftLine, bool) {
	line, ok := d.lines[sku]
	return line, ok
}

func (d Draft) TotalUnits() int {
	total := 0
	for _, line := range d.lines {
		total += line.Quantity
	}
	return total
}

// Request converts the draft into the create-order payload, preserving insertion order.
func (d Draft) Request() domain.CreateOrderRequest {
	items := make([]domain.NewLineItem, 0, len(d.order))
	for _, sku := range d.order {
		items = append(items, domain.NewLineItem{ProductSKU: sku, Quantity: d.lines[sku].Quantity})
	}
	return domain.CreateOrderRequest{OrderLineItems: items}
}

func (d Draft) clone() Draft {
	next := Draft{
		order: make([]string, len(d.order)),
		lines: make(map[string]DraftLine, len(d.lines)+1),
	}
	copy(next.order, d.order)
	for k, v := range d.lines {
		next.lines[k] = v
	}
	return next
}

func (d Draft) upsert(line DraftLine) Draft {
	next := d.clone()
	if _, ok := next.lines[line.SKU]; !ok {
		next.order = append(next.order, line.SKU)
	}
	next.lines[line.SKU] = line
	return next
}

func (d Draft) without(sku string) Draft {
	if _, ok := d.lines[sku]; !ok {
		return d
	}
	next := d.clone()
	delete(next.lines, sku)
	for i, s := range next.order {
		if s == sku {
			next.order = append(next.order[:i], next.order[i+1:]...)
			break
		}
	}
	return next
}

// Selection is the transient "product picked, quantity typed" state of the composer view.
type Selection struct {
	Product  *domain.Product
	Quantity int
}

func (s *Selection) Select(p domain.Product) {
	s.Product = &p
	if s.Quantity <= 0 {
		s.Quantity = 1
	}
}

func (s *Selection) Reset() {
	s.Product = nil
	s.Quantity = 1
}

// Composer builds drafts, revalidating availability with the inventory service before
// every committed change. The checks are advisory; the service re-checks on create.
type Composer struct {
	products port.ProductGateway
	orders   port.OrderGateway
	log      logrus.FieldLogger
}

func NewComposer(products port.ProductGateway, orders port.OrderGateway, log logrus.FieldLogger) *Composer {
	return &Composer{products: products, orders: orders, log: log}
}

// Add merges quantity units of product into the draft. The stock check covers the merged
// total. On any failure the original draft is returned unchanged.
func (c *Composer) Add(ctx context.Context, draft Draft, product domain.Product, quantity int) (Draft, error) {
	if quantity <= 0 {
		return draft, domain.ErrInvalidQuantity
	}

	existing, merged := draft.Line(product.SKU)
	requested := quantity + existing.Quantity

	available, err := c.checkStock(ctx, product.SKU, requested, product.QuantityInStock)
	if err != nil {
		return draft, err
	}

	line := DraftLine{
		SKU:            product.SKU,
		ProductName:    product.Name,
		AvailableStock: available,
		Quantity:       requested,
	}
	c.log.WithFields(logrus.Fields{"sku": product.SKU, "quantity": requested, "merged": merged}).Debug("draft line added")
	return draft.upsert(line), nil
}

// UpdateQuantity replaces the quantity of an existing line. Zero or less removes it.
func (c *Composer) UpdateQuantity(ctx context.Context, draft Draft, sku string, quantity int) (Draft, error) {
	if quantity <= 0 {
		return c.Remove(draft, sku), nil
	}
	line, ok := draft.Line(sku)
	if !ok {
		return draft, domain.ErrLineNotFound
	}

	available, err := c.checkStock(ctx, sku, quantity, line.AvailableStock)
	if err != nil {
		return draft, err
	}

	line.Quantity = quantity
	line.AvailableStock = available
	return draft.upsert(line), nil
}

func (c *Composer) Remove(draft Draft, sku string) Draft {
	return draft.without(sku)
}

// Submit creates the order. An empty draft is rejected without contacting the service.
// On failure the caller still holds the unchanged draft and may retry.
func (c *Composer) Submit(ctx context.Context, draft Draft) (domain.Order, error) {
	if draft.IsEmpty() {
		return domain.Order{}, domain.ErrEmptyDraft
	}
	order, err := c.orders.CreateOrder(ctx, draft.Request())
	if err != nil {
		c.log.WithError(err).WithField("lines", draft.Len()).Warn("order submit failed")
		return domain.Order{}, err
	}
	c.log.WithFields(logrus.Fields{"order_id": order.ID, "lines": draft.Len()}).Info("order created")
	return order, nil
}

// checkStock returns the availability to record on the line. snapshot is used whenever the
// service does not report a figure, on success or on a shortfall.
func (c *Composer) checkStock(ctx context.Context, sku string, requested, snapshot int) (int, error) {
	check, err := c.products.CheckStock(ctx, sku, requested)
	if err != nil {
		var stockErr *domain.InsufficientStockError
		if errors.As(err, &stockErr) {
			if stockErr.SKU == "" {
				stockErr.SKU = sku
			}
			if stockErr.Available == domain.AvailableUnknown {
				stockErr.Available = snapshot
			}
			return 0, stockErr
		}
		return 0, err
	}
	if check.Available > 0 {
		return check.Available, nil
	}
	return snapshot, nil
}

// SearchProducts filters by case-insensitive substring on name or SKU.
func SearchProducts(products []domain.Product, term string) []domain.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return products
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Name), term) || strings.Contains(strings.ToLower(p.SKU), term) {
			out = append(out, p)
		}
	}
	return out
}
