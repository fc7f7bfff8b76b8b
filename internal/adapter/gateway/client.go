package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/warehouse-console/internal/core/domain"
	"github.com/rl1809/warehouse-console/internal/port"
)

const (
	DefaultBaseURL    = "http://localhost:8080"
	requestIDHeader   = "X-Request-ID"
	idempotencyHeader = "Idempotency-Key"
)

var _ port.Gateway = (*Client)(nil)

// StatusError is a non-2xx response. It unwraps to the domain sentinel matching its code,
// if any.
type StatusError struct {
	Code    int
	Message string
	kind    error
}

func (e *StatusError) Unwrap() error {
	return e.kind
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("remote returned %d: %s", e.Code, e.Message)
}

func (e *StatusError) RemoteMessage() string {
	return e.Message
}

type errorBody struct {
	Message   string `json:"message"`
	SKU       string `json:"sku"`
	Requested int    `json:"requested"`
	Available *int   `json:"available"`
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	log     logrus.FieldLogger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "parse base url %q", baseURL)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", baseURL)
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     discard,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do sends one request and decodes a 2xx body into out. stockSKU is set for calls whose
// 409 responses describe a stock shortfall.
func (c *Client) do(ctx context.Context, method, path string, body, out any, stockSKU string) error {
	return c.send(ctx, method, path, nil, body, out, stockSKU)
}

func (c *Client) send(ctx context.Context, method, path string, header http.Header, body, out any, stockSKU string) error {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request body")
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, payload)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})
	log.Debug("api request")

	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Error("api transport failure")
		return errors.Wrapf(domain.ErrNetwork, "%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(domain.ErrNetwork, "read %s %s response: %v", method, path, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(bytes.TrimSpace(raw)) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return errors.Wrapf(err, "decode %s %s response", method, path)
		}
		return nil
	}

	apiErr := c.statusError(resp.StatusCode, raw, stockSKU)
	log.WithField("status", resp.StatusCode).WithError(apiErr).Error("api error")
	return apiErr
}

func (c *Client) statusError(code int, raw []byte, stockSKU string) error {
	var body errorBody
	_ = json.Unmarshal(raw, &body)
	message := body.Message
	if message == "" {
		message = http.StatusText(code)
	}

	switch {
	case code == http.StatusNotFound:
		return errors.Wrap(domain.ErrNotFound, message)
	case code == http.StatusConflict && stockSKU != "":
		// any rejection of a stock-checked call is a shortfall, figure or not
		stockErr := &domain.InsufficientStockError{SKU: stockSKU, Requested: body.Requested, Available: domain.AvailableUnknown}
		if body.SKU != "" {
			stockErr.SKU = body.SKU
		}
		if body.Available != nil {
			stockErr.Available = *body.Available
		}
		return stockErr
	case code == http.StatusConflict:
		return &StatusError{Code: code, Message: message, kind: domain.ErrIllegalTransition}
	case code == http.StatusBadRequest || code == http.StatusUnprocessableEntity:
		return &StatusError{Code: code, Message: message, kind: domain.ErrValidation}
	default:
		return &StatusError{Code: code, Message: message}
	}
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.do(ctx, http.MethodGet, "/api/products", nil, &products, ""); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	var product domain.Product
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/products/%d", id), nil, &product, "")
	return product, err
}

func (c *Client) GetProductBySKU(ctx context.Context, sku string) (domain.Product, error) {
	var product domain.Product
	err := c.do(ctx, http.MethodGet, "/api/products/sku/"+url.PathEscape(sku), nil, &product, "")
	return product, err
}

func (c *Client) CreateProduct(ctx context.Context, product domain.Product) (domain.Product, error) {
	var created domain.Product
	err := c.do(ctx, http.MethodPost, "/api/products", product, &created, "")
	return created, err
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, product domain.Product) (domain.Product, error) {
	var updated domain.Product
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/products/%d", id), product, &updated, "")
	return updated, err
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/products/%d", id), nil, nil, "")
}

func (c *Client) CheckStock(ctx context.Context, sku string, quantity int) (domain.StockCheck, error) {
	var check domain.StockCheck
	path := fmt.Sprintf("/api/products/%s/stock/%d", url.PathEscape(sku), quantity)
	if err := c.do(ctx, http.MethodGet, path, nil, &check, sku); err != nil {
		var stockErr *domain.InsufficientStockError
		if errors.As(err, &stockErr) && stockErr.Requested == 0 {
			stockErr.Requested = quantity
		}
		return check, err
	}
	if check.SKU == "" {
		check.SKU = sku
	}
	if check.Requested == 0 {
		check.Requested = quantity
	}
	if !check.Sufficient {
		return check, &domain.InsufficientStockError{SKU: check.SKU, Requested: quantity, Available: check.Available}
	}
	return check, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders", nil, &orders, ""); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.do(ctx, http.MethodGet, "/api/orders/status/"+string(status), nil, &orders, ""); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) GetOrder(ctx context.Context, id int64) (domain.Order, error) {
	var order domain.Order
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/orders/%d", id), nil, &order, "")
	return order, err
}

func (c *Client) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error) {
	var order domain.Order
	sku := ""
	if len(req.OrderLineItems) > 0 {
		sku = req.OrderLineItems[0].ProductSKU
	}
	header := http.Header{}
	header.Set(idempotencyHeader, uuid.NewString())
	err := c.send(ctx, http.MethodPost, "/api/orders", header, req, &order, sku)
	return order, err
}

func (c *Client) CancelOrder(ctx context.Context, id int64) (domain.Order, error) {
	var order domain.Order
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/orders/%d/cancel", id), nil, &order, "")
	return order, err
}

func (c *Client) ListTasks(ctx context.Context) ([]domain.PickingTask, error) {
	return c.listTasks(ctx, "/api/picking-tasks")
}

func (c *Client) ListTasksByStatus(ctx context.Context, status domain.TaskStatus) ([]domain.PickingTask, error) {
	return c.listTasks(ctx, "/api/picking-tasks/status/"+string(status))
}

func (c *Client) ListInProgressTasks(ctx context.Context) ([]domain.PickingTask, error) {
	return c.listTasks(ctx, "/api/picking-tasks/in-progress")
}

func (c *Client) ListCompletedTasks(ctx context.Context) ([]domain.PickingTask, error) {
	return c.listTasks(ctx, "/api/picking-tasks/completed")
}

func (c *Client) listTasks(ctx context.Context, path string) ([]domain.PickingTask, error) {
	var tasks []domain.PickingTask
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks, ""); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id int64) (domain.PickingTask, error) {
	var task domain.PickingTask
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/picking-tasks/%d", id), nil, &task, "")
	return task, err
}

func (c *Client) CompleteTask(ctx context.Context, id int64) (domain.PickingTask, error) {
	var task domain.PickingTask
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/picking-tasks/%d/complete", id), nil, &task, "")
	return task, err
}
