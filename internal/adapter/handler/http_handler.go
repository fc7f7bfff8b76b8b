package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/warehouse-console/internal/core/domain"
)

const idempotencyHeader = "Idempotency-Key"

// Catalog is satisfied by *service.CatalogService.
type Catalog interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Product, error)
	GetBySKU(ctx context.Context, sku string) (domain.Product, error)
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	Update(ctx context.Context, id int64, p domain.Product) (domain.Product, error)
	Delete(ctx context.Context, id int64) error
	CheckStock(ctx context.Context, sku string, quantity int) (domain.StockCheck, error)
}

// Orders is satisfied by *service.OrderService.
type Orders interface {
	CreateOrder(ctx context.Context, idempotencyKey string, lines []domain.NewLineItem) (domain.Order, error)
	List(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error)
	Get(ctx context.Context, id int64) (domain.Order, error)
	Cancel(ctx context.Context, id int64) (domain.Order, error)
}

// Tasks is satisfied by *service.TaskService.
type Tasks interface {
	List(ctx context.Context, status *domain.TaskStatus) ([]domain.PickingTask, error)
	Get(ctx context.Context, id int64) (domain.PickingTask, error)
	Complete(ctx context.Context, id int64) (domain.PickingTask, error)
}

type HTTPHandler struct {
	catalog Catalog
	orders  Orders
	tasks   Tasks
	health  *HealthReporter
	log     logrus.FieldLogger
}

type errorResponse struct {
	Message   string `json:"message"`
	SKU       string `json:"sku,omitempty"`
	Requested int    `json:"requested,omitempty"`
	Available *int   `json:"available,omitempty"`
}

func NewHTTPHandler(catalog Catalog, orders Orders, tasks Tasks, health *HealthReporter, log logrus.FieldLogger) *HTTPHandler {
	return &HTTPHandler{catalog: catalog, orders: orders, tasks: tasks, health: health, log: log}
}

// Router mounts the inventory REST API.
func (h *HTTPHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logMiddleware)

	r.Get("/health", h.HealthCheck)

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Get("/sku/{sku}", h.getProductBySKU)
		r.Get("/{sku}/stock/{quantity}", h.checkStock)
		r.Get("/{id}", h.getProduct)
		r.Put("/{id}", h.updateProduct)
		r.Delete("/{id}", h.deleteProduct)
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Post("/", h.createOrder)
		r.Get("/status/{status}", h.listOrdersByStatus)
		r.Get("/{id}", h.getOrder)
		r.Put("/{id}/cancel", h.cancelOrder)
	})

	r.Route("/api/picking-tasks", func(r chi.Router) {
		r.Get("/", h.listTasks(nil))
		r.Get("/in-progress", h.listTasks(statusPtr(domain.TaskStatusInProgress)))
		r.Get("/completed", h.listTasks(statusPtr(domain.TaskStatusDone)))
		r.Get("/status/{status}", h.listTasksByStatus)
		r.Get("/{id}", h.getTask)
		r.Put("/{id}/complete", h.completeTask)
	})

	return r
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.health != nil && !h.health.Serving() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *HTTPHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	product, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) getProductBySKU(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetBySKU(r.Context(), chi.URLParam(r, "sku"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *HTTPHandler) createProduct(w http.ResponseWriter, r *http.Request) {
	var p domain.Product
	if !h.decode(w, r, &p) {
		return
	}
	created, err := h.catalog.Create(r.Context(), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *HTTPHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var p domain.Product
	if !h.decode(w, r, &p) {
		return
	}
	updated, err := h.catalog.Update(r.Context(), id, p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *HTTPHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.catalog.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// checkStock answers 200 with sufficient=false on a shortfall; the client decides.
func (h *HTTPHandler) checkStock(w http.ResponseWriter, r *http.Request) {
	quantity, err := strconv.Atoi(chi.URLParam(r, "quantity"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "quantity must be a number"})
		return
	}
	check, err := h.catalog.CheckStock(r.Context(), chi.URLParam(r, "sku"), quantity)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}

func (h *HTTPHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context(), nil)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *HTTPHandler) listOrdersByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := domain.ParseOrderStatus(chi.URLParam(r, "status"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	orders, err := h.orders.List(r.Context(), &status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *HTTPHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	order, err := h.orders.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	order, err := h.orders.CreateOrder(r.Context(), r.Header.Get(idempotencyHeader), req.OrderLineItems)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *HTTPHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	order, err := h.orders.Cancel(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) listTasks(status *domain.TaskStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tasks, err := h.tasks.List(r.Context(), status)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tasks)
	}
}

func (h *HTTPHandler) listTasksByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := domain.ParseTaskStatus(chi.URLParam(r, "status"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.listTasks(&status)(w, r)
}

func (h *HTTPHandler) getTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	task, err := h.tasks.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *HTTPHandler) completeTask(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	task, err := h.tasks.Complete(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *HTTPHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid id"})
		return 0, false
	}
	return id, true
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return false
	}
	return true
}

// writeError maps domain errors onto status codes with a {"message"} body.
func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *domain.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		available := stockErr.Available
		writeJSON(w, http.StatusConflict, errorResponse{
			Message:   stockErr.Error(),
			SKU:       stockErr.SKU,
			Requested: stockErr.Requested,
			Available: &available,
		})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: err.Error()})
	case errors.Is(err, domain.ErrIllegalTransition), errors.Is(err, domain.ErrDuplicateRequest):
		writeJSON(w, http.StatusConflict, errorResponse{Message: err.Error()})
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrEmptyDraft),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrUnknownStatus):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	default:
		h.log.WithError(err).WithField("request_id", middleware.GetReqID(r.Context())).Error("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
	}
}

func (h *HTTPHandler) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"url":        r.URL.String(),
			"remoteAddr": r.RemoteAddr,
			"userAgent":  r.UserAgent(),
			"request_id": r.Header.Get("X-Request-ID"),
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
		}).Info("handled request")
	})
}

func statusPtr(s domain.TaskStatus) *domain.TaskStatus {
	return &s
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
