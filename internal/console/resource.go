package console

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type FetchFunc[T any] func(ctx context.Context) (T, error)

// Snapshot is a point-in-time copy of a Resource's state.
type Snapshot[T any] struct {
	Data      T
	HasData   bool
	Err       error
	Loading   bool
	Key       string
	UpdatedAt time.Time
}

// Resource keeps a locally held view of one remote collection or entity in step with the
// service. Every fetch takes a ticket; only the newest issued ticket may write state, so a
// slow response from a superseded request is dropped instead of overwriting newer data.
// Requests in flight are never cancelled.
type Resource[T any] struct {
	name  string
	fetch FetchFunc[T]
	log   logrus.FieldLogger
	now   func() time.Time

	mu       sync.Mutex
	state    Snapshot[T]
	loaded   bool
	issued   uint64
	onChange []func()
}

func NewResource[T any](name string, fetch FetchFunc[T], log logrus.FieldLogger) *Resource[T] {
	return &Resource[T]{
		name:  name,
		fetch: fetch,
		log:   log.WithField("resource", name),
		now:   time.Now,
	}
}

func (r *Resource[T]) Name() string {
	return r.name
}

// OnChange registers fn to run after every applied state change, outside the lock.
func (r *Resource[T]) OnChange(fn func()) {
	r.mu.Lock()
	r.onChange = append(r.onChange, fn)
	r.mu.Unlock()
}

func (r *Resource[T]) State() Snapshot[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Load fetches once per distinct key. Repeated calls with the key already loaded or
// loading are no-ops. Failures are recorded in state, not returned.
func (r *Resource[T]) Load(ctx context.Context, key string) {
	r.mu.Lock()
	if r.loaded && r.state.Key == key {
		r.mu.Unlock()
		return
	}
	r.loaded = true
	r.state.Key = key
	// data from a previous key must not be shown under the new one
	if r.state.HasData {
		var zero T
		r.state.Data = zero
		r.state.HasData = false
	}
	ticket := r.begin()
	r.mu.Unlock()
	r.notify()

	if _, err := r.run(ctx, ticket); err != nil {
		r.log.WithError(err).WithField("key", key).Warn("load failed")
	}
}

// Refetch re-runs the fetch on demand and hands the outcome to the caller. The outcome is
// also applied to state unless a newer request was issued meanwhile.
func (r *Resource[T]) Refetch(ctx context.Context) (T, error) {
	r.mu.Lock()
	r.loaded = true
	ticket := r.begin()
	r.mu.Unlock()
	r.notify()

	return r.run(ctx, ticket)
}

// Invalidate refetches and keeps any failure in state only. Used after mutations.
func (r *Resource[T]) Invalidate(ctx context.Context) {
	if _, err := r.Refetch(ctx); err != nil {
		r.log.WithError(err).Warn("refetch after mutation failed")
	}
}

// Set applies a value the service already returned, such as the result of a mutation, as if
// a fetch had just delivered it. Responses still in flight are superseded.
func (r *Resource[T]) Set(v T) {
	r.mu.Lock()
	r.issued++
	r.state.Data = v
	r.state.HasData = true
	r.state.Err = nil
	r.state.Loading = false
	r.state.UpdatedAt = r.now()
	r.mu.Unlock()
	r.notify()
}

// begin issues a ticket. Caller holds mu.
func (r *Resource[T]) begin() uint64 {
	r.issued++
	r.state.Loading = true
	r.state.Err = nil
	return r.issued
}

func (r *Resource[T]) run(ctx context.Context, ticket uint64) (T, error) {
	data, err := r.fetch(ctx)

	r.mu.Lock()
	if ticket != r.issued {
		r.mu.Unlock()
		r.log.WithField("ticket", ticket).Debug("discarding superseded response")
		return data, err
	}
	r.state.Loading = false
	if err != nil && ctx.Err() != nil {
		// the caller gave up, which says nothing about the service
		r.mu.Unlock()
		r.notify()
		return data, err
	}
	if err != nil {
		r.state.Err = err
	} else {
		r.state.Data = data
		r.state.HasData = true
		r.state.Err = nil
		r.state.UpdatedAt = r.now()
	}
	r.mu.Unlock()
	r.notify()

	return data, err
}

func (r *Resource[T]) notify() {
	r.mu.Lock()
	hooks := make([]func(), len(r.onChange))
	copy(hooks, r.onChange)
	r.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}
