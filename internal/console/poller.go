package console

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const DefaultPollInterval = 30 * time.Second

// Poller re-invokes its targets on a fixed interval until stopped. It is owned by the view
// that started it; the view must call Stop when it goes away.
type Poller struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// StartPoller refreshes every target once per tick, each independently of the others. The
// first refresh happens one interval after start; callers load initial data themselves.
func StartPoller(ctx context.Context, interval time.Duration, targets ...Invalidator) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	p := &Poller{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(p.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			// a tick that raced with Stop must not start new fetches
			if ctx.Err() != nil {
				return
			}
			var g errgroup.Group
			for _, target := range targets {
				g.Go(func() error {
					target.Invalidate(ctx)
					return nil
				})
			}
			_ = g.Wait()
		}
	}()
	return p
}

// Stop cancels polling and waits for the loop, including a tick in progress, to finish.
// It is safe to call more than once.
func (p *Poller) Stop() {
	p.once.Do(p.cancel)
	<-p.done
}

// Done is closed once the polling loop has exited.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}
