// internal/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"errors"
	"sync"

	"content-orchestrator/internal/common/logger"
	"content-orchestrator/internal/common/metrics"
	"content-orchestrator/internal/genai"
)

// DefaultMaxConcurrent bounds backend parallelism when no limit is given.
const DefaultMaxConcurrent = 5

var ErrNilRequest = errors.New("dispatch: nil request")

// Invoker is the generation backend contract the dispatcher serializes
// access to.
type Invoker interface {
	Invoke(ctx context.Context, req *genai.GenerationRequest) (*genai.GenerationResponse, error)
}

// waiter is one queued submission. Its channel is closed when the admission
// slot is transferred to it.
type waiter struct {
	admitted chan struct{}
}

// Dispatcher is the admission-controlled executor in front of the generation
// backend. At most maxConcurrent requests run at once; excess submissions
// wait in FIFO arrival order. The dispatcher never retries and never drops a
// request: every admitted submission performs exactly one backend call.
//
// Submit is safe for concurrent use by any number of pipeline runs sharing
// the same instance.
type Dispatcher struct {
	backend       Invoker
	maxConcurrent int
	logger        logger.Logger

	mu     sync.Mutex // guards active and queue
	active int
	queue  []*waiter
}

// New builds a dispatcher around the given backend.
func New(backend Invoker, maxConcurrent int, log logger.Logger) *Dispatcher {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	return &Dispatcher{
		backend:       backend,
		maxConcurrent: maxConcurrent,
		logger: log.With(map[string]interface{}{
			"component":     "dispatcher",
			"maxConcurrent": maxConcurrent,
		}),
	}
}

// Submit runs the request as soon as an admission slot is available,
// preserving FIFO order among queued submissions. Cancelling the context
// while queued abandons the wait; cancelling while running is handled by the
// backend call itself.
func (d *Dispatcher) Submit(ctx context.Context, req *genai.GenerationRequest) (*genai.GenerationResponse, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	if err := d.admit(ctx); err != nil {
		return nil, err
	}

	metrics.DispatcherActiveRequests.Inc()
	defer func() {
		metrics.DispatcherActiveRequests.Dec()
		d.release()
	}()

	return d.backend.Invoke(ctx, req)
}

// admit blocks until the caller holds an admission slot or ctx is cancelled.
func (d *Dispatcher) admit(ctx context.Context) error {
	d.mu.Lock()
	if d.active < d.maxConcurrent {
		d.active++
		d.mu.Unlock()
		return nil
	}

	w := &waiter{admitted: make(chan struct{})}
	d.queue = append(d.queue, w)
	depth := len(d.queue)
	metrics.DispatcherQueuedRequests.Set(float64(depth))
	d.mu.Unlock()

	d.logger.Debug("request queued", map[string]interface{}{
		"queueDepth": depth,
	})

	select {
	case <-w.admitted:
		return nil
	case <-ctx.Done():
		d.mu.Lock()
		for i, qw := range d.queue {
			if qw == w {
				d.queue = append(d.queue[:i], d.queue[i+1:]...)
				metrics.DispatcherQueuedRequests.Set(float64(len(d.queue)))
				d.mu.Unlock()
				return ctx.Err()
			}
		}
		// The slot was transferred to us between ctx.Done and locking;
		// pass it on so no slot leaks.
		d.releaseLocked()
		d.mu.Unlock()
		return ctx.Err()
	}
}

// release hands the slot to the oldest waiter, or frees it.
func (d *Dispatcher) release() {
	d.mu.Lock()
	d.releaseLocked()
	d.mu.Unlock()
}

func (d *Dispatcher) releaseLocked() {
	if len(d.queue) > 0 {
		w := d.queue[0]
		d.queue = d.queue[1:]
		metrics.DispatcherQueuedRequests.Set(float64(len(d.queue)))
		close(w.admitted) // slot transferred, active count unchanged
		return
	}
	d.active--
}

// Active returns the number of requests currently executing.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// QueueDepth returns the number of submissions waiting for admission.
func (d *Dispatcher) QueueDepth() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}
