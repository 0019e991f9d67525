// internal/dispatch/dispatcher_test.go
package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content-orchestrator/internal/common/logger"
	"content-orchestrator/internal/genai"
)

// fakeBackend records concurrency while simulating slow backend calls.
type fakeBackend struct {
	delay time.Duration

	mu       sync.Mutex
	inFlight int
	peak     int
	calls    int
	order    []string

	block chan struct{} // when set, calls wait here before returning
}

func (b *fakeBackend) Invoke(ctx context.Context, req *genai.GenerationRequest) (*genai.GenerationResponse, error) {
	b.mu.Lock()
	b.inFlight++
	if b.inFlight > b.peak {
		b.peak = b.inFlight
	}
	b.calls++
	b.order = append(b.order, req.BackendTarget)
	b.mu.Unlock()

	if b.block != nil {
		<-b.block
	}
	if b.delay > 0 {
		select {
		case <-time.After(b.delay):
		case <-ctx.Done():
			b.mu.Lock()
			b.inFlight--
			b.mu.Unlock()
			return nil, ctx.Err()
		}
	}

	b.mu.Lock()
	b.inFlight--
	b.mu.Unlock()
	return &genai.GenerationResponse{Text: "ok"}, nil
}

func (b *fakeBackend) peakConcurrency() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.peak
}

func (b *fakeBackend) totalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func TestSubmit_NilRequest(t *testing.T) {
	d := New(&fakeBackend{}, 2, logger.NewNoOpLogger())

	resp, err := d.Submit(context.Background(), nil)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrNilRequest)
}

func TestSubmit_NeverExceedsMaxConcurrent(t *testing.T) {
	const maxConcurrent = 3
	const submissions = 40

	backend := &fakeBackend{delay: 5 * time.Millisecond}
	d := New(backend, maxConcurrent, logger.NewNoOpLogger())

	var wg sync.WaitGroup
	var failures int32
	for i := 0; i < submissions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Submit(context.Background(), &genai.GenerationRequest{BackendTarget: "test"})
			if err != nil {
				atomic.AddInt32(&failures, 1)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, atomic.LoadInt32(&failures), "all submissions complete when the backend succeeds")
	assert.Equal(t, submissions, backend.totalCalls())
	assert.LessOrEqual(t, backend.peakConcurrency(), maxConcurrent)
	assert.Zero(t, d.Active())
	assert.Zero(t, d.QueueDepth())
}

func TestSubmit_DefaultLimitApplied(t *testing.T) {
	d := New(&fakeBackend{}, 0, logger.NewNoOpLogger())
	assert.Equal(t, DefaultMaxConcurrent, d.maxConcurrent)

	d = New(&fakeBackend{}, -4, logger.NewNoOpLogger())
	assert.Equal(t, DefaultMaxConcurrent, d.maxConcurrent)
}

func TestSubmit_QueuedRequestsRunInFIFOOrder(t *testing.T) {
	backend := &fakeBackend{block: make(chan struct{})}
	d := New(backend, 1, logger.NewNoOpLogger())

	// Occupy the single slot.
	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		d.Submit(context.Background(), &genai.GenerationRequest{BackendTarget: "first"})
	}()
	require.Eventually(t, func() bool { return d.Active() == 1 }, time.Second, time.Millisecond)

	// Queue three more, one at a time so arrival order is deterministic.
	labels := []string{"second", "third", "fourth"}
	var wg sync.WaitGroup
	for i, label := range labels {
		wg.Add(1)
		go func(label string) {
			defer wg.Done()
			d.Submit(context.Background(), &genai.GenerationRequest{BackendTarget: label})
		}(label)
		require.Eventually(t, func() bool { return d.QueueDepth() == i+1 }, time.Second, time.Millisecond)
	}

	close(backend.block)
	wg.Wait()
	<-firstDone

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, []string{"first", "second", "third", "fourth"}, backend.order)
}

func TestSubmit_CancelWhileQueued(t *testing.T) {
	backend := &fakeBackend{block: make(chan struct{})}
	d := New(backend, 1, logger.NewNoOpLogger())

	go d.Submit(context.Background(), &genai.GenerationRequest{BackendTarget: "running"})
	require.Eventually(t, func() bool { return d.Active() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := d.Submit(ctx, &genai.GenerationRequest{BackendTarget: "queued"})
		errCh <- err
	}()
	require.Eventually(t, func() bool { return d.QueueDepth() == 1 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled submission did not return")
	}

	assert.Zero(t, d.QueueDepth(), "cancelled waiter removed from the queue")

	// The running request finishes and the slot is reusable.
	close(backend.block)
	require.Eventually(t, func() bool { return d.Active() == 0 }, time.Second, time.Millisecond)

	_, err := d.Submit(context.Background(), &genai.GenerationRequest{BackendTarget: "after"})
	assert.NoError(t, err)
	assert.Equal(t, 2, backend.totalCalls(), "cancelled submission never reached the backend")
}

func TestSubmit_ManyConcurrentRunsShareThePool(t *testing.T) {
	const runs = 8
	const callsPerRun = 5

	backend := &fakeBackend{delay: time.Millisecond}
	d := New(backend, 4, logger.NewNoOpLogger())

	var wg sync.WaitGroup
	for r := 0; r < runs; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := 0; c < callsPerRun; c++ {
				_, err := d.Submit(context.Background(), &genai.GenerationRequest{BackendTarget: "run"})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, runs*callsPerRun, backend.totalCalls())
	assert.LessOrEqual(t, backend.peakConcurrency(), 4)
}
