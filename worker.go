package redisub

import (
	"context"
	"sync"
)

// Worker is the opaque handle for the background goroutine spawned by
// RunAsync. It is created only by RunAsync and owned by the Subscriber.
//
// The handle observes the worker's exit: Done is closed when the goroutine
// has fully returned, and Err then reports how the receive loop ended.
// Failures that happen on the worker — subscribe errors, connection-layer
// errors during receive, and handler panics (wrapped as ErrHandlerPanic) —
// are surfaced here rather than raised to the RunAsync caller.
type Worker struct {
	done chan struct{}

	mu  sync.Mutex
	err error
}

func newWorker() *Worker {
	return &Worker{done: make(chan struct{})}
}

// Done returns a channel that is closed when the worker has exited.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Err returns the error the receive loop exited with, or nil if the worker
// is still running or exited cleanly. Call after Done is closed for the
// definitive result.
func (w *Worker) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.err
}

// Wait blocks until the worker has exited or ctx is done.
//
// Returns:
//   - error: the receive loop's exit error (nil on clean exit), or ctx.Err()
func (w *Worker) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return w.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) setErr(err error) {
	w.mu.Lock()
	w.err = err
	w.mu.Unlock()
}
