package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/imkonsowa/citiassist/models"
)

var (
	ErrQueueFull   = errors.New("issue draft queue is full")
	ErrPoolStopped = errors.New("issue draft pool is stopped")
)

type WorkerPool struct {
	jobs    chan models.IssueDraftEvent
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	handler func(ctx context.Context, event models.IssueDraftEvent) error

	// mu orders Submit against Stop: quit is closed only while holding it,
	// so every accepted event is queued before workers start draining.
	mu      sync.Mutex
	stopped bool
	quit    chan struct{}
}

func NewWorkerPool(ctx context.Context, maxWorkers, queueSize int, handler func(ctx context.Context, event models.IssueDraftEvent) error) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 2
	}
	if queueSize < 1 {
		queueSize = 100
	}

	poolCtx, cancel := context.WithCancel(ctx)

	pool := &WorkerPool{
		jobs:    make(chan models.IssueDraftEvent, queueSize),
		ctx:     poolCtx,
		cancel:  cancel,
		handler: handler,
		quit:    make(chan struct{}),
	}

	go func() {
		<-poolCtx.Done()
		pool.Stop()
	}()

	for i := 0; i < maxWorkers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}

	return pool
}

func (w *WorkerPool) worker() {
	defer w.wg.Done()

	for {
		select {
		case <-w.quit:
			w.drain()
			return
		case event := <-w.jobs:
			w.process(context.WithoutCancel(w.ctx), event)
		}
	}
}

// drain handles whatever was queued before the pool was stopped.
func (w *WorkerPool) drain() {
	ctx := context.WithoutCancel(w.ctx)
	for {
		select {
		case event := <-w.jobs:
			w.process(ctx, event)
		default:
			return
		}
	}
}

func (w *WorkerPool) process(ctx context.Context, event models.IssueDraftEvent) {
	if err := w.handler(ctx, event); err != nil {
		slog.Error("failed to handle issue draft", "subject", event.Subject, "err", err)
	}
}

// Submit queues an event without waiting. It fails when the queue is full
// or the pool has been stopped.
func (w *WorkerPool) Submit(event models.IssueDraftEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return ErrPoolStopped
	}

	select {
	case w.jobs <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

func (w *WorkerPool) Stop() {
	w.mu.Lock()
	if !w.stopped {
		w.stopped = true
		close(w.quit)
	}
	w.mu.Unlock()

	w.cancel()
}

func (w *WorkerPool) Wait() {
	w.wg.Wait()
}
