package worker

import (
	"context"
	"sync"
	"time"

	"github.com/doublemoney-pro/doublemoney/internal/observability"
	"github.com/doublemoney-pro/doublemoney/internal/service"
	"go.uber.org/zap"
)

// MaturationWorker runs periodic maturation passes over due investments.
type MaturationWorker struct {
	svc      *service.MaturationService
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewMaturationWorker constructs a worker with a default one-minute interval.
func NewMaturationWorker(svc *service.MaturationService) *MaturationWorker {
	return &MaturationWorker{
		svc:      svc,
		interval: time.Minute,
		stopCh:   make(chan struct{}),
	}
}

// WithInterval updates the run interval.
func (w *MaturationWorker) WithInterval(interval time.Duration) *MaturationWorker {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// Start blocks and runs maturation passes at the configured interval.
func (w *MaturationWorker) Start(ctx context.Context) {
	zap.L().Info("maturation worker starting", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately at startup.
	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("maturation worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("maturation worker stop signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop stops the running worker loop.
func (w *MaturationWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *MaturationWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

func (w *MaturationWorker) runOnce(ctx context.Context) {
	if err := w.svc.RunPass(ctx); err != nil {
		observability.IncrementWorkerRun("maturation", "failed")
		zap.L().Error("maturation pass failed", zap.Error(err))
		return
	}
	observability.IncrementWorkerRun("maturation", "success")
}
