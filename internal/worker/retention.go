package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/petflix/notifier/internal/repository"
)

// RetentionWorker periodically purges delivered events that are older than
// the retention period. Sent rows are kept for a while for audit and
// debugging; unsent rows are never touched, which the repository enforces
// structurally (the DELETE matches sent_at IS NOT NULL only).
type RetentionWorker struct {
	repo      repository.EventRepository
	interval  time.Duration
	retention time.Duration
	logger    *zap.Logger
	onPurged  func(removed int64)
	wg        sync.WaitGroup
}

func NewRetentionWorker(
	repo repository.EventRepository,
	interval, retention time.Duration,
	logger *zap.Logger,
	onPurged func(int64),
) *RetentionWorker {
	if onPurged == nil {
		onPurged = func(int64) {}
	}
	return &RetentionWorker{
		repo: repo, interval: interval, retention: retention,
		logger: logger, onPurged: onPurged,
	}
}

// Start launches the sweep loop as a goroutine. Cancelling ctx stops the
// loop; call Wait afterwards to let an in-flight sweep finish before the
// pool closes.
func (rw *RetentionWorker) Start(ctx context.Context) {
	rw.wg.Add(1)
	go func() {
		defer rw.wg.Done()
		rw.run(ctx)
	}()
}

// Wait blocks until the sweep loop has returned after ctx is cancelled.
func (rw *RetentionWorker) Wait() {
	rw.wg.Wait()
}

func (rw *RetentionWorker) run(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	rw.logger.Info("retention worker started",
		zap.Duration("interval", rw.interval),
		zap.Duration("retention", rw.retention),
	)

	for {
		select {
		case <-ctx.Done():
			rw.logger.Info("retention worker stopping")
			return
		case <-ticker.C:
			rw.sweep(ctx)
		}
	}
}

func (rw *RetentionWorker) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-rw.retention)
	removed, err := rw.repo.DeleteSentBefore(ctx, cutoff)
	if err != nil {
		rw.logger.Error("retention sweep error", zap.Error(err))
		return
	}
	if removed > 0 {
		rw.onPurged(removed)
		rw.logger.Info("purged delivered events", zap.Int64("removed", removed))
	}
}
