package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/petflix/notifier/internal/domain"
	"github.com/petflix/notifier/internal/queue"
	"github.com/petflix/notifier/internal/repository"
)

// WriterPool manages the lifecycle of all intake writers.
// All writers share the same intake buffer; a handful of them is enough
// because each iteration is a single-row insert.
type WriterPool struct {
	writers []*Writer
	wg      sync.WaitGroup
}

func NewWriterPool(
	count int,
	intake *queue.Intake,
	repo repository.EventRepository,
	logger *zap.Logger,
	onPersisted func(domain.EventType),
) *WriterPool {
	writers := make([]*Writer, count)
	for i := range writers {
		writers[i] = NewWriter(i, intake, repo,
			logger.With(zap.Int("writer_id", i)), onPersisted)
	}
	return &WriterPool{writers: writers}
}

// Start launches all writers as goroutines.
// The provided ctx is forwarded to every writer; cancelling it
// triggers a graceful shutdown of the entire pool.
func (p *WriterPool) Start(ctx context.Context) {
	for _, w := range p.writers {
		p.wg.Add(1)
		go func(w *Writer) {
			defer p.wg.Done()
			w.Run(ctx)
		}(w)
	}
}

// Wait blocks until every writer has returned after ctx is cancelled.
// Call this after cancelling the context so in-flight inserts finish.
func (p *WriterPool) Wait() {
	p.wg.Wait()
}
