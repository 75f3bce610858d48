package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/petflix/notifier/internal/digest"
	"github.com/petflix/notifier/internal/domain"
	"github.com/petflix/notifier/internal/push"
	"github.com/petflix/notifier/internal/ratelimiter"
	"github.com/petflix/notifier/internal/repository"
)

// ProcessorHooks carries the metric callback functions injected by main.
// Using a struct keeps the processor constructor signature clean.
type ProcessorHooks struct {
	OnDigest  func(t domain.EventType, events int)
	OnFailed  func(t domain.EventType)
	OnTick    func(d time.Duration)
	OnSkipped func()
}

// Processor is the notification grouping batch processor. On every tick it
// drains events that have aged past the grouping window, partitions them by
// (recipient, type), dispatches one summarized push per partition, and
// stamps sent_at on every row it handled.
//
// Delivery is fire-and-forget: a failed or impossible dispatch (no active
// subscription, gateway error, timeout) still transitions the partition to
// sent. The only outcomes that leave rows pending for the next tick are a
// storage failure during the scan, a subscription-store read failure, and
// a failed sent_at update.
type Processor struct {
	events  repository.EventRepository
	subs    repository.SubscriptionRepository
	sender  push.Sender
	limiter *ratelimiter.DispatchLimiter
	logger  *zap.Logger
	hooks   ProcessorHooks

	window          time.Duration
	interval        time.Duration
	dispatchTimeout time.Duration

	// tickMu serializes ticks. The ticker loop never overlaps itself, but
	// ProcessTick is also callable directly (tests, ad-hoc drains) and two
	// concurrent ticks would race on the same pending rows.
	tickMu sync.Mutex
	wg     sync.WaitGroup
}

func NewProcessor(
	events repository.EventRepository,
	subs repository.SubscriptionRepository,
	sender push.Sender,
	limiter *ratelimiter.DispatchLimiter,
	window, interval, dispatchTimeout time.Duration,
	logger *zap.Logger,
	hooks ProcessorHooks,
) *Processor {
	if hooks.OnDigest == nil {
		hooks.OnDigest = func(domain.EventType, int) {}
	}
	if hooks.OnFailed == nil {
		hooks.OnFailed = func(domain.EventType) {}
	}
	if hooks.OnTick == nil {
		hooks.OnTick = func(time.Duration) {}
	}
	if hooks.OnSkipped == nil {
		hooks.OnSkipped = func() {}
	}
	return &Processor{
		events:          events,
		subs:            subs,
		sender:          sender,
		limiter:         limiter,
		logger:          logger,
		hooks:           hooks,
		window:          window,
		interval:        interval,
		dispatchTimeout: dispatchTimeout,
	}
}

// Start launches the tick loop as a goroutine. Cancelling ctx stops the
// loop; call Wait afterwards to let an in-flight tick finish.
func (p *Processor) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(ctx)
	}()
}

// Wait blocks until the tick loop has returned after ctx is cancelled.
func (p *Processor) Wait() {
	p.wg.Wait()
}

func (p *Processor) run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("digest processor started",
		zap.Duration("interval", p.interval),
		zap.Duration("window", p.window),
	)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("digest processor stopping")
			return
		case <-ticker.C:
			// Tick errors are logged inside; the next tick rescans the
			// same pending rows, so there is nothing to do with the error.
			_ = p.ProcessTick(ctx)
		}
	}
}

// ProcessTick runs one drain cycle. Exported so tests (and operators, via
// the loop) can drive the processor without the timer.
//
// A storage failure during the pending scan aborts the whole tick and is
// returned; every other failure is isolated to its partition.
func (p *Processor) ProcessTick(ctx context.Context) error {
	if !p.tickMu.TryLock() {
		p.hooks.OnSkipped()
		p.logger.Warn("tick skipped: previous tick still running")
		return nil
	}
	defer p.tickMu.Unlock()

	start := time.Now()
	defer func() { p.hooks.OnTick(time.Since(start)) }()

	cutoff := time.Now().UTC().Add(-p.window)
	events, err := p.events.FindPending(ctx, cutoff)
	if err != nil {
		p.logger.Error("tick aborted: pending scan failed", zap.Error(err))
		return fmt.Errorf("find pending events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	partitions := digest.Group(events)
	digests := make(map[domain.EventType]int)

	for _, part := range partitions {
		if ctx.Err() != nil {
			// Shutdown mid-tick: unprocessed partitions stay pending.
			break
		}
		if p.processPartition(ctx, part) {
			digests[part.Key.Type]++
		}
	}

	fields := []zap.Field{
		zap.Int("eligible_events", len(events)),
		zap.Int("partitions", len(partitions)),
		zap.Duration("elapsed", time.Since(start)),
	}
	for _, t := range domain.EventTypes {
		if digests[t] > 0 {
			fields = append(fields, zap.Int(string(t)+"_digests", digests[t]))
		}
	}
	p.logger.Info("tick complete", fields...)
	return nil
}

// processPartition formats, dispatches, and marks one partition.
// Returns true when a digest was dispatched to at least one subscription.
func (p *Processor) processPartition(ctx context.Context, part digest.Partition) bool {
	log := p.logger.With(
		zap.String("user_id", part.Key.UserID),
		zap.String("type", string(part.Key.Type)),
		zap.Int("events", len(part.Events)),
	)

	msg, malformed, err := digest.Format(part)
	for _, id := range malformed {
		log.Warn("skipping malformed event payload", zap.String("event_id", id))
	}
	if errors.Is(err, domain.ErrMalformedPayload) {
		// Nothing usable to say. Mark the rows anyway: a payload does not
		// become well-formed by waiting, so retrying is pointless.
		p.markSent(ctx, part, log)
		return false
	}

	subs, err := p.subs.ActiveByUser(ctx, part.Key.UserID)
	if err != nil {
		// Transient lookup failure: leave the partition pending so the
		// next tick retries it. This must not block the rest of the tick.
		log.Error("subscription lookup failed, partition left pending", zap.Error(err))
		return false
	}

	if len(subs) == 0 {
		// A missing subscription is not a retryable failure: there is
		// nothing to deliver to, now or on any future tick.
		log.Debug("no active subscriptions, marking without dispatch")
		p.markSent(ctx, part, log)
		return false
	}

	// Bound the whole partition's dispatch so one hung endpoint cannot
	// stall the remaining partitions in this tick.
	dctx, cancel := context.WithTimeout(ctx, p.dispatchTimeout)
	defer cancel()

	delivered := 0
	for _, sub := range subs {
		if err := p.limiter.Wait(dctx); err != nil {
			log.Warn("dispatch window expired before all subscriptions were served",
				zap.Int("remaining", len(subs)-delivered))
			break
		}
		if err := p.sender.Send(dctx, sub, msg); err != nil {
			log.Warn("push send failed",
				zap.String("subscription_id", sub.ID),
				zap.Error(err),
			)
			p.hooks.OnFailed(part.Key.Type)
			continue
		}
		delivered++
	}

	// Mark after the attempt regardless of outcome: at-least-once,
	// fire-and-forget. A crash between dispatch and marking can duplicate
	// a send on the next tick; that is the accepted failure mode.
	p.markSent(ctx, part, log)
	p.hooks.OnDigest(part.Key.Type, len(part.Events))

	log.Info("digest dispatched",
		zap.String("title", msg.Title),
		zap.Int("deliveries", delivered),
		zap.Int("subscriptions", len(subs)),
	)
	return true
}

func (p *Processor) markSent(ctx context.Context, part digest.Partition, log *zap.Logger) {
	if err := p.events.MarkSent(ctx, part.IDs(), time.Now().UTC()); err != nil {
		log.Error("failed to mark partition sent, rows will be rescanned next tick", zap.Error(err))
	}
}
