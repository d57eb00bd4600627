package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PendingReminder periodically warns while the ledger holds records that
// have not been exported yet, so a forgotten batch shows up in the logs
// long before the gate terminal is shut down.
//
// An interval of 0 disables it.
type PendingReminder struct {
	ledger   *Ledger
	interval time.Duration
	logger   *zap.Logger
	clock    func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

type ReminderConfig struct {
	// IntervalMinutes is how often the reminder checks the ledger.
	// 0 means never.
	IntervalMinutes int
}

// NewPendingReminder creates a reminder but does not start it.
func NewPendingReminder(l *Ledger, cfg ReminderConfig, logger *zap.Logger) *PendingReminder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PendingReminder{
		ledger:   l,
		interval: time.Duration(cfg.IntervalMinutes) * time.Minute,
		logger:   logger,
		clock:    time.Now,
		done:     make(chan struct{}),
	}
}

// Start launches the background loop.  The loop exits when ctx is cancelled
// or Stop is called.
func (p *PendingReminder) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true

	if p.interval <= 0 {
		p.logger.Info("pending reminder disabled (interval=0)")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)
	go p.loop(ctx)

	p.logger.Info("pending reminder started", zap.Duration("interval", p.interval))
}

// Stop signals the loop to exit and waits for it.  Safe to call more than
// once, and before Start.
func (p *PendingReminder) Stop() {
	p.mu.Lock()
	started := p.started
	cancel := p.cancel
	p.mu.Unlock()

	if !started {
		return
	}
	if cancel != nil {
		cancel()
	}
	<-p.done
}

func (p *PendingReminder) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Check()
		}
	}
}

// Check logs one reminder if records are pending and reports how many.
func (p *PendingReminder) Check() int {
	n := p.ledger.Len()
	if n == 0 {
		return 0
	}
	fields := []zap.Field{zap.Int("pending", n)}
	if oldest, ok := p.ledger.OldestPending(); ok {
		fields = append(fields, zap.Duration("oldest_age", p.clock().Sub(oldest).Truncate(time.Second)))
	}
	p.logger.Warn("records waiting for export", fields...)
	return n
}
