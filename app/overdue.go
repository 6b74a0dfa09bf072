package app

import (
	"context"
	"sync"
	"time"

	"github.com/artpar/invoicer/adapters/metrics"
	"github.com/rs/zerolog"
)

// OverdueRefresher persists overdue transitions for open invoices.
type OverdueRefresher interface {
	RefreshOverdue(ctx context.Context) (int, error)
}

// OverdueSweeper periodically moves open invoices past their due date to overdue.
type OverdueSweeper struct {
	refresher OverdueRefresher
	metrics   *metrics.Collector
	logger    zerolog.Logger
	timeout   time.Duration

	mu         sync.Mutex
	running    bool
	interval   time.Duration
	intervalCh chan time.Duration
	stopCh     chan struct{}
	done       chan struct{}
}

// NewOverdueSweeper creates a sweeper running every interval.
func NewOverdueSweeper(refresher OverdueRefresher, interval time.Duration, m *metrics.Collector, logger zerolog.Logger) *OverdueSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &OverdueSweeper{
		refresher:  refresher,
		metrics:    m,
		logger:     logger.With().Str("service", "overdue_sweeper").Logger(),
		timeout:    time.Minute,
		interval:   interval,
		intervalCh: make(chan time.Duration, 1),
	}
}

// Start runs one sweep immediately and then one per interval until Stop
// is called or ctx is cancelled. Starting a running sweeper is a no-op.
func (s *OverdueSweeper) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	interval := s.interval
	stopCh, done := s.stopCh, s.done
	s.mu.Unlock()

	s.logger.Info().Dur("interval", interval).Msg("starting overdue sweeper")

	go func() {
		defer close(done)

		s.sweep(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			case d := <-s.intervalCh:
				ticker.Reset(d)
				s.logger.Info().Dur("interval", d).Msg("overdue sweep interval changed")
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

// Stop stops the sweeper and waits for an in-flight sweep to finish.
func (s *OverdueSweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	done := s.done
	s.mu.Unlock()

	<-done
}

// SetInterval changes the sweep interval. Non-positive values are ignored.
func (s *OverdueSweeper) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if d == s.interval {
		return
	}
	s.interval = d

	// Keep only the latest pending change.
	select {
	case <-s.intervalCh:
	default:
	}
	s.intervalCh <- d
}

// Interval returns the current sweep interval.
func (s *OverdueSweeper) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

// SweepOnce runs a single sweep and returns how many invoices changed.
func (s *OverdueSweeper) SweepOnce(ctx context.Context) (int, error) {
	start := time.Now()
	changed, err := s.refresher.RefreshOverdue(ctx)

	if s.metrics != nil {
		s.metrics.OverdueSweeps.Inc()
		s.metrics.OverdueSweepSeconds.Observe(time.Since(start).Seconds())
		if err != nil {
			s.metrics.OverdueSweepErrors.Inc()
		}
	}
	return changed, err
}

func (s *OverdueSweeper) sweep(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	changed, err := s.SweepOnce(ctx)
	if err != nil {
		s.logger.Error().Err(err).Int("changed", changed).Msg("overdue sweep failed")
		return
	}
	if changed > 0 {
		s.logger.Info().Int("changed", changed).Msg("overdue sweep updated invoices")
	} else {
		s.logger.Debug().Msg("overdue sweep found nothing to update")
	}
}
