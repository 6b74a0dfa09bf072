package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/artpar/invoicer/adapters/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

type countingRefresher struct {
	mu      sync.Mutex
	calls   int
	changed int
	err     error
	called  chan struct{}
}

func newCountingRefresher() *countingRefresher {
	return &countingRefresher{called: make(chan struct{}, 16)}
}

func (r *countingRefresher) RefreshOverdue(ctx context.Context) (int, error) {
	r.mu.Lock()
	r.calls++
	changed, err := r.changed, r.err
	r.mu.Unlock()

	select {
	case r.called <- struct{}{}:
	default:
	}
	return changed, err
}

func (r *countingRefresher) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func gatherCounter(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather error: %v", err)
	}
	for _, f := range families {
		if f.GetName() == name {
			total := 0.0
			for _, m := range f.GetMetric() {
				total += m.GetCounter().GetValue()
			}
			return total
		}
	}
	return 0
}

func TestOverdueSweeper_SweepOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg)
	r := newCountingRefresher()
	r.changed = 3

	s := NewOverdueSweeper(r, time.Hour, m, zerolog.Nop())

	changed, err := s.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce error: %v", err)
	}
	if changed != 3 {
		t.Errorf("changed = %d, want 3", changed)
	}

	r.mu.Lock()
	r.err = errors.New("db gone")
	r.mu.Unlock()
	if _, err := s.SweepOnce(context.Background()); err == nil {
		t.Error("SweepOnce should return the refresher error")
	}

	if got := gatherCounter(t, reg, "invoicer_overdue_sweeps_total"); got != 2 {
		t.Errorf("sweeps_total = %v, want 2", got)
	}
	if got := gatherCounter(t, reg, "invoicer_overdue_sweep_errors_total"); got != 1 {
		t.Errorf("sweep_errors_total = %v, want 1", got)
	}
}

func TestOverdueSweeper_StartSweepsImmediately(t *testing.T) {
	r := newCountingRefresher()
	s := NewOverdueSweeper(r, time.Hour, nil, zerolog.Nop())

	s.Start(context.Background())
	defer s.Stop()

	select {
	case <-r.called:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not run on start")
	}

	// A second Start is a no-op.
	s.Start(context.Background())
}

func TestOverdueSweeper_Ticks(t *testing.T) {
	r := newCountingRefresher()
	s := NewOverdueSweeper(r, 10*time.Millisecond, nil, zerolog.Nop())

	s.Start(context.Background())
	defer s.Stop()

	deadline := time.After(2 * time.Second)
	for r.Calls() < 3 {
		select {
		case <-r.called:
		case <-deadline:
			t.Fatalf("calls = %d, want at least 3", r.Calls())
		}
	}
}

func TestOverdueSweeper_StopWaits(t *testing.T) {
	r := newCountingRefresher()
	s := NewOverdueSweeper(r, 10*time.Millisecond, nil, zerolog.Nop())

	s.Start(context.Background())
	<-r.called
	s.Stop()

	calls := r.Calls()
	time.Sleep(50 * time.Millisecond)
	if got := r.Calls(); got != calls {
		t.Errorf("calls after Stop = %d, want %d", got, calls)
	}

	// Stopping twice is a no-op.
	s.Stop()
}

func TestOverdueSweeper_ContextCancel(t *testing.T) {
	r := newCountingRefresher()
	s := NewOverdueSweeper(r, time.Hour, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	<-r.called
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after context cancel")
	}
}

func TestOverdueSweeper_SetInterval(t *testing.T) {
	tests := []struct {
		name    string
		initial time.Duration
		set     []time.Duration
		want    time.Duration
	}{
		{"default when zero", 0, nil, time.Hour},
		{"change", time.Hour, []time.Duration{time.Minute}, time.Minute},
		{"ignores non-positive", time.Hour, []time.Duration{0, -time.Second}, time.Hour},
		{"latest wins", time.Hour, []time.Duration{time.Minute, 2 * time.Minute, 3 * time.Minute}, 3 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewOverdueSweeper(newCountingRefresher(), tt.initial, nil, zerolog.Nop())
			for _, d := range tt.set {
				s.SetInterval(d)
			}
			if got := s.Interval(); got != tt.want {
				t.Errorf("Interval() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverdueSweeper_SetIntervalWhileRunning(t *testing.T) {
	r := newCountingRefresher()
	s := NewOverdueSweeper(r, time.Hour, nil, zerolog.Nop())

	s.Start(context.Background())
	defer s.Stop()
	<-r.called

	s.SetInterval(10 * time.Millisecond)

	select {
	case <-r.called:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not pick up the shorter interval")
	}
}
