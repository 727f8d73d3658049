package alert

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeTicker struct {
	ch      chan time.Time
	stopped chan struct{}
	once    sync.Once
}

func newFakeTicker() *fakeTicker {
	return &fakeTicker{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.once.Do(func() { close(f.stopped) }) }

// recorder collects On/Off calls in order
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) on()  { r.add("on") }
func (r *recorder) off() { r.add("off") }

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func newTestPeriodic(t *testing.T, cycle int) (*Periodic, *fakeTicker, *recorder) {
	t.Helper()
	rec := &recorder{}
	p, err := NewPeriodic(time.Second, cycle, rec.on, rec.off)
	if err != nil {
		t.Fatalf("NewPeriodic() error = %v", err)
	}
	ft := newFakeTicker()
	p.newTicker = func(time.Duration) ticker { return ft }
	return p, ft, rec
}

func TestNewPeriodic_InvalidConfig(t *testing.T) {
	testCases := []struct {
		name     string
		interval time.Duration
		cycle    int
		want     error
	}{
		{"zero interval", 0, DefaultCycle, ErrInvalidInterval},
		{"negative interval", -time.Second, DefaultCycle, ErrInvalidInterval},
		{"zero cycle", time.Second, 0, ErrInvalidCycle},
		{"one tick cycle", time.Second, 1, ErrInvalidCycle},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPeriodic(tc.interval, tc.cycle, nil, nil)
			if !errors.Is(err, tc.want) {
				t.Errorf("NewPeriodic() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestPeriodic_OnOffPattern(t *testing.T) {
	p, ft, rec := newTestPeriodic(t, 4)
	p.Start(context.Background())

	// Two full cycles plus the first tick of a third
	for i := 0; i < 9; i++ {
		ft.ch <- time.Time{}
	}
	p.Stop()

	// Stop after an "on" tick turns the effect off
	want := []string{"on", "off", "on", "off", "on", "off"}
	got := rec.snapshot()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPeriodic_DefaultCycleFlashesOncePerCycle(t *testing.T) {
	p, ft, rec := newTestPeriodic(t, DefaultCycle)
	p.Start(context.Background())

	for i := 0; i < 2*DefaultCycle; i++ {
		ft.ch <- time.Time{}
	}
	p.Stop()

	if got := len(rec.snapshot()); got != 4 {
		t.Errorf("events over two cycles = %d, want 4", got)
	}
}

func TestPeriodic_StartIsIdempotent(t *testing.T) {
	p, _, _ := newTestPeriodic(t, 4)
	starts := 0
	inner := p.newTicker
	p.newTicker = func(d time.Duration) ticker {
		starts++
		return inner(d)
	}

	p.Start(context.Background())
	p.Start(context.Background())
	defer p.Stop()

	if starts != 1 {
		t.Errorf("ticker created %d times, want 1", starts)
	}
	if !p.Running() {
		t.Error("Running() = false after Start")
	}
}

func TestPeriodic_StopReleasesTicker(t *testing.T) {
	p, ft, _ := newTestPeriodic(t, 4)

	if p.Running() {
		t.Error("Running() = true before Start")
	}
	p.Start(context.Background())
	p.Stop()

	if p.Running() {
		t.Error("Running() = true after Stop")
	}
	select {
	case <-ft.stopped:
	default:
		t.Error("ticker not stopped")
	}

	// Stop on a stopped effect is a no-op
	p.Stop()
}

func TestPeriodic_ContextCancelStops(t *testing.T) {
	p, ft, _ := newTestPeriodic(t, 4)
	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()

	select {
	case <-ft.stopped:
	case <-time.After(time.Second):
		t.Fatal("effect did not stop after context cancellation")
	}
	// Let the goroutine finish closing done
	p.Stop()
	if p.Running() {
		t.Error("Running() = true after context cancellation")
	}
}

func TestPeriodic_Restart(t *testing.T) {
	p, ft, rec := newTestPeriodic(t, 4)

	p.Start(context.Background())
	ft.ch <- time.Time{}
	p.Stop()

	ft2 := newFakeTicker()
	p.newTicker = func(time.Duration) ticker { return ft2 }
	p.Start(context.Background())
	ft2.ch <- time.Time{}
	p.Stop()

	// Each start begins a fresh cycle
	want := []string{"on", "off", "on", "off"}
	got := rec.snapshot()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
}
