// internal/alert/periodic.go
// Package alert drives the visible effect raised after a detection.
package alert

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultCycle is the number of ticks in one on/off cycle
const DefaultCycle = 60

var (
	// ErrInvalidInterval indicates the tick interval must be positive
	ErrInvalidInterval = errors.New("alert interval must be positive")
	// ErrInvalidCycle indicates a cycle needs room for both the on and off tick
	ErrInvalidCycle = errors.New("alert cycle must be at least 2 ticks")
)

// ticker abstracts time.Ticker so tests can drive ticks by hand
type ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ *time.Ticker }

func (t realTicker) C() <-chan time.Time { return t.Ticker.C }

func newRealTicker(d time.Duration) ticker {
	return realTicker{time.NewTicker(d)}
}

// Periodic calls On at the first tick of every cycle and Off at the second.
// The cycle wraps after Cycle ticks, so with a 1s interval and the default
// cycle the effect flashes once a minute.
type Periodic struct {
	interval time.Duration
	cycle    int
	on       func()
	off      func()

	newTicker func(time.Duration) ticker

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPeriodic creates a stopped effect. Nil callbacks are treated as no-ops.
func NewPeriodic(interval time.Duration, cycle int, on, off func()) (*Periodic, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}
	if cycle < 2 {
		return nil, ErrInvalidCycle
	}
	if on == nil {
		on = func() {}
	}
	if off == nil {
		off = func() {}
	}
	return &Periodic{
		interval:  interval,
		cycle:     cycle,
		on:        on,
		off:       off,
		newTicker: newRealTicker,
	}, nil
}

// Start begins ticking in a new goroutine until ctx is cancelled or Stop is
// called. Starting a running effect is a no-op.
func (p *Periodic) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running() {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	t := p.newTicker(p.interval)
	go p.loop(ctx, t, p.done)
}

func (p *Periodic) loop(ctx context.Context, t ticker, done chan struct{}) {
	defer close(done)
	defer t.Stop()

	tick := 0
	lit := false
	for {
		select {
		case <-ctx.Done():
			if lit {
				p.off()
			}
			return
		case <-t.C():
			tick++
			switch tick {
			case 1:
				p.on()
				lit = true
			case 2:
				p.off()
				lit = false
			}
			if tick >= p.cycle {
				tick = 0
			}
		}
	}
}

// Stop halts the effect and waits for the ticking goroutine to exit.
// The effect is left off.
func (p *Periodic) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel = nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the effect is ticking
func (p *Periodic) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running()
}

func (p *Periodic) running() bool {
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}
