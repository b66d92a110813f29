// Copyright (c) Microsoft Corporation.
// Licensed under the MIT License.
package wallclock

import (
	"context"
	"sync"
	"time"
)

type (
	// Manual is a WallClock whose time only moves when Advance is called.
	// Pending After channels, tickers and timeout contexts fire as their
	// deadlines are crossed.
	Manual struct {
		mu      sync.Mutex
		now     time.Time
		waiters []*waiter
	}

	waiter struct {
		at     time.Time
		every  time.Duration
		ch     chan time.Time
		fire   func()
		closed bool
	}

	manualTicker struct {
		clock *Manual
		w     *waiter
	}
)

// NewManual creates a manual clock starting at the given time.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

// Install replaces Instance with the manual clock and returns a function that
// restores the previous clock.
func (m *Manual) Install() (restore func()) {
	prev := Instance
	Instance = m
	return func() { Instance = prev }
}

// Now returns the current manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// After returns a channel that receives once the clock has advanced by d.
func (m *Manual) After(d time.Duration) <-chan time.Time {
	w := &waiter{ch: make(chan time.Time, 1)}
	m.add(w, d)
	return w.ch
}

// NewTicker returns a ticker that fires every d of manual time. Ticks that
// are not consumed are dropped, as with time.Ticker.
func (m *Manual) NewTicker(d time.Duration) Ticker {
	w := &waiter{every: d, ch: make(chan time.Time, 1)}
	m.add(w, d)
	return &manualTicker{m, w}
}

// WithTimeoutCause returns a context cancelled with cause once the clock has
// advanced by timeout.
func (m *Manual) WithTimeoutCause(
	parent context.Context,
	timeout time.Duration,
	cause error,
) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(parent)
	w := &waiter{fire: func() { cancel(cause) }}
	m.add(w, timeout)
	return ctx, func() {
		m.remove(w)
		cancel(context.Canceled)
	}
}

// Advance moves the clock forward, firing everything that came due.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	now := m.now

	var due []func()
	keep := m.waiters[:0]
	for _, w := range m.waiters {
		if w.closed {
			continue
		}
		if w.at.After(now) {
			keep = append(keep, w)
			continue
		}

		if w.fire != nil {
			due = append(due, w.fire)
			continue
		}

		select {
		case w.ch <- now:
		default:
		}

		if w.every > 0 {
			for !w.at.After(now) {
				w.at = w.at.Add(w.every)
			}
			keep = append(keep, w)
		}
	}
	m.waiters = keep
	m.mu.Unlock()

	for _, f := range due {
		f()
	}
}

// Pending reports how many timers, tickers and timeouts are outstanding.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiters)
}

func (m *Manual) add(w *waiter, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.at = m.now.Add(d)
	m.waiters = append(m.waiters, w)
}

func (m *Manual) remove(w *waiter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w.closed = true
}

func (t *manualTicker) C() <-chan time.Time {
	return t.w.ch
}

func (t *manualTicker) Stop() {
	t.clock.remove(t.w)
}
