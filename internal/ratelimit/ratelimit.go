// Package ratelimit bounds how often a caller may trigger the showcase
// publish path, using a sliding window of request instants per identity.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Defaults for the publish path: five requests per trailing minute.
const (
	DefaultWindow   = 60 * time.Second
	DefaultRequests = 5
)

// ErrRateLimited is returned when an identity has exhausted its window
// budget. Errors returned by Admit wrap it and include a wait hint.
var ErrRateLimited = errors.New("too many requests")

// Limiter admits at most `requests` events per identity in any trailing
// `window` interval. Identities are never evicted; the map grows with the
// number of distinct callers seen.
type Limiter struct {
	mu       sync.Mutex
	windows  map[string][]time.Time
	window   time.Duration
	requests int
	now      func() time.Time
}

// New creates a limiter with the given window and per-window budget.
func New(window time.Duration, requests int) *Limiter {
	return &Limiter{
		windows:  make(map[string][]time.Time),
		window:   window,
		requests: requests,
		now:      time.Now,
	}
}

// Admit records one request for identity if its budget allows it. On
// rejection nothing is recorded and the returned error wraps
// ErrRateLimited with the time until the oldest admission slides out of
// the window.
func (l *Limiter) Admit(identity string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	instants := l.windows[identity]
	for len(instants) > 0 && instants[0].Before(cutoff) {
		instants = instants[1:]
	}

	if len(instants) >= l.requests {
		wait := l.window
		if len(instants) > 0 {
			wait = instants[0].Add(l.window).Sub(now)
		}
		l.windows[identity] = instants
		return fmt.Errorf("%w: retry in %s", ErrRateLimited, wait.Round(time.Second))
	}

	l.windows[identity] = append(instants, now)
	return nil
}
