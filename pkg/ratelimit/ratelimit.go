// Package ratelimit tracks per-route and global throttling state for one
// connector's remote API. Rate-limit responses are absorbed here and never
// surface as errors: callers wait out the window and carry on.
package ratelimit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type routeState struct {
	limit     int
	remaining int
	reset     time.Time
}

// Limiter holds the throttling state for one connector. A single instance is
// shared by every automation processed within a tick, so all reads and
// writes happen under one mutex.
type Limiter struct {
	mu          sync.Mutex
	clock       clockwork.Clock
	routes      map[string]*routeState
	globalReset time.Time
	logger      *slog.Logger
}

// NewLimiter creates a limiter using the wall clock.
func NewLimiter(logger *slog.Logger) *Limiter {
	return NewLimiterWithClock(logger, clockwork.NewRealClock())
}

// NewLimiterWithClock creates a limiter with an injected clock so waits can
// be driven deterministically in tests.
func NewLimiterWithClock(logger *slog.Logger, clock clockwork.Clock) *Limiter {
	return &Limiter{
		clock:  clock,
		routes: make(map[string]*routeState),
		logger: logger.With("module", "ratelimit"),
	}
}

// WaitIfNeeded blocks until the route may issue a request again: first until
// any global reset has passed, then until the route's own window resets when
// its budget is exhausted. Returns early with the context error on
// cancellation.
func (l *Limiter) WaitIfNeeded(ctx context.Context, route string) error {
	wait := l.waitDuration(route)
	if wait <= 0 {
		return nil
	}

	l.logger.Warn("rate limited, waiting",
		"route", route,
		"wait", wait.String(),
	)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.clock.After(wait):
		return nil
	}
}

func (l *Limiter) waitDuration(route string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if now.Before(l.globalReset) {
		return l.globalReset.Sub(now)
	}

	state, ok := l.routes[route]
	if ok && state.remaining <= 0 && now.Before(state.reset) {
		return state.reset.Sub(now)
	}

	return 0
}

// rateLimitBody is the 429 response payload: seconds to wait and whether the
// limit applies to every route.
type rateLimitBody struct {
	RetryAfter float64 `json:"retry_after"`
	Global     bool    `json:"global"`
}

// Update records the rate-limit outcome of one response. A 429 sets the
// global reset or zeroes the route's budget for retry_after seconds; any
// other response refreshes the route state from rate-limit headers when they
// are present.
func (l *Limiter) Update(route string, statusCode int, header http.Header, body []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()

	if statusCode == http.StatusTooManyRequests {
		limited := rateLimitBody{RetryAfter: 1}
		if len(body) > 0 {
			if err := json.Unmarshal(body, &limited); err != nil {
				l.logger.Warn("unparseable 429 body, assuming one second", "route", route, "error", err)
			}
		}

		reset := now.Add(time.Duration(limited.RetryAfter * float64(time.Second)))

		if limited.Global {
			l.globalReset = reset
			l.logger.Warn("global rate limit hit", "retry_after", limited.RetryAfter)

			return
		}

		state := l.route(route)
		state.remaining = 0

		if reset.After(state.reset) {
			state.reset = reset
		}

		l.logger.Warn("route rate limit hit", "route", route, "retry_after", limited.RetryAfter)

		return
	}

	limit := header.Get("X-RateLimit-Limit")
	if limit == "" {
		return
	}

	state := l.route(route)

	if parsed, err := strconv.Atoi(limit); err == nil {
		state.limit = parsed
	}

	if parsed, err := strconv.Atoi(header.Get("X-RateLimit-Remaining")); err == nil {
		state.remaining = parsed
	}

	if parsed, err := strconv.ParseFloat(header.Get("X-RateLimit-Reset"), 64); err == nil {
		state.reset = time.Unix(0, int64(parsed*float64(time.Second)))
	}
}

func (l *Limiter) route(name string) *routeState {
	state, ok := l.routes[name]
	if !ok {
		state = &routeState{remaining: 1}
		l.routes[name] = state
	}

	return state
}
