// Package ratelimit provides sliding-window admission control backed by the
// record store.
//
// Each admitted request inserts one timestamped row; admission counts live
// rows in the trailing window rather than maintaining counters, so a crash
// between steps loses nothing. Two scopes are checked: the calling identity
// and the whole service. The limiter is approximate by design: two
// concurrent requests at count = limit-1 may both be admitted.
package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mwhited/typoscope/internal/logger"
)

const (
	// Window is the trailing span requests are counted over.
	Window = time.Hour

	// RetryAfterSeconds is the hint returned with every rejection.
	RetryAfterSeconds = 3600

	DefaultIdentityLimit = 100
	DefaultGlobalLimit   = 1000
)

// Policy selects how the limiter treats admissions.
type Policy string

const (
	// PolicyEnforcing applies both window checks and records admissions.
	PolicyEnforcing Policy = "enforcing"
	// PolicyAlwaysAdmit disables limiting entirely; nothing is written.
	// Used in development and test environments.
	PolicyAlwaysAdmit Policy = "always-admit"
)

// Store is the row-level persistence the limiter needs. *db.DB satisfies it.
type Store interface {
	InsertRateWindow(ctx context.Context, identity string, windowStart, windowEnd time.Time) error
	CountIdentityWindowsSince(ctx context.Context, identity string, since time.Time) (int, error)
	CountAllWindowsSince(ctx context.Context, since time.Time) (int, error)
	DeleteRateWindowsEndedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config holds the limiter's limits and policy.
type Config struct {
	IdentityLimit int
	GlobalLimit   int
	Policy        Policy
}

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed           bool
	Limit             int
	Remaining         int
	ResetAt           time.Time
	RetryAfterSeconds int
}

// Limiter evaluates admissions against the store.
type Limiter struct {
	store Store
	cfg   Config
	log   zerolog.Logger
}

// New creates a limiter. Zero limits fall back to the defaults.
func New(store Store, cfg Config) *Limiter {
	if cfg.IdentityLimit <= 0 {
		cfg.IdentityLimit = DefaultIdentityLimit
	}
	if cfg.GlobalLimit <= 0 {
		cfg.GlobalLimit = DefaultGlobalLimit
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyEnforcing
	}
	return &Limiter{
		store: store,
		cfg:   cfg,
		log:   logger.WithComponent("ratelimit"),
	}
}

// Admit decides whether a request from identity may proceed at time now.
//
// Store failures fail open: the request is allowed and the error is only
// logged, never surfaced as a rejection.
func (l *Limiter) Admit(ctx context.Context, identity string, now time.Time) Decision {
	if l.cfg.Policy == PolicyAlwaysAdmit {
		return Decision{
			Allowed:   true,
			Limit:     l.cfg.IdentityLimit,
			Remaining: l.cfg.IdentityLimit - 1,
			ResetAt:   now.Add(Window),
		}
	}

	windowStart := now.Add(-Window)
	resetAt := now.Add(Window)

	// Opportunistic garbage collection. Counting below re-derives truth
	// from live rows, so a failure here is harmless.
	if _, err := l.store.DeleteRateWindowsEndedBefore(ctx, windowStart); err != nil {
		l.log.Warn().Err(err).Msg("rate window cleanup failed")
	}

	identityCount, err := l.store.CountIdentityWindowsSince(ctx, identity, windowStart)
	if err != nil {
		return l.failOpen(err, resetAt)
	}
	if identityCount >= l.cfg.IdentityLimit {
		return Decision{
			Allowed:           false,
			Limit:             l.cfg.IdentityLimit,
			Remaining:         0,
			ResetAt:           resetAt,
			RetryAfterSeconds: RetryAfterSeconds,
		}
	}

	// Global scarcity blocks even an identity under its own limit.
	globalCount, err := l.store.CountAllWindowsSince(ctx, windowStart)
	if err != nil {
		return l.failOpen(err, resetAt)
	}
	if globalCount >= l.cfg.GlobalLimit {
		return Decision{
			Allowed:           false,
			Limit:             l.cfg.GlobalLimit,
			Remaining:         0,
			ResetAt:           resetAt,
			RetryAfterSeconds: RetryAfterSeconds,
		}
	}

	if err := l.store.InsertRateWindow(ctx, identity, now, now.Add(Window)); err != nil {
		return l.failOpen(err, resetAt)
	}

	remaining := l.cfg.IdentityLimit - identityCount - 1
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   true,
		Limit:     l.cfg.IdentityLimit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}

// failOpen allows the request when the store is unreachable. Availability
// wins over strictness.
func (l *Limiter) failOpen(err error, resetAt time.Time) Decision {
	l.log.Error().Err(err).Msg("rate limit evaluation failed, admitting request")
	return Decision{
		Allowed:   true,
		Limit:     l.cfg.IdentityLimit,
		Remaining: l.cfg.IdentityLimit - 1,
		ResetAt:   resetAt,
	}
}
