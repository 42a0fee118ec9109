// Package resilience keeps oracle traffic flowing when an LLM backend
// misbehaves.
//
// [Breaker] is a three-state circuit breaker (closed, open, half-open) that
// stops hammering a backend after repeated failures. [Group] orders several
// backends of the same kind, each behind its own breaker, and moves on to the
// next one when a call fails. [LLMFallback] packages a Group of
// [llm.Provider] values as a single provider for the oracle client.
//
// Cancellation by the caller is never held against a backend: when a sibling
// branch fails and the generation is aborted, in-flight calls return
// context.Canceled without tripping any breaker.
//
// All types are safe for concurrent use.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrWong99/soundalike/internal/observe"
)

// ErrCircuitOpen is returned by [Breaker.Execute] while the breaker rejects
// calls.
var ErrCircuitOpen = errors.New("resilience: circuit open")

// State is the operating mode of a [Breaker].
type State int

const (
	// StateClosed forwards every call.
	StateClosed State = iota

	// StateOpen rejects calls with [ErrCircuitOpen] until the cool-down
	// elapses.
	StateOpen

	// StateHalfOpen lets a limited number of probe calls through. Enough
	// successes close the breaker; one failure re-opens it.
	StateHalfOpen
)

// String returns the state name used in logs and readiness output.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig holds the tuning knobs of a [Breaker].
type BreakerConfig struct {
	// Name labels log lines. Usually the provider name.
	Name string

	// MaxFailures is the number of consecutive failures that opens the
	// breaker. Default: 5.
	MaxFailures int

	// Cooldown is how long the breaker stays open. Default: 30s.
	Cooldown time.Duration

	// Probes is the number of successful half-open calls needed to close
	// again. Default: 3.
	Probes int

	// Counts decides whether err is held against the backend. Default:
	// every error except caller cancellation.
	Counts func(err error) bool
}

// Breaker implements the circuit breaker pattern.
type Breaker struct {
	name        string
	maxFailures int
	cooldown    time.Duration
	probes      int
	counts      func(error) bool
	now         func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	openedAt  time.Time
	inFlight  int // half-open probes started
	succeeded int // half-open probes that succeeded
}

// NewBreaker returns a closed [Breaker]. Zero config fields take defaults.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Probes <= 0 {
		cfg.Probes = 3
	}
	if cfg.Counts == nil {
		cfg.Counts = countsAgainstBackend
	}
	return &Breaker{
		name:        cfg.Name,
		maxFailures: cfg.MaxFailures,
		cooldown:    cfg.Cooldown,
		probes:      cfg.Probes,
		counts:      cfg.Counts,
		now:         time.Now,
	}
}

// countsAgainstBackend treats everything but caller cancellation as a
// backend failure.
func countsAgainstBackend(err error) bool {
	return !errors.Is(err, context.Canceled)
}

// Execute runs fn unless the breaker is open. Errors from fn are returned
// unchanged.
func (b *Breaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	probe, err := b.admit(ctx)
	if err != nil {
		return err
	}

	err = fn(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	switch {
	case err == nil:
		b.onSuccess(ctx, probe)
	case b.counts(err):
		b.onFailure(ctx, probe)
	case probe:
		// Neutral outcome; give the probe slot back.
		b.inFlight--
	}
	return err
}

// admit decides whether a call may proceed and whether it is a probe.
func (b *Breaker) admit(ctx context.Context) (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen {
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false, ErrCircuitOpen
		}
		b.transition(ctx, StateHalfOpen)
		b.inFlight, b.succeeded = 0, 0
	}
	if b.state == StateHalfOpen {
		if b.inFlight >= b.probes {
			return false, ErrCircuitOpen
		}
		b.inFlight++
		return true, nil
	}
	return false, nil
}

// onSuccess must be called with b.mu held.
func (b *Breaker) onSuccess(ctx context.Context, probe bool) {
	if !probe {
		b.failures = 0
		return
	}
	b.succeeded++
	if b.succeeded >= b.probes {
		b.failures = 0
		b.transition(ctx, StateClosed)
	}
}

// onFailure must be called with b.mu held.
func (b *Breaker) onFailure(ctx context.Context, probe bool) {
	if probe {
		b.openedAt = b.now()
		b.transition(ctx, StateOpen)
		return
	}
	b.failures++
	if b.state == StateClosed && b.failures >= b.maxFailures {
		b.openedAt = b.now()
		b.transition(ctx, StateOpen)
	}
}

// transition must be called with b.mu held.
func (b *Breaker) transition(ctx context.Context, to State) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	log := observe.Logger(ctx)
	if to == StateOpen {
		log.Warn("resilience: breaker opened", "name", b.name, "from", from.String(), "failures", b.failures)
		return
	}
	log.Info("resilience: breaker state change", "name", b.name, "from", from.String(), "to", to.String())
}

// State reports the current state. An open breaker whose cool-down has
// elapsed reports [StateHalfOpen]; the transition itself happens on the next
// call.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		return StateHalfOpen
	}
	return b.state
}

// Reset forces the breaker closed and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.transition(context.Background(), StateClosed)
	b.failures, b.inFlight, b.succeeded = 0, 0, 0
}
