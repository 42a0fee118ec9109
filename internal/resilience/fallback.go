package resilience

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrWong99/soundalike/internal/observe"
)

// ErrAllFailed is returned when every member of a [Group] failed or was
// skipped by its breaker.
var ErrAllFailed = errors.New("resilience: all providers failed")

type member[T any] struct {
	name    string
	value   T
	breaker *Breaker
}

// Group holds a primary and any number of fallbacks of the same type, each
// guarded by its own [Breaker]. Members are tried in registration order.
// Members must be added before the group is shared between goroutines.
type Group[T any] struct {
	members []member[T]
	cfg     BreakerConfig
}

// NewGroup returns a Group whose first member is primary. cfg is used as the
// template for every member's breaker; its Name is replaced by the member
// name.
func NewGroup[T any](name string, primary T, cfg BreakerConfig) *Group[T] {
	g := &Group[T]{cfg: cfg}
	g.Add(name, primary)
	return g
}

// Add appends a fallback.
func (g *Group[T]) Add(name string, value T) {
	cfg := g.cfg
	cfg.Name = name
	g.members = append(g.members, member[T]{name: name, value: value, breaker: NewBreaker(cfg)})
}

// Primary returns the first member.
func (g *Group[T]) Primary() T { return g.members[0].value }

// States reports the breaker state of every member, keyed by name.
func (g *Group[T]) States() map[string]State {
	out := make(map[string]State, len(g.members))
	for _, m := range g.members {
		out[m.name] = m.breaker.State()
	}
	return out
}

// Call runs fn against each member of g in order until one succeeds. Members
// with an open breaker are skipped. Once ctx is done no further member is
// tried. The returned error wraps both [ErrAllFailed] and the last member
// error, so callers can still match context.DeadlineExceeded and friends.
//
// Call is a function rather than a method because methods cannot declare
// type parameters.
func Call[T, R any](ctx context.Context, g *Group[T], fn func(context.Context, T) (R, error)) (R, error) {
	var (
		zero    R
		lastErr error
	)
	log := observe.Logger(ctx)
	for i := range g.members {
		m := &g.members[i]
		if i > 0 && ctx.Err() != nil {
			break
		}

		var out R
		err := m.breaker.Execute(ctx, func(ctx context.Context) error {
			var err error
			out, err = fn(ctx, m.value)
			return err
		})
		if err == nil {
			if i > 0 {
				log.Info("resilience: served by fallback", "provider", m.name)
			}
			return out, nil
		}

		lastErr = err
		if errors.Is(err, ErrCircuitOpen) {
			log.Debug("resilience: skipping provider", "provider", m.name, "reason", "circuit open")
		} else {
			log.Warn("resilience: provider failed", "provider", m.name, "err", err)
		}
	}
	return zero, fmt.Errorf("%w: %w", ErrAllFailed, lastErr)
}
