package resilience

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrAllFailed is returned when no entry in a [FallbackGroup] could serve a
// request, whether because providers failed or their circuits were open.
var ErrAllFailed = errors.New("all providers failed")

// FallbackConfig tunes the breaker created for each entry in a
// [FallbackGroup]. The zero value selects the package defaults.
type FallbackConfig struct {
	// FailureThreshold is the number of consecutive failures before an
	// entry's circuit opens.
	FailureThreshold int

	// Cooldown is how long a tripped entry rests before probing resumes.
	Cooldown time.Duration

	// ProbeMax is the number of successful probes required to close a
	// tripped entry's circuit again.
	ProbeMax int
}

type entry[T any] struct {
	name    string
	value   T
	breaker *Breaker
}

// FallbackGroup holds interchangeable providers in preference order, each
// behind its own [Breaker]. It is safe for concurrent use once all entries
// are registered.
type FallbackGroup[T any] struct {
	entries []entry[T]
	cfg     FallbackConfig
}

// NewFallbackGroup creates a group with primary as its first entry. Further
// entries are registered with [FallbackGroup.AddFallback].
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	g := &FallbackGroup[T]{cfg: cfg}
	g.AddFallback(primaryName, primary)
	return g
}

// AddFallback appends a provider. Entries are tried in registration order.
func (g *FallbackGroup[T]) AddFallback(name string, value T) {
	g.entries = append(g.entries, entry[T]{
		name:    name,
		value:   value,
		breaker: NewBreaker(name, g.cfg.FailureThreshold, g.cfg.Cooldown, g.cfg.ProbeMax),
	})
}

// Names returns the entry names in trial order.
func (g *FallbackGroup[T]) Names() []string {
	names := make([]string, len(g.entries))
	for i, e := range g.entries {
		names[i] = e.name
	}
	return names
}

// Len returns the number of registered entries.
func (g *FallbackGroup[T]) Len() int {
	return len(g.entries)
}

// Execute tries fn against each admitted entry in order until one succeeds.
func (g *FallbackGroup[T]) Execute(fn func(T) error) error {
	_, _, err := ExecuteWithResult(g, func(v T) (struct{}, error) {
		return struct{}{}, fn(v)
	})
	return err
}

// ExecuteWithResult tries fn against each entry in order until one succeeds,
// returning the result and the name of the entry that produced it. Entries
// with open circuits are skipped without being contacted. When nothing
// succeeds the returned error wraps [ErrAllFailed] with the last provider
// error. This is a package-level function because Go does not support
// method-level type parameters.
func ExecuteWithResult[T any, R any](g *FallbackGroup[T], fn func(T) (R, error)) (R, string, error) {
	var (
		lastErr error
		zero    R
	)
	for i := range g.entries {
		e := &g.entries[i]
		if !e.breaker.Allow() {
			slog.Debug("provider skipped, circuit open", "provider", e.name)
			continue
		}

		result, err := fn(e.value)
		e.breaker.Report(err)
		if err == nil {
			return result, e.name, nil
		}
		lastErr = err
		slog.Warn("provider failed, trying next",
			"provider", e.name,
			"error", err)
	}

	if lastErr == nil {
		return zero, "", fmt.Errorf("%w: every circuit open", ErrAllFailed)
	}
	return zero, "", fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
