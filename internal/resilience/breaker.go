// Package resilience implements provider failover for the speech relays.
//
// A [FallbackGroup] holds an ordered list of interchangeable providers, each
// guarded by its own [Breaker]. Requests walk the list in preference order;
// a provider whose breaker has tripped is skipped without being contacted, so
// a dead upstream costs nothing once detected. The group reports which entry
// served a request so the provider name can be surfaced to clients.
//
// All types are safe for concurrent use.
package resilience

import (
	"log/slog"
	"sync"
	"time"
)

// State is the operating mode of a [Breaker].
type State int

const (
	// Closed admits every call.
	Closed State = iota

	// Open rejects every call until the cooldown elapses.
	Open

	// HalfOpen admits a limited number of probe calls to test recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker tuning defaults. A provider is written off after three consecutive
// failures, rested for half a minute, then re-tested with two probes.
const (
	defaultThreshold = 3
	defaultCooldown  = 30 * time.Second
	defaultProbeMax  = 2
)

// Breaker is a three-state circuit breaker with a two-phase API: [Breaker.Allow]
// reserves a call slot and [Breaker.Report] settles its outcome. Splitting
// admission from settlement keeps the provider call itself outside the lock.
type Breaker struct {
	label     string
	threshold int
	cooldown  time.Duration
	probeMax  int

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probes   int
	probeOK  int
}

// NewBreaker creates a breaker labelled for log output. Non-positive tuning
// values fall back to the package defaults.
func NewBreaker(label string, threshold int, cooldown time.Duration, probeMax int) *Breaker {
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	if cooldown <= 0 {
		cooldown = defaultCooldown
	}
	if probeMax <= 0 {
		probeMax = defaultProbeMax
	}
	return &Breaker{
		label:     label,
		threshold: threshold,
		cooldown:  cooldown,
		probeMax:  probeMax,
	}
}

// Allow reports whether a call may proceed. In the open state it returns false
// until the cooldown has elapsed, then switches to half-open and admits up to
// probeMax probe calls. Every admitted call must be settled with [Breaker.Report].
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open {
		if time.Since(b.openedAt) < b.cooldown {
			return false
		}
		b.state = HalfOpen
		b.probes, b.probeOK = 0, 0
		slog.Info("circuit half-open, probing provider", "provider", b.label)
	}

	if b.state == HalfOpen {
		if b.probes >= b.probeMax {
			return false
		}
		b.probes++
	}
	return true
}

// Report settles the outcome of a call previously admitted by [Breaker.Allow].
func (b *Breaker) Report(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil {
		switch b.state {
		case HalfOpen:
			// One failed probe is enough; back to the cooldown.
			b.trip()
			slog.Warn("probe failed, circuit re-opened", "provider", b.label)
		case Closed:
			b.failures++
			if b.failures >= b.threshold {
				b.trip()
				slog.Warn("circuit opened",
					"provider", b.label,
					"consecutive_failures", b.failures)
			}
		}
		return
	}

	switch b.state {
	case HalfOpen:
		b.probeOK++
		if b.probeOK >= b.probeMax {
			b.reset()
			slog.Info("circuit closed after successful probes", "provider", b.label)
		}
	case Closed:
		b.failures = 0
	}
}

// trip and reset must be called with b.mu held.
func (b *Breaker) trip() {
	b.state = Open
	b.openedAt = time.Now()
}

func (b *Breaker) reset() {
	b.state = Closed
	b.failures = 0
	b.probes = 0
	b.probeOK = 0
}

// State returns the current state. An open breaker whose cooldown has elapsed
// reads as [HalfOpen]; the stored transition happens on the next Allow.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open && time.Since(b.openedAt) >= b.cooldown {
		return HalfOpen
	}
	return b.state
}

// Reset forces the breaker back to [Closed], clearing all counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reset()
}
