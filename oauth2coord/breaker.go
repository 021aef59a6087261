// Copyright 2015 Comcast Cable Communications Management, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// End Copyright

package oauth2coord

import (
	"sync"
	"time"
)

// breakerState is one of CLOSED, OPEN, HALF_OPEN (spec §4.D).
type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

func (s breakerState) String() string {
	switch s {
	case breakerClosed:
		return "CLOSED"
	case breakerOpen:
		return "OPEN"
	case breakerHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

const (
	// breakerMinCalls is the minimum sliding-window sample size before a
	// failure rate is meaningful (spec §4.D: "at least 3 calls").
	breakerMinCalls = 3
	// breakerOpenDuration is how long the breaker stays OPEN before moving
	// to HALF_OPEN. In HALF_OPEN, Allow admits every call until the next
	// recorded outcome closes or re-opens the breaker; it does not limit
	// admission to a single trial call.
	breakerOpenDuration = 60 * time.Second
)

// CircuitBreaker is a failure-rate breaker: spec §4.D trips it at 100%
// failures over a window of at least breakerMinCalls calls, the same
// CLOSED/OPEN/HALF_OPEN lifecycle as rulio's Breaker interface (core/
// breaker.go), but keyed on a failure ratio rather than a call rate.
// rulio's OutboundBreaker slides a fixed-size count array across a rate
// window; this breaker instead keeps a small ring of pass/fail outcomes
// and recomputes the ratio on demand, since "100% failure" only needs to
// know the window's outcomes, not their timing.
type CircuitBreaker struct {
	mu sync.Mutex

	state      breakerState
	openedAt   time.Time
	outcomes   []bool // true = success; bounded ring, most-recent last
	windowSize int
}

// NewCircuitBreaker makes a CLOSED breaker with the given sliding-window
// sample size (at least breakerMinCalls).
func NewCircuitBreaker(windowSize int) *CircuitBreaker {
	if windowSize < breakerMinCalls {
		windowSize = breakerMinCalls
	}
	return &CircuitBreaker{state: breakerClosed, windowSize: windowSize}
}

// Allow reports whether a call may proceed right now, transitioning OPEN
// to HALF_OPEN once breakerOpenDuration has elapsed.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case breakerClosed:
		return true
	case breakerHalfOpen:
		return true
	case breakerOpen:
		if time.Since(b.openedAt) >= breakerOpenDuration {
			b.state = breakerHalfOpen
			return true
		}
		return false
	}
	return false
}

// RecordSuccess reports a successful call's outcome.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == breakerHalfOpen {
		b.state = breakerClosed
		b.outcomes = b.outcomes[:0]
		return
	}
	b.record(true)
}

// RecordFailure reports a failed call's outcome, tripping the breaker OPEN
// if the window's failure rate has reached 100%.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == breakerHalfOpen {
		b.trip()
		return
	}
	b.record(false)
	if b.failureRateLocked() {
		b.trip()
	}
}

func (b *CircuitBreaker) record(success bool) {
	b.outcomes = append(b.outcomes, success)
	if len(b.outcomes) > b.windowSize {
		b.outcomes = b.outcomes[len(b.outcomes)-b.windowSize:]
	}
}

func (b *CircuitBreaker) failureRateLocked() bool {
	if len(b.outcomes) < breakerMinCalls {
		return false
	}
	for _, ok := range b.outcomes {
		if ok {
			return false
		}
	}
	return true
}

func (b *CircuitBreaker) trip() {
	b.state = breakerOpen
	b.openedAt = time.Now()
	b.outcomes = b.outcomes[:0]
}

// Status reports the breaker's current state, mirroring the shape of
// rulio's BreakerStatus (core/breaker.go), adapted to a failure-rate
// breaker's notion of load (fraction of the window that failed so far).
type Status struct {
	State breakerState
	Load  float64
}

func (b *CircuitBreaker) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	var failed int
	for _, ok := range b.outcomes {
		if !ok {
			failed++
		}
	}
	var load float64
	if len(b.outcomes) > 0 {
		load = float64(failed) / float64(len(b.outcomes))
	}
	return Status{State: b.state, Load: load}
}
