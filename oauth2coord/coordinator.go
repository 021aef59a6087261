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

// Package oauth2coord coordinates concurrent refreshes of an OAuth2
// access token: at most one refresh HTTP request is ever in flight per
// Coordinator, every caller waiting on that refresh observes the same
// outcome, and a failing downstream trips a circuit breaker rather than
// being hammered by every waiter individually.
package oauth2coord

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ajaygodbole7/fluxmap/transform"
)

const refreshKey = "refresh"

// CoordinatorStats is a read-only snapshot of a Coordinator's internal
// state, recovered from rulio's BreakerStatus pattern (core/breaker.go) as
// a non-goal-compatible observability addition (SPEC_FULL.md §5).
type CoordinatorStats struct {
	CachedTokenExpiresAt time.Time
	BreakerState         string
	BreakerLoad          float64
	RefreshAttempts      int64
	RefreshFailures      int64
}

// Coordinator serves get_token() calls against a single OAuth2 token
// endpoint, refreshing the cached token proactively and collapsing
// concurrent refreshes into one HTTP request (spec §4.B). The zero value
// is not usable; build one with NewCoordinator.
type Coordinator struct {
	cfg       *Config
	requester *tokenRequester
	breaker   *CircuitBreaker
	limiter   *refreshLimiter
	logger    transform.Logger

	tokenMu sync.RWMutex
	token   Token

	group singleflight.Group

	cancelMu     sync.Mutex
	activeCancel context.CancelFunc

	closed atomic.Bool

	attempts atomic.Int64
	failures atomic.Int64
}

// CoordinatorOption configures optional Coordinator collaborators.
type CoordinatorOption func(*Coordinator)

// WithHTTPClient injects an *http.Client (for tests, or to reuse a shared
// client elsewhere in the process). If not given, the Coordinator creates
// its own, sized by cfg.HTTPTimeout.
func WithHTTPClient(client *http.Client) CoordinatorOption {
	return func(c *Coordinator) { c.requester = newTokenRequester(client, c.cfg) }
}

// WithLogger attaches a transform.Logger; NullLogger is the default.
func WithLogger(l transform.Logger) CoordinatorOption {
	return func(c *Coordinator) { c.logger = l }
}

// WithRefreshRateLimit caps how many refresh attempts per second the
// Coordinator will dispatch, independent of the circuit breaker.
func WithRefreshRateLimit(perSecond float64, burst int) CoordinatorOption {
	return func(c *Coordinator) { c.limiter = newRefreshLimiter(perSecond, burst) }
}

// NewCoordinator builds a Coordinator over cfg, starting with the invalid
// sentinel token and a CLOSED circuit breaker (spec §3.4).
func NewCoordinator(cfg *Config, opts ...CoordinatorOption) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Coordinator{
		cfg:     cfg,
		token:   invalidToken(),
		breaker: NewCircuitBreaker(breakerMinCalls),
		limiter: newRefreshLimiter(10, 5),
		logger:  transform.NullLogger{},
	}
	c.requester = newTokenRequester(nil, cfg)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// GetToken implements spec §4.B's get_token algorithm.
func (c *Coordinator) GetToken(ctx context.Context) (string, error) {
	now := time.Now()

	c.tokenMu.RLock()
	cached := c.token
	c.tokenMu.RUnlock()
	if cached.isValid(now, c.cfg.RefreshThreshold) {
		return cached.Value, nil
	}

	if c.closed.Load() {
		return "", NewServiceUnavailableError("coordinator is closed")
	}

	if !c.breaker.Allow() {
		return "", NewServiceUnavailableError("circuit open; cached token expires at %s", cached.ExpiresAt.Format(time.RFC3339))
	}

	waitCtx, cancelWait := context.WithTimeout(ctx, c.cfg.HTTPTimeout)
	defer cancelWait()

	resCh := c.group.DoChan(refreshKey, func() (interface{}, error) {
		return c.doRefresh()
	})

	select {
	case res := <-resCh:
		if res.Err != nil {
			c.logger.Log(transform.WARN, "event", "refresh_failed", "error", res.Err.Error())
			return "", res.Err
		}
		tok := res.Val.(Token)
		return tok.Value, nil

	case <-waitCtx.Done():
		c.cancelActiveRefresh()
		if ctx.Err() != nil {
			return "", NewServiceUnavailableError("canceled")
		}
		return "", NewServiceUnavailableError("timed out waiting for refresh")
	}
}

// doRefresh performs one actual HTTP refresh (retried per spec §4.D),
// updates the cache on success, and records the outcome on the circuit
// breaker. It runs inside the singleflight group, so only one goroutine
// at a time executes it per Coordinator.
func (c *Coordinator) doRefresh() (interface{}, error) {
	refreshCtx, cancel := context.WithTimeout(context.Background(), c.cfg.HTTPTimeout)
	c.setActiveCancel(cancel)
	defer func() {
		c.setActiveCancel(nil)
		cancel()
	}()

	if err := c.limiter.Wait(refreshCtx); err != nil {
		return Token{}, NewServiceUnavailableError("rate limited: %s", err)
	}

	c.attempts.Add(1)
	tok, err := retryRefresh(refreshCtx, func(ctx context.Context) (Token, error) {
		return c.requester.requestToken(ctx)
	})
	if err != nil {
		c.failures.Add(1)
		c.breaker.RecordFailure()
		switch refreshCtx.Err() {
		case context.Canceled:
			return Token{}, NewServiceUnavailableError("canceled")
		case context.DeadlineExceeded:
			return Token{}, NewServiceUnavailableError("timed out: %s", err)
		}
		return Token{}, classifyTransportError(err)
	}

	c.breaker.RecordSuccess()
	c.tokenMu.Lock()
	c.token = tok
	c.tokenMu.Unlock()
	c.logger.Metric("oauth2coord_refresh_success", 1)
	return tok, nil
}

// classifyTransportError passes already-classified Problems through
// unchanged and wraps anything else (a bare net/http transport error) as
// ServiceUnavailable, per spec §7: "internal retry/circuit events are
// logged but never thrown" as anything other than the four surfaced kinds.
func classifyTransportError(err error) error {
	switch err.(type) {
	case *InvalidCredentialsError, *InvalidConfigurationError, *InvalidEndpointError, *ServiceUnavailableError:
		return err
	default:
		return NewServiceUnavailableError("%s", err)
	}
}

func (c *Coordinator) setActiveCancel(cancel context.CancelFunc) {
	c.cancelMu.Lock()
	c.activeCancel = cancel
	c.cancelMu.Unlock()
}

func (c *Coordinator) cancelActiveRefresh() {
	c.cancelMu.Lock()
	cancel := c.activeCancel
	c.cancelMu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Close idempotently shuts the Coordinator down: any in-flight refresh is
// canceled, and subsequent GetToken calls fail fast.
func (c *Coordinator) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.cancelActiveRefresh()
	return nil
}

// Stats returns a read-only snapshot of the Coordinator's internal state.
func (c *Coordinator) Stats() CoordinatorStats {
	c.tokenMu.RLock()
	expiresAt := c.token.ExpiresAt
	c.tokenMu.RUnlock()
	status := c.breaker.Status()
	return CoordinatorStats{
		CachedTokenExpiresAt: expiresAt,
		BreakerState:         fmt.Sprint(status.State),
		BreakerLoad:          status.Load,
		RefreshAttempts:      c.attempts.Load(),
		RefreshFailures:      c.failures.Load(),
	}
}
