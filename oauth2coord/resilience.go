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
	"context"
	"time"

	"golang.org/x/time/rate"
)

const (
	retryMaxAttempts  = 3
	retryInitialDelay = 1 * time.Second
)

// isTransient reports whether err is an I/O-level failure (network error,
// deadline exceeded) that retry should paper over, as opposed to an
// HTTP-level classified error (credentials/configuration/endpoint), which
// spec §4.D says must NOT be retried.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	// Classified Problems (InvalidCredentialsError, etc.) are never
	// transient; anything else reaching here is a transport-level error.
	// ServiceUnavailableError is also excluded: once the HTTP layer has
	// classified a response (5xx, or an OAuth server_error), that is an
	// HTTP-level classification per spec §4.D, not the "I/O error or
	// timeout" retry retries are meant for.
	switch err.(type) {
	case *InvalidCredentialsError, *InvalidConfigurationError, *InvalidEndpointError, *ServiceUnavailableError:
		return false
	}
	return true
}

// retryRefresh runs do up to retryMaxAttempts times with exponential
// backoff (initial delay retryInitialDelay), retrying only transient
// errors, per spec §4.D. It stops early (without consuming a retry) if
// ctx is done.
func retryRefresh(ctx context.Context, do func(context.Context) (Token, error)) (Token, error) {
	delay := retryInitialDelay
	var lastErr error
	for attempt := 1; attempt <= retryMaxAttempts; attempt++ {
		tok, err := do(ctx)
		if err == nil {
			return tok, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			// Context canceled or its deadline exceeded: no point
			// retrying, and doing so would mask close()'s cancellation
			// as an ordinary transient failure.
			return Token{}, ctx.Err()
		}
		if !isTransient(err) || attempt == retryMaxAttempts {
			return Token{}, err
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Token{}, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return Token{}, lastErr
}

// refreshLimiter gates how often refresh attempts may even be dispatched,
// independent of the circuit breaker's failure-rate trip: it is a
// token-bucket admission control in front of the breaker, not a
// replacement for it (SPEC_FULL.md §3's dependency table).
type refreshLimiter struct {
	limiter *rate.Limiter
}

// newRefreshLimiter allows up to ratePerSecond refresh attempts per
// second, bursting up to burst.
func newRefreshLimiter(ratePerSecond float64, burst int) *refreshLimiter {
	return &refreshLimiter{limiter: rate.NewLimiter(rate.Limit(ratePerSecond), burst)}
}

func (l *refreshLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
