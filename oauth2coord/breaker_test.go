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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCircuitBreakerStaysClosedBelowWindow(t *testing.T) {
	b := NewCircuitBreaker(3)
	b.RecordFailure()
	b.RecordFailure()
	assert.True(t, b.Allow())
	assert.Equal(t, breakerClosed, b.Status().State)
}

func TestCircuitBreakerTripsAt100PercentFailure(t *testing.T) {
	b := NewCircuitBreaker(3)
	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.Allow())
	assert.Equal(t, breakerOpen, b.Status().State)
}

func TestCircuitBreakerAnySuccessPreventsTrip(t *testing.T) {
	b := NewCircuitBreaker(3)
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	assert.True(t, b.Allow())
}

func TestCircuitBreakerHalfOpenOnSuccessCloses(t *testing.T) {
	b := NewCircuitBreaker(3)
	b.RecordFailure()
	b.RecordFailure()
	b.RecordFailure()
	b.state = breakerHalfOpen // simulate breakerOpenDuration elapsed
	b.RecordSuccess()
	assert.Equal(t, breakerClosed, b.Status().State)
}

func TestCircuitBreakerHalfOpenOnFailureReopens(t *testing.T) {
	b := NewCircuitBreaker(3)
	b.state = breakerHalfOpen
	b.RecordFailure()
	assert.Equal(t, breakerOpen, b.Status().State)
}
