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

import "fmt"

// Problem mirrors transform.Problem: every error this package raises
// carries a fatality flag, following the same Condition/Problem split as
// rulio's core/errors.go.
type Problem interface {
	error
	IsFatal() bool
}

// InvalidCredentialsError means the token endpoint rejected the client's
// credentials or grant (OAuth invalid_client / invalid_grant, or HTTP
// 401/403).
type InvalidCredentialsError struct {
	Msg string
}

func NewInvalidCredentialsError(format string, args ...interface{}) *InvalidCredentialsError {
	return &InvalidCredentialsError{fmt.Sprintf(format, args...)}
}

func (e *InvalidCredentialsError) Error() string { return "invalid credentials: " + e.Msg }
func (e *InvalidCredentialsError) IsFatal() bool  { return true }

// InvalidConfigurationError means the Coordinator's Config failed
// validation, or the token endpoint reported the request itself was
// malformed (OAuth invalid_request / invalid_scope / unsupported_grant_type).
type InvalidConfigurationError struct {
	Msg string
}

func NewInvalidConfigurationError(format string, args ...interface{}) *InvalidConfigurationError {
	return &InvalidConfigurationError{fmt.Sprintf(format, args...)}
}

func (e *InvalidConfigurationError) Error() string { return "invalid configuration: " + e.Msg }
func (e *InvalidConfigurationError) IsFatal() bool  { return true }

// InvalidEndpointError means the token endpoint returned an otherwise
// unclassified 4xx.
type InvalidEndpointError struct {
	Msg string
}

func NewInvalidEndpointError(format string, args ...interface{}) *InvalidEndpointError {
	return &InvalidEndpointError{fmt.Sprintf(format, args...)}
}

func (e *InvalidEndpointError) Error() string { return "invalid endpoint: " + e.Msg }
func (e *InvalidEndpointError) IsFatal() bool  { return true }

// ServiceUnavailableError covers 5xx responses, OAuth server_error /
// temporarily_unavailable, timeouts, cancellation, and an open circuit
// breaker.
type ServiceUnavailableError struct {
	Msg string
}

func NewServiceUnavailableError(format string, args ...interface{}) *ServiceUnavailableError {
	return &ServiceUnavailableError{fmt.Sprintf(format, args...)}
}

func (e *ServiceUnavailableError) Error() string { return "service unavailable: " + e.Msg }
func (e *ServiceUnavailableError) IsFatal() bool  { return true }

// classifyOAuthError maps the OAuth2 "error" field (RFC 6749 §5.2) to one
// of the four surfaced Problem kinds, per spec §4.D.
func classifyOAuthError(code, description string) error {
	msg := code
	if description != "" {
		msg = fmt.Sprintf("%s: %s", code, description)
	}
	switch code {
	case "invalid_client", "invalid_grant":
		return NewInvalidCredentialsError("%s", msg)
	case "invalid_request", "invalid_scope", "unsupported_grant_type":
		return NewInvalidConfigurationError("%s", msg)
	case "server_error", "temporarily_unavailable":
		return NewServiceUnavailableError("%s", msg)
	default:
		return NewServiceUnavailableError("%s", msg)
	}
}
