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

package transform

import "fmt"

// Problem is the common shape of every error this package raises, mirroring
// the Condition/Problem split rulio's core/errors.go uses for its own rule
// failures.
type Problem interface {
	error
	IsFatal() bool
}

// BadSourceError means the source document did not parse as JSON.
type BadSourceError struct {
	Msg string
}

func NewBadSourceError(format string, args ...interface{}) *BadSourceError {
	return &BadSourceError{fmt.Sprintf(format, args...)}
}

func (e *BadSourceError) Error() string { return "bad source: " + e.Msg }
func (e *BadSourceError) IsFatal() bool { return true }

// BadRulesError means the rules document was not a JSON object.
type BadRulesError struct {
	Msg string
}

func NewBadRulesError(format string, args ...interface{}) *BadRulesError {
	return &BadRulesError{fmt.Sprintf(format, args...)}
}

func (e *BadRulesError) Error() string { return "bad rules: " + e.Msg }
func (e *BadRulesError) IsFatal() bool { return true }

// FieldFailure wraps the error that aborted evaluation of one target field.
type FieldFailure struct {
	Field string
	Cause error
}

func NewFieldFailure(field string, cause error) *FieldFailure {
	return &FieldFailure{Field: field, Cause: cause}
}

func (e *FieldFailure) Error() string {
	return fmt.Sprintf("field %q: %s", e.Field, e.Cause)
}

func (e *FieldFailure) IsFatal() bool { return true }

// Unwrap lets errors.As/errors.Is see through to the underlying cause.
func (e *FieldFailure) Unwrap() error { return e.Cause }

// InvalidPathError means a path string did not parse per the JSONPath subset.
type InvalidPathError struct {
	Msg string
}

func NewInvalidPathError(format string, args ...interface{}) *InvalidPathError {
	return &InvalidPathError{fmt.Sprintf(format, args...)}
}

func (e *InvalidPathError) Error() string { return "invalid path: " + e.Msg }
func (e *InvalidPathError) IsFatal() bool { return true }

// MissingTypeError means a rule object had no "type" discriminator.
type MissingTypeError struct {
	Msg string
}

func NewMissingTypeError(format string, args ...interface{}) *MissingTypeError {
	return &MissingTypeError{fmt.Sprintf(format, args...)}
}

func (e *MissingTypeError) Error() string { return "missing type: " + e.Msg }
func (e *MissingTypeError) IsFatal() bool { return true }

// MissingMappingsError means a "value" rule lacked a "mappings" array.
type MissingMappingsError struct {
	Msg string
}

func NewMissingMappingsError(format string, args ...interface{}) *MissingMappingsError {
	return &MissingMappingsError{fmt.Sprintf(format, args...)}
}

func (e *MissingMappingsError) Error() string { return "missing mappings: " + e.Msg }
func (e *MissingMappingsError) IsFatal() bool { return true }

// UnknownFunctionError means a "function" rule named a function not in the registry.
type UnknownFunctionError struct {
	Msg string
}

func NewUnknownFunctionError(format string, args ...interface{}) *UnknownFunctionError {
	return &UnknownFunctionError{fmt.Sprintf(format, args...)}
}

func (e *UnknownFunctionError) Error() string { return "unknown function: " + e.Msg }
func (e *UnknownFunctionError) IsFatal() bool { return true }

// FunctionFailure wraps an error raised while applying a registered function.
type FunctionFailure struct {
	Name  string
	Cause error
}

func NewFunctionFailure(name string, cause error) *FunctionFailure {
	return &FunctionFailure{Name: name, Cause: cause}
}

func (e *FunctionFailure) Error() string {
	return fmt.Sprintf("function %q: %s", e.Name, e.Cause)
}
func (e *FunctionFailure) IsFatal() bool { return true }
func (e *FunctionFailure) Unwrap() error { return e.Cause }

// BadDateError means $formatDate could not parse its input as ISO-8601.
type BadDateError struct {
	Msg string
}

func NewBadDateError(format string, args ...interface{}) *BadDateError {
	return &BadDateError{fmt.Sprintf(format, args...)}
}

func (e *BadDateError) Error() string { return "bad date: " + e.Msg }
func (e *BadDateError) IsFatal() bool { return true }

// BadRegexError means a "regex" condition operator's pattern did not compile.
type BadRegexError struct {
	Msg string
}

func NewBadRegexError(format string, args ...interface{}) *BadRegexError {
	return &BadRegexError{fmt.Sprintf(format, args...)}
}

func (e *BadRegexError) Error() string { return "bad regex: " + e.Msg }
func (e *BadRegexError) IsFatal() bool { return true }

// BadComparisonError means an ordering operator (gt/lt/gte/lte) was applied
// to a source value that could not be coerced to a decimal.
type BadComparisonError struct {
	Msg string
}

func NewBadComparisonError(format string, args ...interface{}) *BadComparisonError {
	return &BadComparisonError{fmt.Sprintf(format, args...)}
}

func (e *BadComparisonError) Error() string { return "bad comparison: " + e.Msg }
func (e *BadComparisonError) IsFatal() bool { return true }

// RecursionLimitError means a rule tree nested deeper than is plausible for
// hand-written mapping programs; see soft limit discussion in spec notes.
type RecursionLimitError struct {
	Msg string
}

func NewRecursionLimitError(format string, args ...interface{}) *RecursionLimitError {
	return &RecursionLimitError{fmt.Sprintf(format, args...)}
}

func (e *RecursionLimitError) Error() string { return "recursion limit: " + e.Msg }
func (e *RecursionLimitError) IsFatal() bool { return true }
