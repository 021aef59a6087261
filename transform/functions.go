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

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// registeredFunc is the shape of every built-in in the function registry
// (spec §4.3). fc carries enough of the surrounding evaluation to let
// $concat re-evaluate arguments that are themselves paths; every other
// built-in ignores it.
type registeredFunc func(fc *funcContext, input Value, args []Value) (Value, error)

type funcContext struct {
	in     *Interpreter
	source Value
}

var functionRegistry = map[string]registeredFunc{
	"$string":     fnString,
	"$uppercase":  fnUppercase,
	"$lowercase":  fnLowercase,
	"$trim":       fnTrim,
	"$substring":  fnSubstring,
	"$number":     fnNumber,
	"$round":      fnRound,
	"$sum":        fnSum,
	"$now":        fnNow,
	"$formatDate": fnFormatDate,
	"$uuid":       fnUUID,
	"$concat":     fnConcat,
	// Supplemental, additive built-ins (see SPEC_FULL.md §4): neither
	// changes the documented behavior of any function above.
	"$coalesce": fnCoalesce,
	"$default":  fnDefault,
}

func fnString(fc *funcContext, input Value, args []Value) (Value, error) {
	if input.IsNull() {
		return TextValue(""), nil
	}
	return TextValue(input.TextForm()), nil
}

func fnUppercase(fc *funcContext, input Value, args []Value) (Value, error) {
	if input.IsNull() {
		return TextValue(""), nil
	}
	return TextValue(strings.ToUpper(input.TextForm())), nil
}

func fnLowercase(fc *funcContext, input Value, args []Value) (Value, error) {
	if input.IsNull() {
		return TextValue(""), nil
	}
	return TextValue(strings.ToLower(input.TextForm())), nil
}

func fnTrim(fc *funcContext, input Value, args []Value) (Value, error) {
	if input.IsNull() {
		return TextValue(""), nil
	}
	return TextValue(strings.TrimSpace(input.TextForm())), nil
}

func fnSubstring(fc *funcContext, input Value, args []Value) (Value, error) {
	s := input.TextForm()
	start, end := 0, len(s)
	if len(args) > 0 {
		if n, ok := args[0].Int(); ok {
			start = int(n)
		}
	}
	if len(args) > 1 {
		if n, ok := args[1].Int(); ok {
			end = int(n)
		}
	}
	if start < 0 {
		start = 0
	}
	if start > len(s) {
		start = len(s)
	}
	if end > len(s) {
		end = len(s)
	}
	if end < start {
		end = start
	}
	return TextValue(s[start:end]), nil
}

func fnNumber(fc *funcContext, input Value, args []Value) (Value, error) {
	if input.IsNull() {
		return Null(), nil
	}
	switch input.Kind() {
	case KindInt, KindDecimal:
		return input, nil
	}
	text := strings.TrimSpace(input.TextForm())
	d, err := decimal.NewFromString(text)
	if err != nil {
		return Null(), nil
	}
	return DecimalValue(d), nil
}

func fnRound(fc *funcContext, input Value, args []Value) (Value, error) {
	d, ok := input.AsNumericDecimal()
	if !ok {
		return Null(), NewFunctionFailure("$round", NewBadComparisonError("input is not numeric"))
	}
	scale := int32(0)
	if len(args) > 0 {
		if n, ok := args[0].Int(); ok {
			scale = int32(n)
		}
	}
	return DecimalValue(d.Round(scale)), nil
}

func fnSum(fc *funcContext, input Value, args []Value) (Value, error) {
	arr, ok := input.Array()
	if !ok {
		return DecimalValue(decimal.Zero), nil
	}
	total := decimal.Zero
	for _, e := range arr {
		if d, ok := e.AsNumericDecimal(); ok {
			total = total.Add(d)
		}
	}
	return DecimalValue(total), nil
}

func fnNow(fc *funcContext, input Value, args []Value) (Value, error) {
	return TextValue(time.Now().UTC().Format(time.RFC3339)), nil
}

const isoDateLayout = "2006-01-02"

var dateTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// fnFormatDate parses an ISO-8601 date or date-time (a date-only literal
// is treated as midnight UTC) and emits it per spec §9's resolution of the
// "format" ambiguity: the format argument, when given, is strictly an
// OUTPUT pattern — expressed as a Go reference-time layout string, the
// idiomatic Go analogue of a strftime/format pattern — never reused to
// parse the input.
func fnFormatDate(fc *funcContext, input Value, args []Value) (Value, error) {
	text, ok := input.Text()
	if !ok {
		return Null(), NewBadDateError("input is not text")
	}
	text = strings.TrimSpace(text)

	var t time.Time
	var err error
	if len(text) == len(isoDateLayout) {
		t, err = time.ParseInLocation(isoDateLayout, text, time.UTC)
	} else {
		err = NewBadDateError("unparseable date %q", text)
		for _, layout := range dateTimeLayouts {
			if parsed, perr := time.Parse(layout, text); perr == nil {
				t, err = parsed.UTC(), nil
				break
			}
		}
	}
	if err != nil {
		return Null(), err
	}

	layout := time.RFC3339
	if len(args) > 0 {
		if f, ok := args[0].Text(); ok && f != "" {
			layout = f
		}
	}
	return TextValue(t.Format(layout)), nil
}

func fnUUID(fc *funcContext, input Value, args []Value) (Value, error) {
	return TextValue(uuid.NewString()), nil
}

// fnConcat concatenates input (when it is a non-null scalar) with each arg,
// resolving any arg whose text form begins with "$" as a path against the
// source document; every other arg is used literally. An object or array
// input, such as the whole source document when the rule has no
// sourcePath, contributes nothing. See spec §4.3.
func fnConcat(fc *funcContext, input Value, args []Value) (Value, error) {
	var b strings.Builder
	if k := input.Kind(); k != KindNull && k != KindObject && k != KindArray {
		b.WriteString(input.TextForm())
	}
	for _, a := range args {
		text, isText := a.Text()
		if isText && strings.HasPrefix(text, "$") {
			resolved, err := fc.in.evalPath(fc.source, text)
			if err != nil {
				return Value{}, err
			}
			b.WriteString(resolved.TextForm())
			continue
		}
		b.WriteString(a.TextForm())
	}
	return TextValue(b.String()), nil
}

// fnCoalesce returns the first non-null among input and args, resolving
// any "$"-prefixed text argument as a path against the source document
// first, same as $concat.
func fnCoalesce(fc *funcContext, input Value, args []Value) (Value, error) {
	if !input.IsNull() {
		return input, nil
	}
	for _, a := range args {
		text, isText := a.Text()
		if isText && strings.HasPrefix(text, "$") {
			resolved, err := fc.in.evalPath(fc.source, text)
			if err != nil {
				return Value{}, err
			}
			if !resolved.IsNull() {
				return resolved, nil
			}
			continue
		}
		if !a.IsNull() {
			return a, nil
		}
	}
	return Null(), nil
}

// fnDefault returns input unless it is null, in which case it returns
// args[0] (or null if no fallback was given).
func fnDefault(fc *funcContext, input Value, args []Value) (Value, error) {
	if !input.IsNull() {
		return input, nil
	}
	if len(args) > 0 {
		return args[0], nil
	}
	return Null(), nil
}
