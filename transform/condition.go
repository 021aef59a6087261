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
	"regexp"
	"strings"
)

// valuesEqual implements the type-strict equality of spec §4.4: Int and
// Decimal never compare equal even when numerically identical, and there
// is no cross-type coercion between Text and numbers.
func valuesEqual(a, b Value) bool {
	return a.Equal(b)
}

// conditionOperator is one condition evaluator operator. source is the
// value resolved from the condition's path; literal is the condition's
// "value" field.
type conditionOperator func(source, literal Value) (bool, error)

var conditionOperators = map[string]conditionOperator{
	"eq":         opEq,
	"equals":     opEq,
	"ne":         opNe,
	"notEquals":  opNe,
	"gt":         opOrder(">"),
	"lt":         opOrder("<"),
	"gte":        opOrder(">="),
	"lte":        opOrder("<="),
	"contains":   opContains,
	"startsWith": opStartsWith,
	"endsWith":   opEndsWith,
	"regex":      opRegex,
}

func opEq(source, literal Value) (bool, error) {
	return valuesEqual(source, literal), nil
}

func opNe(source, literal Value) (bool, error) {
	return !valuesEqual(source, literal), nil
}

// opOrder builds gt/lt/gte/lte. Per spec §4.4: both sides must coerce to
// decimal. A non-numeric *missing or null* source makes the condition
// false (not an error). A *textual* source that fails to parse as a
// number raises BadComparisonError.
func opOrder(op string) conditionOperator {
	return func(source, literal Value) (bool, error) {
		sd, sok := source.AsNumericDecimal()
		if !sok {
			if source.IsNull() {
				return false, nil
			}
			if text, isText := source.Text(); isText {
				if _, err := parseNumber(strings.TrimSpace(text)); err != nil {
					return false, NewBadComparisonError("source %q is not numeric", text)
				}
				// Re-parse succeeded: fall through using the parsed value.
				v, _ := parseNumber(strings.TrimSpace(text))
				sd, _ = v.AsNumericDecimal()
			} else {
				// Bool, array, object: not comparable, not an error.
				return false, nil
			}
		}
		ld, lok := literal.AsNumericDecimal()
		if !lok {
			return false, nil
		}
		cmp := sd.Cmp(ld)
		switch op {
		case ">":
			return cmp > 0, nil
		case "<":
			return cmp < 0, nil
		case ">=":
			return cmp >= 0, nil
		case "<=":
			return cmp <= 0, nil
		}
		return false, nil
	}
}

func opContains(source, literal Value) (bool, error) {
	if source.IsNull() {
		return false, nil
	}
	needle, _ := literal.Text()
	if needle == "" {
		return true, nil
	}
	return strings.Contains(source.TextForm(), needle), nil
}

func opStartsWith(source, literal Value) (bool, error) {
	if source.IsNull() {
		return false, nil
	}
	needle, _ := literal.Text()
	if needle == "" {
		return true, nil
	}
	return strings.HasPrefix(source.TextForm(), needle), nil
}

func opEndsWith(source, literal Value) (bool, error) {
	if source.IsNull() {
		return false, nil
	}
	needle, _ := literal.Text()
	if needle == "" {
		return true, nil
	}
	return strings.HasSuffix(source.TextForm(), needle), nil
}

func opRegex(source, literal Value) (bool, error) {
	if source.IsNull() {
		return false, nil
	}
	pattern, _ := literal.Text()
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return false, NewBadRegexError("%s", err)
	}
	return re.MatchString(source.TextForm()), nil
}

// evalCondition resolves path against source and applies operator against
// literal. invalid path syntax propagates as an error (InvalidPathError);
// an unknown operator is reported as an error too, since it can only come
// from malformed rules.
func (in *Interpreter) evalCondition(source Value, path, operator string, literal Value) (bool, error) {
	op, ok := conditionOperators[operator]
	if !ok {
		return false, NewInvalidPathError("unknown condition operator %q", operator)
	}
	resolved, err := in.evalPath(source, path)
	if err != nil {
		return false, err
	}
	return op(resolved, literal)
}
