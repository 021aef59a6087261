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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transformJSON(t *testing.T, source, rules string) Value {
	t.Helper()
	out, err := Transform([]byte(source), []byte(rules))
	require.NoError(t, err)
	v, err := ParseValue(out)
	require.NoError(t, err)
	return v
}

// Scenario 1 (spec §8): simple path.
func TestTransformPathRule(t *testing.T) {
	v := transformJSON(t, `{"a":{"b":42}}`, `{"x":"$.a.b"}`)
	obj, _ := v.Object()
	x, _ := obj.Get("x")
	n, _ := x.Int()
	assert.Equal(t, int64(42), n)
}

// P1: missing path resolves to Null, key still present.
func TestTransformPathRuleMissingYieldsNull(t *testing.T) {
	v := transformJSON(t, `{"a":{}}`, `{"x":"$.a.b"}`)
	obj, _ := v.Object()
	x, hasKey := obj.Get("x")
	require.True(t, hasKey)
	assert.True(t, x.IsNull())
}

func TestTransformLiteralRule(t *testing.T) {
	v := transformJSON(t, `{}`, `{"kind": {"type":"literal","value":"order"}}`)
	obj, _ := v.Object()
	kind, _ := obj.Get("kind")
	s, _ := kind.Text()
	assert.Equal(t, "order", s)
}

// Scenario 2 (spec §8): value mapping with default.
func TestTransformValueRuleMappingWithDefault(t *testing.T) {
	rules := `{
		"t": {
			"type": "value",
			"sourcePath": "$.category",
			"mappings": [{"source": "premium", "target": "gold"}],
			"default": "bronze"
		}
	}`

	v := transformJSON(t, `{"category":"premium"}`, rules)
	obj, _ := v.Object()
	tv, _ := obj.Get("t")
	s, _ := tv.Text()
	assert.Equal(t, "gold", s)

	v2 := transformJSON(t, `{"category":"unknown"}`, rules)
	obj2, _ := v2.Object()
	tv2, _ := obj2.Get("t")
	s2, _ := tv2.Text()
	assert.Equal(t, "bronze", s2)
}

// §4.5: a scalar source with no mapping match and no default yields Null
// (no pass-through for scalars, unlike arrays).
func TestTransformValueRuleScalarNoMatchNoDefaultYieldsNull(t *testing.T) {
	rules := `{"t": {"type":"value","sourcePath":"$.category","mappings":[{"source":"premium","target":"gold"}]}}`
	v := transformJSON(t, `{"category":"unknown"}`, rules)
	obj, _ := v.Object()
	tv, _ := obj.Get("t")
	assert.True(t, tv.IsNull())
}

// §4.5/§9: array source elements with no match and no default pass
// through unchanged.
func TestTransformValueRuleArrayPassThrough(t *testing.T) {
	rules := `{"t": {"type":"value","sourcePath":"$.codes","mappings":[{"source":1,"target":"one"}]}}`
	v := transformJSON(t, `{"codes":[1,2,3]}`, rules)
	obj, _ := v.Object()
	tv, _ := obj.Get("t")
	arr, ok := tv.Array()
	require.True(t, ok)
	require.Len(t, arr, 3)
	s0, _ := arr[0].Text()
	assert.Equal(t, "one", s0)
	n1, _ := arr[1].Int()
	assert.Equal(t, int64(2), n1, "unmatched element passes through unchanged")
	n2, _ := arr[2].Int()
	assert.Equal(t, int64(3), n2)
}

// Missing "mappings" on a value rule must raise MissingMappingsError.
func TestTransformValueRuleMissingMappingsErrors(t *testing.T) {
	_, err := Transform([]byte(`{"category":"x"}`), []byte(`{"t":{"type":"value","sourcePath":"$.category"}}`))
	require.Error(t, err)
	var mme *MissingMappingsError
	assert.ErrorAs(t, err, &mme)
}

func TestTransformValueRuleWildcardMapping(t *testing.T) {
	rules := `{
		"label": {
			"type": "value",
			"sourcePath": "$.code",
			"mappings": [
				{"source": 1, "target": "one"},
				{"source": "*", "target": "$.code"}
			]
		}
	}`
	v := transformJSON(t, `{"code":7}`, rules)
	obj, _ := v.Object()
	label, _ := obj.Get("label")
	n, _ := label.Int()
	assert.Equal(t, int64(7), n)
}

// Scenario 3 (spec §8): conditional chain, including the BadComparison case.
func TestTransformConditionalRule(t *testing.T) {
	rules := `{
		"tier": {
			"type": "conditional",
			"conditions": [
				{"path": "$.amt", "operator": "gt", "value": 1000, "result": "HIGH"}
			],
			"default": "LOW"
		}
	}`
	v := transformJSON(t, `{"amt": 1500}`, rules)
	obj, _ := v.Object()
	tier, _ := obj.Get("tier")
	s, _ := tier.Text()
	assert.Equal(t, "HIGH", s)

	v2 := transformJSON(t, `{"amt": 900}`, rules)
	obj2, _ := v2.Object()
	tier2, _ := obj2.Get("tier")
	s2, _ := tier2.Text()
	assert.Equal(t, "LOW", s2)

	_, err := Transform([]byte(`{"amt":"not a number"}`), []byte(rules))
	require.Error(t, err)
	var bce *BadComparisonError
	assert.ErrorAs(t, err, &bce)
}

// P3: conditional with nothing satisfied and no default yields Null.
func TestTransformConditionalNoMatchNoDefaultYieldsNull(t *testing.T) {
	rules := `{"t":{"type":"conditional","conditions":[{"path":"$.x","operator":"eq","value":1,"result":"y"}]}}`
	v := transformJSON(t, `{"x":2}`, rules)
	obj, _ := v.Object()
	tv, _ := obj.Get("t")
	assert.True(t, tv.IsNull())
}

// Scenario 4 (spec §8): array iteration with nested value-map.
func TestTransformArrayRuleWithNestedValueMap(t *testing.T) {
	rules := `{
		"items": {
			"type": "array",
			"sourcePath": "$.items",
			"itemMapping": {
				"cat": {
					"type": "value",
					"sourcePath": "$.c",
					"mappings": [{"source": "electronics", "target": "E"}],
					"default": "X"
				}
			}
		}
	}`
	v := transformJSON(t, `{"items":[{"c":"electronics"},{"c":"other"}]}`, rules)
	obj, _ := v.Object()
	items, _ := obj.Get("items")
	arr, ok := items.Array()
	require.True(t, ok)
	require.Len(t, arr, 2)

	o0, _ := arr[0].Object()
	cat0, _ := o0.Get("cat")
	s0, _ := cat0.Text()
	assert.Equal(t, "E", s0)

	o1, _ := arr[1].Object()
	cat1, _ := o1.Get("cat")
	s1, _ := cat1.Text()
	assert.Equal(t, "X", s1)
}

// P4: array mapping on a non-array path yields empty array; with
// wrapAsArray=true on an object source, yields a singleton.
func TestTransformArrayRuleNonArrayYieldsEmpty(t *testing.T) {
	rules := `{"out":{"type":"array","sourcePath":"$.notAnArray","itemMapping":{"x":"$.x"}}}`
	v := transformJSON(t, `{"notAnArray":{"x":1}}`, rules)
	obj, _ := v.Object()
	out, _ := obj.Get("out")
	arr, ok := out.Array()
	require.True(t, ok)
	assert.Len(t, arr, 0)
}

func TestTransformArrayRuleWrapAsArraySingleton(t *testing.T) {
	rules := `{"out":{"type":"array","sourcePath":"$.single","wrapAsArray":true,"itemMapping":{"x":"$.x"}}}`
	v := transformJSON(t, `{"single":{"x":9}}`, rules)
	obj, _ := v.Object()
	out, _ := obj.Get("out")
	arr, ok := out.Array()
	require.True(t, ok)
	require.Len(t, arr, 1)
	elemObj, _ := arr[0].Object()
	x, _ := elemObj.Get("x")
	n, _ := x.Int()
	assert.Equal(t, int64(9), n)
}

func TestTransformObjectRuleNested(t *testing.T) {
	rules := `{
		"customer": {
			"type": "object",
			"id": "$.user.id",
			"displayName": {"type":"function","function":"$uppercase","sourcePath":"$.user.name"}
		}
	}`
	v := transformJSON(t, `{"user":{"id":"u1","name":"ada"}}`, rules)
	obj, _ := v.Object()
	cust, _ := obj.Get("customer")
	custObj, _ := cust.Object()
	id, _ := custObj.Get("id")
	idS, _ := id.Text()
	assert.Equal(t, "u1", idS)
	name, _ := custObj.Get("displayName")
	nameS, _ := name.Text()
	assert.Equal(t, "ADA", nameS)
}

func TestTransformObjectRuleEmptyYieldsEmptyObjectNotNull(t *testing.T) {
	v := transformJSON(t, `{}`, `{"o":{"type":"object"}}`)
	obj, _ := v.Object()
	o, _ := obj.Get("o")
	require.False(t, o.IsNull())
	oo, ok := o.Object()
	require.True(t, ok)
	assert.Equal(t, 0, oo.Len())
}

func TestTransformFunctionConcatWithPathArg(t *testing.T) {
	rules := `{
		"full": {
			"type": "function",
			"function": "$concat",
			"args": ["$.first", " ", "$.last"]
		}
	}`
	v := transformJSON(t, `{"first":"Ada","last":"Lovelace"}`, rules)
	obj, _ := v.Object()
	full, _ := obj.Get("full")
	s, _ := full.Text()
	assert.Equal(t, "Ada Lovelace", s)
}

func TestTransformFunctionSumAndRound(t *testing.T) {
	rules := `{
		"sum": {"type":"function","function":"$sum","sourcePath":"$.values"},
		"rounded": {"type":"function","function":"$round","sourcePath":"$.pi","args":[2]}
	}`
	v := transformJSON(t, `{"values":[1,2.5,3],"pi":3.14159}`, rules)
	obj, _ := v.Object()
	sum, _ := obj.Get("sum")
	sumD, _ := sum.Decimal()
	assert.True(t, sumD.Equal(mustDecimal("6.5")))

	rounded, _ := obj.Get("rounded")
	roundedD, _ := rounded.Decimal()
	assert.Equal(t, "3.14", roundedD.String())
}

// Scenario 5 (spec §8): filter path.
func TestTransformFilterPath(t *testing.T) {
	v := transformJSON(t, `{"items":[{"v":10},{"v":30}]}`, `{"hi":"$.items[?(@.v > 15)]"}`)
	obj, _ := v.Object()
	hi, _ := obj.Get("hi")
	arr, ok := hi.Array()
	require.True(t, ok)
	require.Len(t, arr, 1)
	elemObj, _ := arr[0].Object()
	vv, _ := elemObj.Get("v")
	n, _ := vv.Int()
	assert.Equal(t, int64(30), n)
}

func TestTransformUnknownFunctionErrors(t *testing.T) {
	_, err := Transform([]byte(`{}`), []byte(`{"x":{"type":"function","function":"$nope"}}`))
	require.Error(t, err)
	var ff *FieldFailure
	require.ErrorAs(t, err, &ff)
	var ufe *UnknownFunctionError
	assert.ErrorAs(t, err, &ufe)
}

func TestTransformMissingTypeErrors(t *testing.T) {
	_, err := Transform([]byte(`{}`), []byte(`{"x":{"path":"$.a"}}`))
	require.Error(t, err)
	var mte *MissingTypeError
	assert.ErrorAs(t, err, &mte)
}

func TestTransformBadSourceErrors(t *testing.T) {
	_, err := Transform([]byte(`not json`), []byte(`{}`))
	require.Error(t, err)
	var bse *BadSourceError
	assert.ErrorAs(t, err, &bse)
}

func TestTransformBadRulesNonObjectErrors(t *testing.T) {
	_, err := Transform([]byte(`{}`), []byte(`[1,2,3]`))
	require.Error(t, err)
	var bre *BadRulesError
	assert.ErrorAs(t, err, &bre)
}

// P6: path caching does not corrupt results across repeated transforms.
func TestTransformPathCacheConsistentAcrossCalls(t *testing.T) {
	in := NewInterpreter()
	rules := []byte(`{"x":"$.a.b"}`)
	out1, err := in.TransformDocs([]byte(`{"a":{"b":1}}`), rules)
	require.NoError(t, err)
	out2, err := in.TransformDocs([]byte(`{"a":{"b":2}}`), rules)
	require.NoError(t, err)

	v1, _ := ParseValue(out1)
	v2, _ := ParseValue(out2)
	o1, _ := v1.Object()
	o2, _ := v2.Object()
	x1, _ := o1.Get("x")
	x2, _ := o2.Get("x")
	n1, _ := x1.Int()
	n2, _ := x2.Int()
	assert.Equal(t, int64(1), n1)
	assert.Equal(t, int64(2), n2)
}

// P5: eq is type-strict between Int and Decimal.
func TestTransformConditionalEqTypeStrict(t *testing.T) {
	rules := `{"t":{"type":"conditional","conditions":[{"path":"$.x","operator":"eq","value":1.0,"result":"matched"}],"default":"no-match"}}`
	v := transformJSON(t, `{"x":1}`, rules)
	obj, _ := v.Object()
	tv, _ := obj.Get("t")
	s, _ := tv.Text()
	assert.Equal(t, "no-match", s)
}
