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

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValuePreservesIntVsDecimal(t *testing.T) {
	v, err := ParseValue([]byte(`{"a": 1, "b": 1.0, "c": 1e2}`))
	require.NoError(t, err)
	obj, ok := v.Object()
	require.True(t, ok)

	a, _ := obj.Get("a")
	assert.Equal(t, KindInt, a.Kind())

	b, _ := obj.Get("b")
	assert.Equal(t, KindDecimal, b.Kind())

	c, _ := obj.Get("c")
	assert.Equal(t, KindDecimal, c.Kind())
}

func TestParseValuePreservesKeyOrder(t *testing.T) {
	v, err := ParseValue([]byte(`{"z": 1, "a": 2, "m": 3}`))
	require.NoError(t, err)
	obj, ok := v.Object()
	require.True(t, ok)
	assert.Equal(t, []string{"z", "a", "m"}, obj.Keys())
}

func TestValueEqualIsTypeStrict(t *testing.T) {
	assert.False(t, IntValue(1).Equal(DecimalValue(mustDecimal("1"))), "Int(1) must not equal Decimal(1.0)")
	assert.True(t, IntValue(1).Equal(IntValue(1)))
	assert.False(t, TextValue("1").Equal(IntValue(1)), "Text must not coerce to number for equality")
	assert.True(t, Null().Equal(Null()))
	assert.False(t, Null().Equal(BoolValue(false)))
}

func TestValueMarshalRoundTrip(t *testing.T) {
	src := []byte(`{"name":"a","count":3,"price":3.50,"tags":["x","y"],"nested":{"k":null}}`)
	v, err := ParseValue(src)
	require.NoError(t, err)
	out, err := v.MarshalJSON()
	require.NoError(t, err)

	v2, err := ParseValue(out)
	require.NoError(t, err)
	if diff := cmp.Diff(v, v2, cmp.Comparer(Value.Equal)); diff != "" {
		t.Errorf("round trip changed value tree (-want +got):\n%s", diff)
	}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}
