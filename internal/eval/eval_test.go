// Copyright 2024 The Rulecube Authors
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

package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jedox/rulecube/cube"
	"github.com/jedox/rulecube/internal/eval"
)

func TestDecimalContextHasFortyDigitsOfPrecision(t *testing.T) {
	ctx := eval.DecimalContext()
	assert.Equal(t, uint32(40), ctx.Precision)
}

func TestDecimalContextReturnsIndependentCopies(t *testing.T) {
	a := eval.DecimalContext()
	b := eval.DecimalContext()
	a.Precision = 10
	assert.Equal(t, uint32(40), b.Precision, "mutating one returned context must not affect another")
}

func TestNumericAndStringValueConstructors(t *testing.T) {
	n := eval.NumericValue(3.25)
	assert.Equal(t, eval.Numeric, n.Type)
	assert.Equal(t, 3.25, n.Float64())
	assert.Equal(t, "", n.String0())

	s := eval.StringValue("hello")
	assert.Equal(t, eval.String, s.Type)
	assert.Equal(t, "hello", s.String0())
	assert.Equal(t, 0.0, s.Float64())
}

func TestControlValuesCarryNoPayloadAndReportIsControl(t *testing.T) {
	stet := eval.StetValue()
	cont := eval.ContinueValue()
	assert.True(t, stet.IsControl())
	assert.True(t, cont.IsControl())
	assert.False(t, eval.NumericValue(0).IsControl())
	assert.Equal(t, 0.0, stet.Float64(), "a control token's Float64 must be the documented zero, not NaN or a panic")
}

func TestContextWithHistoryIsImmutable(t *testing.T) {
	base := &eval.Context{History: cube.History{}}
	key1 := cube.HistoryKey{RuleID: 1, Path: "a"}
	key2 := cube.HistoryKey{RuleID: 2, Path: "b"}

	c1 := base.WithHistory(key1)
	require.True(t, c1.Seen(key1))
	assert.False(t, base.Seen(key1), "WithHistory must not mutate the receiver's History")

	c2 := c1.WithHistory(key2)
	assert.True(t, c2.Seen(key1))
	assert.True(t, c2.Seen(key2))
	assert.False(t, c1.Seen(key2), "WithHistory must not mutate an ancestor Context's History either")
}

func TestContextSeenOnNilHistoryIsFalse(t *testing.T) {
	c := &eval.Context{}
	assert.False(t, c.Seen(cube.HistoryKey{RuleID: 1, Path: "x"}))
}
