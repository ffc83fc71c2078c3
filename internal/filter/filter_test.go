package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCondNumericComparisons(t *testing.T) {
	row := []string{"alice", "30"}

	tests := []struct {
		op      Op
		literal string
		want    bool
	}{
		{OpEq, "30", true},
		{OpEq, "31", false},
		{OpNeq, "31", true},
		{OpLt, "31", true},
		{OpLt, "30", false},
		{OpGt, "29", true},
		{OpLte, "30", true},
		{OpGte, "30", true},
		{OpGte, "31", false},
	}
	for _, tt := range tests {
		c := NewCond(1, tt.op, tt.literal)
		assert.True(t, c.Numeric, "literal %q should classify numeric", tt.literal)
		assert.Equal(t, tt.want, c.Matches(row), "%s %s", tt.op, tt.literal)
	}
}

func TestCondNumericParseFailureIsFalse(t *testing.T) {
	c := NewCond(1, OpGte, "18")
	assert.False(t, c.Matches([]string{"bob", "not-a-number"}))
}

func TestCondOutOfBoundsIsFalse(t *testing.T) {
	c := NewCond(5, OpEq, "x")
	assert.False(t, c.Matches([]string{"a", "b"}))

	c = NewCond(-1, OpEq, "x")
	assert.False(t, c.Matches([]string{"a"}))
}

func TestCondStringEquality(t *testing.T) {
	row := []string{"a", "Coyoacan"}

	eq := NewCond(1, OpEq, `"Coyoacan"`)
	assert.False(t, eq.Numeric)
	assert.True(t, eq.Matches(row))
	assert.False(t, eq.Matches([]string{"a", "Roma"}))

	neq := NewCond(1, OpNeq, `"Roma"`)
	assert.True(t, neq.Matches(row))
}

func TestCondStringOrderingOpsAreFalse(t *testing.T) {
	row := []string{"zzz"}
	for _, op := range []Op{OpLt, OpGt, OpLte, OpGte} {
		c := NewCond(0, op, `"aaa"`)
		assert.False(t, c.Matches(row), "string %s must be false", op)
	}
}

func TestCondQuotedLiteralIsNeverNumeric(t *testing.T) {
	c := NewCond(0, OpEq, `"30"`)
	assert.False(t, c.Numeric)
	assert.True(t, c.Matches([]string{"30"}))
}

func TestAndOrShortCircuit(t *testing.T) {
	row := []string{"10", "x"}

	age := NewCond(0, OpGte, "18")  // false for row
	city := NewCond(1, OpEq, `"x"`) // true for row

	assert.False(t, And{Children: []Node{age, city}}.Matches(row))
	assert.True(t, Or{Children: []Node{age, city}}.Matches(row))
	assert.True(t, And{}.Matches(row))
	assert.False(t, Or{}.Matches(row))
}
