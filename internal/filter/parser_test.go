package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csvpipe/csvpipe/internal/common"
)

func resolver() *common.Resolver {
	return common.NewResolver([]string{"name", "age", "stress", "city"})
}

func TestParseEmptyExpressionIsAbsent(t *testing.T) {
	assert.Nil(t, Parse("", resolver()))
	assert.Nil(t, Parse("   ", resolver()))
}

func TestParseSingleCondition(t *testing.T) {
	node := Parse("age >= 18", resolver())
	require.NotNil(t, node)

	cond, ok := node.(Cond)
	require.True(t, ok, "single condition must collapse to a Cond, got %T", node)
	assert.Equal(t, 1, cond.Col)
	assert.Equal(t, OpGte, cond.Op)
	assert.True(t, cond.Numeric)
	assert.Equal(t, 18.0, cond.Value)
}

func TestParseTwoCharOperatorsScanFirst(t *testing.T) {
	// "<=" must not be read as "<" followed by a dangling "=".
	node := Parse("age<=30", resolver())
	cond, ok := node.(Cond)
	require.True(t, ok)
	assert.Equal(t, OpLte, cond.Op)

	node = Parse("age!=30", resolver())
	cond, ok = node.(Cond)
	require.True(t, ok)
	assert.Equal(t, OpNeq, cond.Op)
}

func TestParsePrecedenceOrBindsLoosest(t *testing.T) {
	node := Parse(`age >= 18 AND stress >= 7 OR city = "X"`, resolver())
	require.NotNil(t, node)

	or, ok := node.(Or)
	require.True(t, ok, "root must be OR, got %T", node)
	require.Len(t, or.Children, 2)

	and, ok := or.Children[0].(And)
	require.True(t, ok, "first OR child must be AND, got %T", or.Children[0])
	assert.Len(t, and.Children, 2)

	_, ok = or.Children[1].(Cond)
	assert.True(t, ok)

	// (age>=18 AND stress>=7) OR city="X"
	assert.True(t, node.Matches([]string{"a", "20", "8", "Y"}))
	assert.True(t, node.Matches([]string{"b", "10", "1", "X"}))
	assert.False(t, node.Matches([]string{"c", "10", "9", "Y"}))
}

func TestParseConnectivesAreCaseInsensitive(t *testing.T) {
	node := Parse(`age >= 18 and city = "X" Or stress >= 9`, resolver())
	require.NotNil(t, node)
	_, ok := node.(Or)
	assert.True(t, ok)
}

func TestParseConnectivesAreWordBounded(t *testing.T) {
	// "score" contains "or" and "android" contains "and"; neither may split.
	r := common.NewResolver([]string{"score", "android"})
	node := Parse("score >= 7", r)
	cond, ok := node.(Cond)
	require.True(t, ok)
	assert.Equal(t, 0, cond.Col)

	node = Parse("android = 1", r)
	_, ok = node.(Cond)
	assert.True(t, ok)
}

func TestParseUnknownColumnDropsCondition(t *testing.T) {
	// The only condition drops, so the whole filter is absent.
	assert.Nil(t, Parse(`nope = "x"`, resolver()))

	// A sibling condition survives.
	node := Parse(`nope = "x" OR age >= 18`, resolver())
	require.NotNil(t, node)
	cond, ok := node.(Cond)
	require.True(t, ok, "surviving OR child must collapse, got %T", node)
	assert.Equal(t, 1, cond.Col)
}

func TestParseMalformedConditionDrops(t *testing.T) {
	assert.Nil(t, Parse("no operator here", resolver()))

	node := Parse("gibberish AND age >= 18", resolver())
	require.NotNil(t, node)
	_, ok := node.(Cond)
	assert.True(t, ok, "AND group with one valid leaf collapses to it")
}

func TestParseAndGroupWithNoLeavesDiscardedFromOr(t *testing.T) {
	node := Parse(`bogus = 1 AND nope = 2 OR age >= 18`, resolver())
	require.NotNil(t, node)
	cond, ok := node.(Cond)
	require.True(t, ok, "empty AND group must vanish, got %T", node)
	assert.Equal(t, 1, cond.Col)
}

func TestParseQuotedLiteralStaysString(t *testing.T) {
	node := Parse(`city = "Coyoacan"`, resolver())
	cond, ok := node.(Cond)
	require.True(t, ok)
	assert.False(t, cond.Numeric)
	assert.True(t, cond.Matches([]string{"a", "30", "5", "Coyoacan"}))
}
