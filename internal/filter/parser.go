package filter

import (
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/csvpipe/csvpipe/internal/common"
)

// Connectives are case-insensitive and word-bounded, so column names such as
// "android" or "score" never split the expression.
var (
	orSplitRe  = regexp.MustCompile(`(?i)\bOR\b`)
	andSplitRe = regexp.MustCompile(`(?i)\bAND\b`)
)

// Two-character operators are scanned first so "<=" is never read as "<"
// followed by a dangling "=".
var operators = []Op{OpLte, OpGte, OpNeq, OpEq, OpLt, OpGt}

// Parse compiles an expression into a predicate tree. OR binds loosest, then
// AND; atoms are "column op literal". A blank expression compiles to nil
// (all rows pass).
//
// Conditions referencing unknown columns or missing an operator are warned
// about and dropped; compilation continues with the remaining conditions.
// If nothing valid remains, the whole filter is absent.
func Parse(expr string, resolver *common.Resolver) Node {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil
	}

	var orChildren []Node
	for _, orPart := range orSplitRe.Split(expr, -1) {
		child := parseAndGroup(orPart, resolver)
		if child != nil {
			orChildren = append(orChildren, child)
		}
	}

	switch len(orChildren) {
	case 0:
		return nil
	case 1:
		return orChildren[0]
	}
	return Or{Children: orChildren}
}

// parseAndGroup compiles one OR operand: conditions joined by AND.
// A group whose conditions all drop yields nil and is discarded by the caller.
func parseAndGroup(group string, resolver *common.Resolver) Node {
	var children []Node
	for _, atom := range andSplitRe.Split(group, -1) {
		if cond, ok := parseCond(atom, resolver); ok {
			children = append(children, cond)
		}
	}

	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	}
	return And{Children: children}
}

func parseCond(atom string, resolver *common.Resolver) (Cond, bool) {
	atom = strings.TrimSpace(atom)
	if atom == "" {
		return Cond{}, false
	}

	op, pos := findOperator(atom)
	if pos < 0 {
		logrus.Warnf("filter: no operator in condition %q, dropping it", atom)
		return Cond{}, false
	}

	name := strings.TrimSpace(atom[:pos])
	literal := strings.TrimSpace(atom[pos+len(op):])

	col, err := resolver.IndexOf(name)
	if err != nil {
		logrus.Warnf("filter: %v, dropping condition %q", err, atom)
		return Cond{}, false
	}

	return NewCond(col, op, literal), true
}

// findOperator returns the first operator found in s, trying the
// two-character operators before the one-character ones.
func findOperator(s string) (Op, int) {
	for _, op := range operators {
		if pos := strings.Index(s, string(op)); pos >= 0 {
			return op, pos
		}
	}
	return "", -1
}
