// Package common holds the shared CSV primitives used by every engine:
// single-separator line splitting, projection assembly and header resolution.
package common

import (
	"errors"
	"fmt"
	"strings"
)

// ErrColumnNotFound is returned when a header lookup misses.
var ErrColumnNotFound = errors.New("column not found")

// ErrEmptyInput is returned when an input file has no header line.
var ErrEmptyInput = errors.New("empty input: no header line")

// SplitLine splits a raw line on a single-byte separator.
// Trailing empty fields are preserved, matching the header column count rules.
func SplitLine(line string, sep byte) []string {
	return strings.Split(line, string(sep))
}

// CountColumns returns the number of columns in a header line.
func CountColumns(headerLine string, sep byte) int {
	return len(SplitLine(headerLine, sep))
}

// IsBlank reports whether a line is empty after trimming.
func IsBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// ProjectFields rewrites a row to the fields at the selected indices, in
// selection order. Indices beyond the row produce empty fields so that
// projection stays total on short rows.
func ProjectFields(fields []string, selected []int) []string {
	out := make([]string, len(selected))
	for i, idx := range selected {
		if idx >= 0 && idx < len(fields) {
			out[i] = fields[idx]
		}
	}
	return out
}

// BuildLine assembles the projected fields of a row into b.
// Hot-path variant of ProjectFields + Join.
func BuildLine(b *strings.Builder, fields []string, selected []int, sep byte) {
	for i, idx := range selected {
		if i > 0 {
			b.WriteByte(sep)
		}
		if idx >= 0 && idx < len(fields) {
			b.WriteString(fields[idx])
		}
	}
}

// JoinLine is BuildLine into a fresh string.
func JoinLine(fields []string, selected []int, sep byte) string {
	var b strings.Builder
	BuildLine(&b, fields, selected, sep)
	return b.String()
}

// Resolver maps trimmed header names to 0-based column positions.
// When a name repeats, the last occurrence wins.
type Resolver struct {
	header []string
	index  map[string]int
}

// NewResolver builds a resolver from the header fields.
func NewResolver(header []string) *Resolver {
	r := &Resolver{
		header: header,
		index:  make(map[string]int, len(header)),
	}
	for i, name := range header {
		r.index[strings.TrimSpace(name)] = i
	}
	return r
}

// IndexOf returns the 0-based position of the trimmed name.
func (r *Resolver) IndexOf(name string) (int, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return -1, fmt.Errorf("%w: empty name", ErrColumnNotFound)
	}
	idx, ok := r.index[trimmed]
	if !ok {
		return -1, fmt.Errorf("%w: %q (headers: %v)", ErrColumnNotFound, trimmed, r.header)
	}
	return idx, nil
}

// HasColumn reports whether the trimmed name exists in the header.
func (r *Resolver) HasColumn(name string) bool {
	_, ok := r.index[strings.TrimSpace(name)]
	return ok
}

// Header returns the header fields backing this resolver.
func (r *Resolver) Header() []string {
	return r.header
}
