package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadColumnSpec is returned when a column-selection token is not a valid
// 1-based column number.
var ErrBadColumnSpec = errors.New("bad column spec")

// ParseSelection interprets a column spec against a header of total columns.
// An empty spec or "*" selects every column in order. Otherwise the spec is
// a comma-separated list of 1-based column numbers; order is preserved and
// duplicates are allowed, permitting output reordering or repetition.
func ParseSelection(spec string, total int) ([]int, error) {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" || trimmed == "*" {
		all := make([]int, total)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	tokens := strings.Split(trimmed, ",")
	selected := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		t := strings.TrimSpace(tok)
		n, err := strconv.Atoi(t)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a column number", ErrBadColumnSpec, t)
		}
		if n < 1 || n > total {
			return nil, fmt.Errorf("%w: column %d out of range 1..%d", ErrBadColumnSpec, n, total)
		}
		selected = append(selected, n-1)
	}
	return selected, nil
}
