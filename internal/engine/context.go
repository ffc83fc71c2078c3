package engine

import (
	"github.com/csvpipe/csvpipe/internal/common"
	"github.com/csvpipe/csvpipe/internal/filter"
)

// Context is the compiled, immutable plan of one run. It is built once by
// the manager and shared read-only across all workers.
type Context struct {
	Header       []string
	TotalColumns int
	Selected     []int
	Filter       filter.Node // nil means all rows pass
}

// Build compiles a processing context from the raw header line, the column
// spec and the filter expression.
func Build(headerLine, columnsSpec, filterExpr string, sep byte) (*Context, error) {
	header := common.SplitLine(headerLine, sep)

	selected, err := ParseSelection(columnsSpec, len(header))
	if err != nil {
		return nil, err
	}

	resolver := common.NewResolver(header)
	node := filter.Parse(filterExpr, resolver)

	return &Context{
		Header:       header,
		TotalColumns: len(header),
		Selected:     selected,
		Filter:       node,
	}, nil
}

// headerLine renders the projected output header.
func (c *Context) headerLine(sep byte) string {
	return common.JoinLine(c.Header, c.Selected, sep)
}
