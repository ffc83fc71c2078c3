package engine

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/csvpipe/csvpipe/internal/common"
	"github.com/csvpipe/csvpipe/internal/writer"
)

// RunSequential is the single-threaded reference baseline: read, filter,
// project, write, in input order.
func RunSequential(cfg Config) (RowStats, error) {
	cfg.applyDefaults()
	var stats RowStats

	if err := checkInput(cfg.InputPath); err != nil {
		return stats, err
	}

	in, err := os.Open(cfg.InputPath)
	if err != nil {
		return stats, fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, ioBufferSize), maxLineBytes)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return stats, fmt.Errorf("read header: %w", err)
		}
		return stats, common.ErrEmptyInput
	}

	ctx, err := Build(sc.Text(), cfg.Columns, cfg.Filter, cfg.sep())
	if err != nil {
		return stats, err
	}

	out, err := os.Create(cfg.OutputPath)
	if err != nil {
		return stats, fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	w := bufio.NewWriterSize(out, ioBufferSize)
	runLog := writer.NewRunLog(cfg.LogPath)

	w.WriteString(ctx.headerLine(cfg.sep()))
	w.WriteByte('\n')

	var row strings.Builder
	lineNo := 1 // the header is line 1
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if common.IsBlank(line) {
			continue
		}

		fields := common.SplitLine(line, cfg.sep())
		if len(fields) != ctx.TotalColumns {
			stats.Error++
			msg := fmt.Sprintf("Line %d invalid columns: %d (expected %d)", lineNo, len(fields), ctx.TotalColumns)
			if err := runLog.Append(msg); err != nil {
				logrus.Warnf("run log: %v", err)
			}
			continue
		}

		if ctx.Filter != nil && !ctx.Filter.Matches(fields) {
			continue
		}

		row.Reset()
		common.BuildLine(&row, fields, ctx.Selected, cfg.sep())
		w.WriteString(row.String())
		w.WriteByte('\n')
		stats.Valid++
	}

	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("read input: %w", err)
	}
	if err := w.Flush(); err != nil {
		return stats, fmt.Errorf("flush output: %w", err)
	}
	return stats, nil
}
