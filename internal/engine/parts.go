package engine

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/csvpipe/csvpipe/internal/common"
	"github.com/csvpipe/csvpipe/internal/splitter"
	"github.com/csvpipe/csvpipe/internal/writer"
)

// partResult carries one worker's outcome back to the manager. The file-part
// engine logs row faults through the shared run log as it goes, but row
// statistics travel by value so the manager can report a unified count.
type partResult struct {
	part  int
	stats RowStats
	err   error
}

// RunParts executes the file-part engine: split the input into contiguous
// part files, process every part concurrently, then merge the partial
// outputs in index order. The temp directory is removed on every exit path.
func RunParts(cfg Config) (RowStats, error) {
	var stats RowStats
	cfg.applyDefaults()

	if err := checkInput(cfg.InputPath); err != nil {
		return stats, err
	}

	split, err := splitter.Split(splitter.Config{
		InputPath:  cfg.InputPath,
		OutputPath: cfg.OutputPath,
		Parts:      cfg.Parts,
		Compress:   cfg.CompressParts,
	})
	if err != nil {
		return stats, err
	}
	defer split.Cleanup()

	ctx, err := Build(split.HeaderLine, cfg.Columns, cfg.Filter, cfg.sep())
	if err != nil {
		return stats, err
	}

	runLog := writer.NewRunLog(cfg.LogPath)

	var wg sync.WaitGroup
	results := make(chan partResult, len(split.Parts))
	for _, p := range split.Parts {
		wg.Add(1)
		go func(p splitter.PartFile) {
			defer wg.Done()
			st, err := processPart(split, p, ctx, cfg.sep(), runLog)
			results <- partResult{part: p.Index, stats: st, err: err}
		}(p)
	}
	wg.Wait()
	close(results)

	var firstErr error
	for r := range results {
		stats = stats.add(r.stats)
		if r.err != nil && firstErr == nil {
			firstErr = fmt.Errorf("part %d: %w", r.part, r.err)
		}
	}
	if firstErr != nil {
		return stats, firstErr
	}

	if err := mergeParts(cfg, ctx, split); err != nil {
		return stats, err
	}
	return stats, nil
}

// processPart transforms one part file into its partial output. Workers
// never share files: each owns its part and its out-file exclusively, and
// only the run log crosses goroutines.
func processPart(split *splitter.Result, p splitter.PartFile, ctx *Context, sep byte, runLog *writer.RunLog) (RowStats, error) {
	var stats RowStats

	in, err := split.OpenPart(p)
	if err != nil {
		return stats, err
	}
	defer in.Close()

	out, err := os.Create(p.OutPath)
	if err != nil {
		return stats, fmt.Errorf("create part output: %w", err)
	}
	defer out.Close()

	w := bufio.NewWriterSize(out, ioBufferSize)
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, ioBufferSize), maxLineBytes)

	var row strings.Builder
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if common.IsBlank(line) {
			continue
		}

		fields := common.SplitLine(line, sep)
		if len(fields) != ctx.TotalColumns {
			stats.Error++
			msg := fmt.Sprintf("Part %d line %d invalid columns: %d (expected %d)", p.Index, lineNo, len(fields), ctx.TotalColumns)
			if err := runLog.Append(msg); err != nil {
				logrus.Warnf("run log: %v", err)
			}
			continue
		}

		if ctx.Filter != nil && !ctx.Filter.Matches(fields) {
			continue
		}

		row.Reset()
		common.BuildLine(&row, fields, ctx.Selected, sep)
		w.WriteString(row.String())
		w.WriteByte('\n')
		stats.Valid++
	}

	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("read part: %w", err)
	}
	if err := w.Flush(); err != nil {
		return stats, fmt.Errorf("flush part output: %w", err)
	}
	return stats, nil
}

// mergeParts writes the projected header and concatenates every partial
// output in index order. Contiguous chunking makes the merged sequence equal
// to the sequential engine's output.
func mergeParts(cfg Config, ctx *Context, split *splitter.Result) error {
	out, err := os.Create(cfg.OutputPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	w := bufio.NewWriterSize(out, ioBufferSize)
	w.WriteString(ctx.headerLine(cfg.sep()))
	w.WriteByte('\n')

	for _, p := range split.Parts {
		if err := appendPartOutput(w, p.OutPath); err != nil {
			return fmt.Errorf("merge part %d: %w", p.Index, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

func appendPartOutput(w *bufio.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, ioBufferSize), maxLineBytes)
	for sc.Scan() {
		line := sc.Text()
		if common.IsBlank(line) {
			continue
		}
		w.WriteString(line)
		w.WriteByte('\n')
	}
	return sc.Err()
}
