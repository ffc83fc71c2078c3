package engine

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/csvpipe/csvpipe/internal/common"
)

// BatchResult is the immutable value a worker hands back for one batch.
// Workers never touch shared files; the manager alone writes the output and
// the log, so the hot path needs no locking at all.
type BatchResult struct {
	Batch     int
	Output    string
	Log       string
	Processed int64 // rows that made it into Output
	Errors    int64 // rows dropped and recorded in Log
}

type batchJob struct {
	num   int
	lines []string
}

// RunBatch executes the in-memory batch engine: a single reader streams the
// input into line batches, a bounded worker pool transforms them, and the
// manager appends results in batch submission order, so the output order is
// the input order.
//
// The jobs channel is bounded to the pool size: when every worker is busy
// and the queue is full, the reader blocks, which is the engine's
// back-pressure.
func RunBatch(cfg Config) (RowStats, error) {
	var stats RowStats
	cfg.applyDefaults()

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
	w.WriteString(ctx.headerLine(cfg.sep()))
	w.WriteByte('\n')

	workers := cfg.Parts
	jobs := make(chan batchJob, workers)
	results := make(chan BatchResult, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- transformBatch(ctx, cfg.sep(), job)
			}
		}()
	}

	// The reader is the sole producer; it owns batch numbering, so batch
	// numbers are dense and monotonic in submission order.
	readErr := make(chan error, 1)
	go func() {
		defer close(jobs)
		batch := make([]string, 0, cfg.BatchLines)
		num := 0
		for sc.Scan() {
			line := sc.Text()
			if common.IsBlank(line) {
				continue
			}
			batch = append(batch, line)
			if len(batch) >= cfg.BatchLines {
				jobs <- batchJob{num: num, lines: batch}
				num++
				batch = make([]string, 0, cfg.BatchLines)
			}
		}
		if len(batch) > 0 {
			jobs <- batchJob{num: num, lines: batch}
		}
		readErr <- sc.Err()
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Interleave results back into submission order.
	var logFile *os.File
	defer func() {
		if logFile != nil {
			logFile.Close()
		}
	}()

	// A write failure must not strand workers blocked on the results
	// channel, so the loop keeps draining after the first error.
	var runErr error
	pending := make(map[int]BatchResult)
	next := 0
	for res := range results {
		if runErr != nil {
			continue
		}
		pending[res.Batch] = res
		for runErr == nil {
			r, ok := pending[next]
			if !ok {
				break
			}
			if _, err := w.WriteString(r.Output); err != nil {
				runErr = fmt.Errorf("write batch %d: %w", r.Batch, err)
				break
			}
			if r.Log != "" && cfg.LogPath != "" {
				if logFile == nil {
					logFile, err = os.OpenFile(cfg.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
					if err != nil {
						runErr = fmt.Errorf("open log: %w", err)
						break
					}
				}
				if _, err := logFile.WriteString(r.Log); err != nil {
					runErr = fmt.Errorf("write log: %w", err)
					break
				}
			}
			stats.Valid += r.Processed
			stats.Error += r.Errors
			delete(pending, next)
			next++
		}
	}
	if runErr != nil {
		<-readErr
		return stats, runErr
	}

	if err := <-readErr; err != nil {
		return stats, fmt.Errorf("read input: %w", err)
	}
	if err := w.Flush(); err != nil {
		return stats, fmt.Errorf("flush output: %w", err)
	}
	return stats, nil
}

// transformBatch projects and filters one batch into an output buffer and a
// log buffer. Row faults are recorded with the raw line content and the row
// is dropped; Processed counts only rows actually emitted.
func transformBatch(ctx *Context, sep byte, job batchJob) BatchResult {
	res := BatchResult{Batch: job.num}

	var out, logBuf strings.Builder
	for _, line := range job.lines {
		fields := common.SplitLine(line, sep)
		if len(fields) != ctx.TotalColumns {
			fmt.Fprintf(&logBuf, "Batch %d - Error in line: invalid columns: %d (expected %d) | Content: %s\n",
				job.num, len(fields), ctx.TotalColumns, line)
			res.Errors++
			continue
		}

		if ctx.Filter != nil && !ctx.Filter.Matches(fields) {
			continue
		}

		common.BuildLine(&out, fields, ctx.Selected, sep)
		out.WriteByte('\n')
		res.Processed++
	}

	res.Output = out.String()
	res.Log = logBuf.String()
	return res
}
