// Package engine contains the three execution strategies that transform a
// CSV into its filtered, projected derivative: a sequential baseline, a
// file-part concurrent engine and an in-memory batch concurrent engine.
package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// ioBufferSize keeps syscalls low without huge RSS.
	ioBufferSize = 256 * 1024

	// maxLineBytes bounds a single CSV line for the scanners.
	maxLineBytes = 4 * 1024 * 1024

	// DefaultBatchLines is the in-memory engine's batch size.
	DefaultBatchLines = 10_000
)

// Mode selects an execution strategy.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeParts      Mode = "parts"
	ModeBatch      Mode = "batch"
)

// Label returns the run-summary label for the mode.
func (m Mode) Label() string {
	switch m {
	case ModeParts:
		return "CONCURRENT"
	case ModeBatch:
		return "CONCURRENT IN-MEMORY"
	default:
		return "SEQUENTIAL"
	}
}

// Config holds the parameters of one transformation run.
type Config struct {
	InputPath  string
	OutputPath string
	LogPath    string // derived from OutputPath when empty
	Columns    string // "*" or comma-separated 1-based column numbers
	Filter     string // filter expression, may be empty
	Separator  string // single character, default ","
	Parts      int    // part/worker count, default logical CPUs
	BatchLines int    // in-memory engine batch size

	// CompressParts writes the file-part engine's temp part files through
	// lz4 frames, trading CPU for spill I/O.
	CompressParts bool
}

// applyDefaults fills the zero-value fields in place.
func (c *Config) applyDefaults() {
	if c.Separator == "" {
		c.Separator = ","
	}
	if c.Parts <= 0 {
		c.Parts = runtime.NumCPU()
	}
	if c.BatchLines <= 0 {
		c.BatchLines = DefaultBatchLines
	}
	if c.LogPath == "" && c.OutputPath != "" {
		base := strings.TrimSuffix(c.OutputPath, filepath.Ext(c.OutputPath))
		c.LogPath = base + ".log"
	}
}

func (c *Config) sep() byte {
	return c.Separator[0]
}

// RowStats accumulates per-run row counters.
type RowStats struct {
	Valid int64 // rows written to the output
	Error int64 // rows dropped for structural faults
}

func (s RowStats) add(o RowStats) RowStats {
	return RowStats{Valid: s.Valid + o.Valid, Error: s.Error + o.Error}
}

// checkInput verifies the input path exists and is a regular file.
func checkInput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("input %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("input %s: not a regular file", path)
	}
	return nil
}

// Run dispatches to the engine selected by mode.
func Run(mode Mode, cfg Config) (RowStats, error) {
	switch mode {
	case ModeParts:
		return RunParts(cfg)
	case ModeBatch:
		return RunBatch(cfg)
	case ModeSequential, "":
		return RunSequential(cfg)
	}
	return RowStats{}, fmt.Errorf("unknown mode %q", mode)
}
