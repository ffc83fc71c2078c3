// Package report emits the per-run summary and the execution-history log.
package report

import (
	"fmt"
	"io"
	"path/filepath"
	"time"
)

// Summary captures the timing and file-path diagnostics of one run.
type Summary struct {
	Label      string // SEQUENTIAL / CONCURRENT / CONCURRENT IN-MEMORY
	InputPath  string
	OutputPath string
	LogPath    string
	TempDir    string // file-part engine only
	Start      time.Time
	End        time.Time
	Valid      int64
	Errors     int64
}

// Millis returns the elapsed wall time in milliseconds.
func (s Summary) Millis() int64 {
	return s.End.Sub(s.Start).Milliseconds()
}

// Seconds returns the elapsed wall time in seconds.
func (s Summary) Seconds() float64 {
	return s.End.Sub(s.Start).Seconds()
}

// Print writes the run summary block.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintf(w, "\n[%s]\n", s.Label)
	fmt.Fprintf(w, "Input:    %s\n", filepath.Base(s.InputPath))
	fmt.Fprintf(w, "Output:   %s\n", filepath.Base(s.OutputPath))
	fmt.Fprintf(w, "Rows:     %d valid, %d errors\n", s.Valid, s.Errors)
	fmt.Fprintf(w, "Elapsed:  %d ms (%.2f s)\n", s.Millis(), s.Seconds())
	if p, err := filepath.Abs(s.OutputPath); err == nil {
		fmt.Fprintf(w, "Output path: %s\n", p)
	}
	if s.LogPath != "" {
		if p, err := filepath.Abs(s.LogPath); err == nil {
			fmt.Fprintf(w, "Log path:    %s\n", p)
		}
	}
	if s.TempDir != "" {
		if p, err := filepath.Abs(s.TempDir); err == nil {
			fmt.Fprintf(w, "Temp dir:    %s\n", p)
		}
	}
}
