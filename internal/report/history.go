package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/csvpipe/csvpipe/internal/writer"
)

const (
	historyDir  = "metrics"
	historyFile = "history.csv"
)

var historyHeader = []string{"timestamp", "mode", "input", "output", "millis", "seconds"}

// AppendHistory records a run in baseDir/metrics/history.csv. The appender
// creates the file with its header on first use and takes an exclusive lock,
// so concurrent csvpipe processes interleave whole records.
func AppendHistory(baseDir string, s Summary) error {
	path := filepath.Join(baseDir, historyDir, historyFile)
	appender := writer.NewCsvAppender(writer.AppenderConfig{CsvPath: path})

	row := []string{
		s.Start.Format(time.RFC3339),
		s.Label,
		filepath.Base(s.InputPath),
		filepath.Base(s.OutputPath),
		fmt.Sprintf("%d", s.Millis()),
		fmt.Sprintf("%.2f", s.Seconds()),
	}
	return appender.Append(historyHeader, [][]string{row})
}
