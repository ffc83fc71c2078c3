package writer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
)

// AppenderConfig holds configuration for the CSV appender.
type AppenderConfig struct {
	CsvPath   string
	Separator string
}

// CsvAppender appends rows to a CSV file under an exclusive lock, creating
// the file with its header on first use and validating the header on every
// later append. The execution-history log is its only in-tree client, but
// the contract is generic.
type CsvAppender struct {
	config AppenderConfig
}

// NewCsvAppender creates an appender.
func NewCsvAppender(config AppenderConfig) *CsvAppender {
	if config.Separator == "" {
		config.Separator = ","
	}
	return &CsvAppender{config: config}
}

// Append writes rows to the file. A new (or empty) file is initialized with
// headers first; an existing file must carry the same headers or the append
// is refused.
func (w *CsvAppender) Append(headers []string, rows [][]string) error {
	dir := filepath.Dir(w.config.CsvPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	file, err := os.OpenFile(w.config.CsvPath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	if err := lockFile(file); err != nil {
		return fmt.Errorf("lock file: %w", err)
	}
	defer unlockFile(file)

	stat, err := file.Stat()
	if err != nil {
		return err
	}

	csvW := csv.NewWriter(file)
	csvW.Comma = rune(w.config.Separator[0])

	if stat.Size() == 0 {
		if len(headers) == 0 {
			return fmt.Errorf("cannot create new file without headers")
		}
		if err := csvW.Write(headers); err != nil {
			return err
		}
	} else if len(headers) > 0 {
		// Validate against the first line. O_APPEND keeps the write
		// position pinned to the end, so seeking only moves reads.
		if _, err := file.Seek(0, 0); err != nil {
			return fmt.Errorf("seek: %w", err)
		}
		reader := csv.NewReader(file)
		reader.Comma = rune(w.config.Separator[0])
		existing, err := reader.Read()
		if err != nil {
			return fmt.Errorf("read existing headers: %w", err)
		}
		if !reflect.DeepEqual(existing, headers) {
			return fmt.Errorf("header mismatch. File: %v, New: %v", existing, headers)
		}
	}

	if err := csvW.WriteAll(rows); err != nil {
		return err
	}

	csvW.Flush()
	return csvW.Error()
}
