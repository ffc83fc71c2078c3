package writer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCsvAppenderCreatesFileWithHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics", "history.csv")
	w := NewCsvAppender(AppenderConfig{CsvPath: path})

	headers := []string{"timestamp", "mode", "millis"}
	require.NoError(t, w.Append(headers, [][]string{{"t1", "SEQUENTIAL", "12"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "timestamp,mode,millis\nt1,SEQUENTIAL,12\n", string(data))
}

func TestCsvAppenderAppendsToExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	w := NewCsvAppender(AppenderConfig{CsvPath: path})

	headers := []string{"a", "b"}
	require.NoError(t, w.Append(headers, [][]string{{"1", "2"}}))
	require.NoError(t, w.Append(headers, [][]string{{"3", "4"}}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n3,4\n", string(data))
}

func TestCsvAppenderRejectsHeaderMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	w := NewCsvAppender(AppenderConfig{CsvPath: path})

	require.NoError(t, w.Append([]string{"a", "b"}, [][]string{{"1", "2"}}))

	err := w.Append([]string{"a", "c"}, [][]string{{"3", "4"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header mismatch")
}

func TestCsvAppenderRequiresHeaderForNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.csv")
	w := NewCsvAppender(AppenderConfig{CsvPath: path})

	err := w.Append(nil, [][]string{{"1"}})
	assert.Error(t, err)
}
