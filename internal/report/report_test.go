package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSummary() Summary {
	start := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	return Summary{
		Label:      "CONCURRENT",
		InputPath:  "data/in.csv",
		OutputPath: "output/out.csv",
		LogPath:    "output/out.log",
		Start:      start,
		End:        start.Add(1250 * time.Millisecond),
		Valid:      10,
		Errors:     1,
	}
}

func TestSummaryTiming(t *testing.T) {
	s := sampleSummary()
	assert.Equal(t, int64(1250), s.Millis())
	assert.InDelta(t, 1.25, s.Seconds(), 0.0001)
}

func TestSummaryPrint(t *testing.T) {
	var b strings.Builder
	sampleSummary().Print(&b)

	out := b.String()
	assert.Contains(t, out, "[CONCURRENT]")
	assert.Contains(t, out, "in.csv")
	assert.Contains(t, out, "out.csv")
	assert.Contains(t, out, "1250 ms (1.25 s)")
	assert.Contains(t, out, "10 valid, 1 errors")
}

func TestAppendHistoryCreatesAndAppends(t *testing.T) {
	base := t.TempDir()

	require.NoError(t, AppendHistory(base, sampleSummary()))
	require.NoError(t, AppendHistory(base, sampleSummary()))

	data, err := os.ReadFile(filepath.Join(base, "metrics", "history.csv"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 3, "header plus two records")
	assert.Equal(t, "timestamp,mode,input,output,millis,seconds", lines[0])
	assert.Contains(t, lines[1], "CONCURRENT")
	assert.Contains(t, lines[1], "in.csv")
	assert.Contains(t, lines[1], "1250")
	assert.Contains(t, lines[1], "1.25")
}
