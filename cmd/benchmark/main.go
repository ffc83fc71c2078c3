// Command benchmark generates a synthetic CSV and times the three engines
// against the same filter and projection.
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/csvpipe/csvpipe/internal/engine"
)

func main() {
	sizeMB := 200
	if len(os.Args) > 1 {
		if n, err := strconv.Atoi(os.Args[1]); err == nil && n > 0 {
			sizeMB = n
		}
	}

	tmpDir, err := os.MkdirTemp("", "csvpipe_bench")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	csvPath := filepath.Join(tmpDir, "bench.csv")
	rows, bytesWritten := generate(csvPath, int64(sizeMB)*1024*1024)
	fmt.Printf("Generated %d rows (%.2f MB)\n\n", rows, float64(bytesWritten)/1024/1024)

	modes := []engine.Mode{engine.ModeSequential, engine.ModeParts, engine.ModeBatch}
	for _, mode := range modes {
		cfg := engine.Config{
			InputPath:  csvPath,
			OutputPath: filepath.Join(tmpDir, "out_"+string(mode)+".csv"),
			Columns:    "1,3",
			Filter:     "value >= 5000",
		}

		start := time.Now()
		stats, err := engine.Run(mode, cfg)
		elapsed := time.Since(start)
		if err != nil {
			panic(err)
		}

		mbPerSec := float64(bytesWritten) / 1024 / 1024 / elapsed.Seconds()
		fmt.Printf("%-22s %8d rows  %6v  %.2f MB/s\n", mode.Label(), stats.Valid, elapsed.Round(time.Millisecond), mbPerSec)
	}
}

// generate writes id,code,value,city rows until the size limit is reached.
func generate(path string, limit int64) (int, int64) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}

	w := bufio.NewWriterSize(f, 64*1024)
	w.WriteString("id,code,value,city\n")

	cities := []string{"Roma", "Coyoacan", "Lisboa", "Quito", "Osaka"}
	rng := rand.New(rand.NewSource(123))

	var bytesWritten int64
	rows := 0
	buf := make([]byte, 0, 256)
	for bytesWritten < limit {
		rows++
		buf = buf[:0]
		buf = fmt.Appendf(buf, "%d,US-%d,%d,%s\n", rows, rng.Intn(1000), rng.Intn(10000), cities[rng.Intn(len(cities))])
		n, _ := w.Write(buf)
		bytesWritten += int64(n)
	}
	w.Flush()
	f.Close()
	return rows, bytesWritten
}
