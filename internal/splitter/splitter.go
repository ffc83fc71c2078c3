// Package splitter implements the split phase of the file-part engine: it
// scans the input once, partitions the non-empty data lines into contiguous
// equal-sized chunks in input order, and writes each chunk as a headerless
// part file inside a temp directory co-located with the output file.
package splitter

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4/v4"

	"github.com/csvpipe/csvpipe/internal/common"
)

const partBufferSize = 256 * 1024

// Config holds the split parameters.
type Config struct {
	InputPath  string
	OutputPath string // the temp dir lives next to this file
	Parts      int

	// Compress writes part files through lz4 frames. Part contents are
	// byte-identical after the round trip; only the spill I/O shrinks.
	Compress bool
}

// PartFile is one headerless chunk of the input's data lines.
type PartFile struct {
	Index   int
	Path    string // part_i.csv (plus .lz4 when compressed)
	OutPath string // part_i_out.csv, written later by the part's worker
	Lines   int
}

// Result describes a completed split. Cleanup must be called on every exit
// path once the parts are no longer needed.
type Result struct {
	HeaderLine string
	DataLines  int
	TempDir    string
	Parts      []PartFile

	compressed bool
}

// Split reads the input and writes cfg.Parts part files. Blank lines are
// never counted and never written. An input without a header line fails
// with common.ErrEmptyInput.
func Split(cfg Config) (*Result, error) {
	if cfg.Parts <= 0 {
		cfg.Parts = 1
	}

	f, err := os.Open(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	data, err := common.MmapFile(f)
	if err != nil {
		return nil, err
	}
	defer common.MunmapFile(data)

	headerLine, body, err := splitHeader(data)
	if err != nil {
		return nil, err
	}

	lines := dataLines(body)

	tempDir, err := makeTempDir(cfg.OutputPath)
	if err != nil {
		return nil, err
	}

	res := &Result{
		HeaderLine: headerLine,
		DataLines:  len(lines),
		TempDir:    tempDir,
		compressed: cfg.Compress,
	}

	if err := res.writeParts(lines, cfg.Parts); err != nil {
		res.Cleanup()
		return nil, err
	}
	return res, nil
}

// splitHeader separates the header line from the data body.
func splitHeader(data []byte) (string, []byte, error) {
	if len(data) == 0 {
		return "", nil, common.ErrEmptyInput
	}
	idx := bytes.IndexByte(data, '\n')
	if idx == -1 {
		return string(trimCR(data)), nil, nil
	}
	return string(trimCR(data[:idx])), data[idx+1:], nil
}

// dataLines collects the non-empty lines of the body, in input order.
func dataLines(body []byte) [][]byte {
	var lines [][]byte
	for start := 0; start < len(body); {
		end := bytes.IndexByte(body[start:], '\n')
		var line []byte
		if end == -1 {
			line = body[start:]
			start = len(body)
		} else {
			line = body[start : start+end]
			start += end + 1
		}
		line = trimCR(line)
		if len(bytes.TrimSpace(line)) > 0 {
			lines = append(lines, line)
		}
	}
	return lines
}

func trimCR(line []byte) []byte {
	if len(line) > 0 && line[len(line)-1] == '\r' {
		return line[:len(line)-1]
	}
	return line
}

// TempDirFor returns the part directory a split against outputPath uses:
// co-located with the output file and named after its base name, so
// concurrent runs against different outputs never collide.
func TempDirFor(outputPath string) string {
	base := filepath.Base(outputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(outputPath), ".csvpipe_parts_"+base)
}

func makeTempDir(outputPath string) (string, error) {
	dir := TempDirFor(outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create temp directory: %w", err)
	}
	return dir, nil
}

// writeParts partitions lines into contiguous chunks: base = total/parts,
// and the first total%parts chunks carry one extra line. Every part file is
// created even when it receives zero lines, keeping indices dense.
func (r *Result) writeParts(lines [][]byte, parts int) error {
	total := len(lines)
	base := total / parts
	remainder := total % parts

	cursor := 0
	for i := 0; i < parts; i++ {
		count := base
		if i < remainder {
			count++
		}

		part := PartFile{
			Index:   i,
			Path:    filepath.Join(r.TempDir, fmt.Sprintf("part_%d.csv", i)),
			OutPath: filepath.Join(r.TempDir, fmt.Sprintf("part_%d_out.csv", i)),
			Lines:   count,
		}
		if r.compressed {
			part.Path += ".lz4"
		}

		if err := writePart(part.Path, lines[cursor:cursor+count], r.compressed); err != nil {
			return fmt.Errorf("write part %d: %w", i, err)
		}
		cursor += count
		r.Parts = append(r.Parts, part)
	}
	return nil
}

func writePart(path string, lines [][]byte, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	var sink io.Writer = f
	var lzw *lz4.Writer
	if compress {
		lzw = lz4.NewWriter(f)
		sink = lzw
	}
	w := bufio.NewWriterSize(sink, partBufferSize)

	for _, line := range lines {
		if _, err := w.Write(line); err != nil {
			f.Close()
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			f.Close()
			return err
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if lzw != nil {
		if err := lzw.Close(); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

// OpenPart opens a part file for reading, transparently decompressing
// lz4 parts.
func (r *Result) OpenPart(p PartFile) (io.ReadCloser, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("open part %d: %w", p.Index, err)
	}
	if !r.compressed {
		return f, nil
	}
	return &lz4PartReader{r: lz4.NewReader(f), f: f}, nil
}

type lz4PartReader struct {
	r io.Reader
	f *os.File
}

func (p *lz4PartReader) Read(b []byte) (int, error) { return p.r.Read(b) }
func (p *lz4PartReader) Close() error               { return p.f.Close() }

// Cleanup removes the temp directory and everything in it. Safe to call
// more than once.
func (r *Result) Cleanup() {
	if r.TempDir != "" {
		os.RemoveAll(r.TempDir)
	}
}
