package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	dataDir   = "data"
	outputDir = "output"
)

// normalizeInputPath forces bare input names under ./data/ and enforces the
// .csv extension. Explicit relative or absolute paths are respected.
func normalizeInputPath(path string) (string, error) {
	path = ensureCsvExt(path)
	if filepath.Dir(path) == "." {
		path = filepath.Join(dataDir, path)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("input %s: %w", path, err)
	}
	return path, nil
}

// normalizeOutputPath forces bare output names under ./output/ and creates
// the parent directory.
func normalizeOutputPath(path string) (string, error) {
	path = ensureCsvExt(path)
	if filepath.Dir(path) == "." {
		path = filepath.Join(outputDir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return path, nil
}

func ensureCsvExt(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return path
	}
	return path + ".csv"
}
