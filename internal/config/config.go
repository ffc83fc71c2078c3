// Package config persists run configurations as JSON sidecar files, so a
// transformation can be replayed or shipped to the daemon unchanged.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/csvpipe/csvpipe/internal/engine"
)

// RunConfig is the JSON form of one transformation request.
type RunConfig struct {
	Mode          string `json:"mode,omitempty"` // sequential | parts | batch
	Input         string `json:"input"`
	Output        string `json:"output"`
	Log           string `json:"log,omitempty"`
	Columns       string `json:"columns,omitempty"` // "*" or 1-based list
	Filter        string `json:"filter,omitempty"`
	Separator     string `json:"separator,omitempty"`
	Parts         int    `json:"parts,omitempty"`
	BatchLines    int    `json:"batchLines,omitempty"`
	CompressParts bool   `json:"compressParts,omitempty"`
}

// Load reads a run config from a JSON file.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c RunConfig
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &c, nil
}

// Save writes the config as indented JSON.
func (c *RunConfig) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields the engines cannot default away.
func (c *RunConfig) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("config: input path is required")
	}
	if c.Output == "" {
		return fmt.Errorf("config: output path is required")
	}
	if c.Separator != "" && len(c.Separator) != 1 {
		return fmt.Errorf("config: separator must be a single character, got %q", c.Separator)
	}
	switch engine.Mode(c.Mode) {
	case "", engine.ModeSequential, engine.ModeParts, engine.ModeBatch:
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	return nil
}

// EngineConfig converts to the engine's config type.
func (c *RunConfig) EngineConfig() engine.Config {
	return engine.Config{
		InputPath:     c.Input,
		OutputPath:    c.Output,
		LogPath:       c.Log,
		Columns:       c.Columns,
		Filter:        c.Filter,
		Separator:     c.Separator,
		Parts:         c.Parts,
		BatchLines:    c.BatchLines,
		CompressParts: c.CompressParts,
	}
}

// EngineMode converts the mode string, defaulting to sequential.
func (c *RunConfig) EngineMode() engine.Mode {
	if c.Mode == "" {
		return engine.ModeSequential
	}
	return engine.Mode(c.Mode)
}
