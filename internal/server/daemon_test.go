package server

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csvpipe/csvpipe/internal/config"
)

func startDaemon(t *testing.T) (*UDSDaemon, string) {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "csvpipe.sock")
	d := NewUDSDaemon(DaemonConfig{SocketPath: socket, IdleTimeout: 5 * time.Second})

	go func() {
		if err := d.Start(); err != nil {
			t.Errorf("daemon: %v", err)
		}
	}()
	t.Cleanup(d.Shutdown)

	// Wait for the socket to appear.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(socket); err == nil {
			return d, socket
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("daemon socket never appeared")
	return nil, ""
}

func roundTrip(t *testing.T, socket string, req config.RunConfig) Response {
	t.Helper()

	conn, err := net.Dial("unix", socket)
	require.NoError(t, err)
	defer conn.Close()

	payload, err := json.Marshal(req)
	require.NoError(t, err)

	_, err = conn.Write(append(payload, '\n'))
	require.NoError(t, err)

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(line, &resp))
	return resp
}

func TestDaemonRunsTransform(t *testing.T) {
	_, socket := startDaemon(t)

	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(in, []byte("name,age\nalice,30\nbob,17\n"), 0o600))

	resp := roundTrip(t, socket, config.RunConfig{
		Mode:   "batch",
		Input:  in,
		Output: out,
		Filter: "age >= 18",
	})

	assert.True(t, resp.OK, "error: %s", resp.Error)
	assert.Equal(t, int64(1), resp.Valid)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "name,age\nalice,30\n", string(data))
}

func TestDaemonRejectsInvalidRequest(t *testing.T) {
	_, socket := startDaemon(t)

	resp := roundTrip(t, socket, config.RunConfig{Mode: "warp", Input: "x", Output: "y"})
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "unknown mode")
}

func TestDaemonReportsEngineFailure(t *testing.T) {
	_, socket := startDaemon(t)

	dir := t.TempDir()
	resp := roundTrip(t, socket, config.RunConfig{
		Input:  filepath.Join(dir, "missing.csv"),
		Output: filepath.Join(dir, "out.csv"),
	})
	assert.False(t, resp.OK)
	assert.NotEmpty(t, resp.Error)
}
