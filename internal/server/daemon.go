// Package server provides the Unix-domain-socket daemon: long-lived mode
// where clients submit transformation runs as line-delimited JSON and get
// the run statistics back.
package server

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/csvpipe/csvpipe/internal/config"
	"github.com/csvpipe/csvpipe/internal/engine"
	"github.com/csvpipe/csvpipe/internal/report"
)

// DaemonConfig holds configuration for the Unix socket daemon.
type DaemonConfig struct {
	SocketPath     string
	MaxConcurrency int
	IdleTimeout    time.Duration
	HistoryDir     string // "" disables execution-history logging
}

// UDSDaemon represents the Unix Domain Socket server.
type UDSDaemon struct {
	config   DaemonConfig
	listener net.Listener
	sem      chan struct{}
	shutdown chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

// Response is the JSON reply to one request.
type Response struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error,omitempty"`
	Mode    string `json:"mode,omitempty"`
	Valid   int64  `json:"valid"`
	Errors  int64  `json:"errors"`
	Millis  int64  `json:"millis"`
	Output  string `json:"output,omitempty"`
}

// NewUDSDaemon creates a new Unix socket daemon.
func NewUDSDaemon(cfg DaemonConfig) *UDSDaemon {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Second
	}
	if cfg.SocketPath == "" {
		cfg.SocketPath = os.Getenv("CSVPIPE_SOCKET")
		if cfg.SocketPath == "" {
			cfg.SocketPath = "/tmp/csvpipe.sock"
		}
	}

	return &UDSDaemon{
		config:   cfg,
		sem:      make(chan struct{}, cfg.MaxConcurrency),
		shutdown: make(chan struct{}),
	}
}

// Start binds the socket and serves until Shutdown.
func (d *UDSDaemon) Start() error {
	// Remove a stale socket file from a previous run.
	if _, err := os.Stat(d.config.SocketPath); err == nil {
		if err := os.Remove(d.config.SocketPath); err != nil {
			return fmt.Errorf("remove stale socket: %w", err)
		}
	}

	listener, err := net.Listen("unix", d.config.SocketPath)
	if err != nil {
		return fmt.Errorf("bind socket %s: %w", d.config.SocketPath, err)
	}
	d.listener = listener

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		select {
		case <-sigChan:
			d.Shutdown()
		case <-d.shutdown:
		}
	}()

	fmt.Printf("csvpipe daemon started on %s\n", d.config.SocketPath)

	for {
		select {
		case <-d.shutdown:
			return nil
		default:
		}

		// Accept deadline allows a periodic shutdown check.
		if ul, ok := listener.(*net.UnixListener); ok {
			_ = ul.SetDeadline(time.Now().Add(1 * time.Second))
		}

		conn, err := listener.Accept()
		if err != nil {
			if opErr, ok := err.(*net.OpError); ok && opErr.Timeout() {
				continue
			}
			select {
			case <-d.shutdown:
				return nil
			default:
				logrus.Errorf("accept: %v", err)
				continue
			}
		}

		d.wg.Add(1)
		go d.handleConnection(conn)
	}
}

// Shutdown gracefully stops the daemon. Safe to call more than once.
func (d *UDSDaemon) Shutdown() {
	d.once.Do(func() {
		close(d.shutdown)
		if d.listener != nil {
			_ = d.listener.Close()
		}
		d.wg.Wait()
		_ = os.Remove(d.config.SocketPath)
	})
}

// handleConnection serves line-delimited JSON requests on one connection.
func (d *UDSDaemon) handleConnection(conn net.Conn) {
	defer d.wg.Done()
	defer func() { _ = conn.Close() }()

	select {
	case d.sem <- struct{}{}:
		defer func() { <-d.sem }()
	case <-d.shutdown:
		return
	}

	reader := bufio.NewReader(conn)

	for {
		select {
		case <-d.shutdown:
			return
		default:
		}

		_ = conn.SetReadDeadline(time.Now().Add(d.config.IdleTimeout))

		line, err := reader.ReadBytes('\n')
		if err != nil {
			return // EOF or idle timeout
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		resp := d.processRequest(line)

		payload, err := json.Marshal(resp)
		if err != nil {
			logrus.Errorf("marshal response: %v", err)
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		_, _ = conn.Write(payload)
		_, _ = conn.Write([]byte("\n"))
	}
}

// processRequest decodes one run config and executes it.
func (d *UDSDaemon) processRequest(line []byte) Response {
	var rc config.RunConfig
	if err := json.Unmarshal(line, &rc); err != nil {
		return Response{Error: fmt.Sprintf("invalid request: %v", err)}
	}
	if err := rc.Validate(); err != nil {
		return Response{Error: err.Error()}
	}

	mode := rc.EngineMode()
	cfg := rc.EngineConfig()

	start := time.Now()
	stats, err := engine.Run(mode, cfg)
	end := time.Now()

	resp := Response{
		OK:     err == nil,
		Mode:   mode.Label(),
		Valid:  stats.Valid,
		Errors: stats.Error,
		Millis: end.Sub(start).Milliseconds(),
		Output: cfg.OutputPath,
	}
	if err != nil {
		resp.Error = err.Error()
		return resp
	}

	if d.config.HistoryDir != "" {
		summary := report.Summary{
			Label:      mode.Label(),
			InputPath:  cfg.InputPath,
			OutputPath: cfg.OutputPath,
			Start:      start,
			End:        end,
			Valid:      stats.Valid,
			Errors:     stats.Error,
		}
		if err := report.AppendHistory(d.config.HistoryDir, summary); err != nil {
			logrus.Warnf("history: %v", err)
		}
	}
	return resp
}
