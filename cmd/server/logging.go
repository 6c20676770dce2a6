package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nilelabs/labs/internal/config"
)

// newLogger builds the process logger from cfg. Console output goes to
// stderr in stdio mode because stdout carries protocol frames.
func newLogger(cfg config.LogConfig, mode string) (*slog.Logger, func(), error) {
	var out io.Writer = os.Stdout
	if mode == config.TransportStdio {
		out = os.Stderr
	}
	closeFn := func() {}

	if cfg.Path != "" {
		maxSize := int64(cfg.MaxSizeMB) << 20
		file, err := openCappedFile(cfg.Path, maxSize, maxSize*5/6)
		if err != nil {
			return nil, nil, err
		}
		out = file
		closeFn = func() { _ = file.Close() }
	}

	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	var handler slog.Handler = slog.NewTextHandler(out, opts)
	if cfg.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	}
	return slog.New(handler).With("service", "labs"), closeFn, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// cappedFile is an append-only log file. Once it grows past limit it is
// cut back to its newest keep bytes.
type cappedFile struct {
	mu    sync.Mutex
	f     *os.File
	limit int64
	keep  int64
}

func openCappedFile(path string, limit, keep int64) (*cappedFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	c := &cappedFile{f: f, limit: limit, keep: keep}
	if err := c.trim(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return c, nil
}

func (c *cappedFile) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err := c.f.Write(p)
	if err != nil {
		return n, err
	}
	return n, c.trim()
}

func (c *cappedFile) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.f.Close()
}

func (c *cappedFile) trim() error {
	info, err := c.f.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= c.limit {
		return nil
	}

	tail := make([]byte, c.keep)
	n, err := c.f.ReadAt(tail, size-c.keep)
	if err != nil && err != io.EOF {
		return err
	}
	if err := c.f.Truncate(0); err != nil {
		return err
	}
	// With O_APPEND the write lands at offset zero after the truncate.
	_, err = c.f.Write(tail[:n])
	return err
}
