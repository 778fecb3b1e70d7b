// Package logger 管理进程级的结构化日志（log/slog，JSON 格式）。
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Config 配置日志输出。Dir 为空时写到 Stderr（为空则为 os.Stderr）。
type Config struct {
	Dir    string
	Debug  bool
	Stderr io.Writer
}

// FileName 是日志目录中的日志文件名。
const FileName = "platecut.log"

var (
	mu      sync.RWMutex
	global  = discard()
	logFile *os.File
	logPath string
)

// Setup 初始化全局日志，返回的 cleanup 会关闭日志文件并恢复为丢弃输出。
func Setup(cfg Config) (func() error, error) {
	var (
		w    io.Writer
		f    *os.File
		path string
	)
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			reset()
			return nil, err
		}
		path = filepath.Join(cfg.Dir, FileName)
		var err error
		f, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			reset()
			return nil, err
		}
		w = f
	} else {
		w = cfg.Stderr
		if w == nil {
			w = os.Stderr
		}
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.Debug,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return a
		},
	})

	mu.Lock()
	global = slog.New(h)
	logFile = f
	logPath = path
	mu.Unlock()

	L().Debug("logger.initialized", "path", path, "debug", cfg.Debug)

	cleanup := func() error {
		mu.Lock()
		defer mu.Unlock()
		var err error
		if logFile != nil {
			err = logFile.Close()
		}
		logFile, logPath, global = nil, "", discard()
		return err
	}
	return cleanup, nil
}

// L 返回当前的全局日志。
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Path 返回日志文件路径；输出到标准错误时为空。
func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return logPath
}

func reset() {
	mu.Lock()
	defer mu.Unlock()
	global, logFile, logPath = discard(), nil, ""
}

func discard() *slog.Logger { return slog.New(slog.NewJSONHandler(io.Discard, nil)) }
