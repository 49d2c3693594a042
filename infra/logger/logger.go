package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	corelogger "github.com/goal-group-uca/EcoDrivePlanner-eMob/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// Options selects the process-wide log output.
type Options struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is json or console. Empty follows APP_ENV: dev selects console.
	Format string
	// File also writes JSON lines to a rotating file when set.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var (
	mu     sync.RWMutex
	output io.Writer = os.Stdout
	level            = zerolog.InfoLevel
	file   *lumberjack.Logger
)

// Configure applies opts to every logger created afterwards.
func Configure(opts Options) error {
	lvl := zerolog.InfoLevel
	if opts.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return fmt.Errorf("log level %q: %w", opts.Level, err)
		}
		lvl = parsed
	}
	format := strings.ToLower(opts.Format)
	if format == "" && strings.ToLower(os.Getenv("APP_ENV")) == "dev" {
		format = "console"
	}

	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		_ = file.Close()
		file = nil
	}
	level = lvl
	var stdout io.Writer = os.Stdout
	if format == "console" {
		stdout = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	output = stdout
	if opts.File != "" {
		file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		output = zerolog.MultiLevelWriter(stdout, file)
	}
	return nil
}

// New returns a Logger for the given component using the configured output.
func New(component string) Logger {
	mu.RLock()
	w, lvl := output, level
	mu.RUnlock()
	return newZerolog(w, lvl, component)
}
