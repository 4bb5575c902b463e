// Package zaplog adapts go.uber.org/zap to the domain Logger interface.
package zaplog

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"github.com/ochairo/quizpack/internal/domain/interfaces"
)

// Options configures the logger
type Options struct {
	Level   string    // debug, info, warn or error
	Console io.Writer // defaults to stderr
	File    string    // optional JSON log file, rotated by lumberjack

	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
}

// Logger implements interfaces.Logger on top of zap
type Logger struct {
	l     *zap.Logger
	close func() error
}

// New builds a logger writing human-readable lines to the console and,
// when a file is configured, JSON lines to a rotating log file.
func New(opts Options) (*Logger, error) {
	var lvl zapcore.Level
	if opts.Level == "" {
		opts.Level = "info"
	}
	if err := lvl.UnmarshalText([]byte(opts.Level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCfg := encCfg
	consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.AddSync(console), lvl),
	}

	closeFn := func() error { return nil }
	if opts.File != "" {
		writer := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    defaultInt(opts.MaxSizeMB, 100), // megabytes
			MaxAge:     defaultInt(opts.MaxAgeDays, 7),  // days
			MaxBackups: defaultInt(opts.MaxBackups, 7),
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(writer), lvl))
		closeFn = writer.Close
	}

	return &Logger{
		l:     zap.New(zapcore.NewTee(cores...)),
		close: closeFn,
	}, nil
}

// Debug logs debug-level messages
func (z *Logger) Debug(msg string, fields ...interfaces.Field) {
	z.l.Debug(msg, toZap(fields)...)
}

// Info logs informational messages
func (z *Logger) Info(msg string, fields ...interfaces.Field) {
	z.l.Info(msg, toZap(fields)...)
}

// Warn logs warning messages
func (z *Logger) Warn(msg string, fields ...interfaces.Field) {
	z.l.Warn(msg, toZap(fields)...)
}

// Error logs error messages
func (z *Logger) Error(msg string, fields ...interfaces.Field) {
	z.l.Error(msg, toZap(fields)...)
}

// Close flushes buffered entries and closes the log file
func (z *Logger) Close() error {
	_ = z.l.Sync()
	return z.close()
}

func toZap(fields []interfaces.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

func defaultInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
