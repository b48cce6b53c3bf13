// Package logger sets up structured logging for todosync.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the global logger. It is a no-op until Initialize is called so
// packages can log before (or without) setup.
var Logger *zap.SugaredLogger

func init() {
	Logger = zap.NewNop().Sugar()
}

// Options configures Initialize.
type Options struct {
	// File is the log file path. Empty disables file logging.
	File string

	// Level is one of debug, info, warn, error. Defaults to info.
	Level string

	// Console tees debug output to stderr.
	Console bool

	// MaxSizeMB bounds a log file before rotation.
	MaxSizeMB int

	// MaxBackups is the number of rotated files kept.
	MaxBackups int
}

// Initialize builds the global logger. The CLI writes to a rotating file so
// stdout and stderr stay reserved for command output.
func Initialize(opts Options) (*zap.SugaredLogger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(defaultString(opts.Level, "info")))
	if err != nil {
		return nil, err
	}

	var cores []zapcore.Core

	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    defaultInt(opts.MaxSizeMB, 5),
			MaxBackups: defaultInt(opts.MaxBackups, 3),
		}
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(rotator),
			level,
		))
	}

	if opts.Console {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			zap.DebugLevel,
		))
	}

	if len(cores) == 0 {
		Logger = zap.NewNop().Sugar()
		return Logger, nil
	}

	Logger = zap.New(zapcore.NewTee(cores...)).Sugar()
	return Logger, nil
}

// Sync flushes buffered entries. Errors from syncing stderr are ignored.
func Sync() {
	_ = Logger.Sync()
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func defaultInt(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
