// Package logging builds the zap loggers used by the binaries. In stdio mode
// stdout carries the MCP protocol, so logs go to stderr and only debug
// configurations log below warn.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a logger for the given level. stdio selects the quiet
// console logger written to stderr; otherwise a JSON logger on stdout is
// returned.
func New(level string, stdio bool) (*zap.Logger, error) {
	if stdio {
		return NewWithWriter(level, true, os.Stderr)
	}
	return NewWithWriter(level, false, os.Stdout)
}

// NewWithWriter is New with an explicit destination
func NewWithWriter(level string, stdio bool, w io.Writer) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if stdio && lvl > zapcore.DebugLevel && lvl < zapcore.WarnLevel {
		lvl = zapcore.WarnLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if stdio {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), zap.NewAtomicLevelAt(lvl))
	opts := []zap.Option{zap.ErrorOutput(zapcore.AddSync(os.Stderr))}
	if !stdio {
		opts = append(opts, zap.AddCaller())
	}
	return zap.New(core, opts...), nil
}

// ParseLevel maps a configured level name onto a zap level
func ParseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}
