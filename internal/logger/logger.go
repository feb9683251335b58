// internal/logger/logger.go
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.Mutex
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	out   zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	sugar = build()
)

func build() *zap.SugaredLogger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), out, level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// Init initializes the logger
func Init() {
	mu.Lock()
	defer mu.Unlock()
	sugar = build()
}

// SetOutput sets the output for all levels
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	out = zapcore.Lock(zapcore.AddSync(w))
	sugar = build()
}

// SetLevel sets the log level. Unknown values fall back to info.
func SetLevel(levelStr string) {
	switch strings.ToLower(levelStr) {
	case "debug":
		level.SetLevel(zapcore.DebugLevel)
	case "warn", "warning":
		level.SetLevel(zapcore.WarnLevel)
	case "error":
		level.SetLevel(zapcore.ErrorLevel)
	default:
		level.SetLevel(zapcore.InfoLevel)
	}
}

func get() *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()
	return sugar
}

// Debug logs a debug message
func Debug(format string, v ...interface{}) {
	get().Debugf(format, v...)
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	get().Infof(format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	get().Warnf(format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	get().Errorf(format, v...)
}

// Sync flushes buffered entries
func Sync() {
	_ = get().Sync()
}
