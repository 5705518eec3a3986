package progress

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig controls where log lines go. An empty File logs to stderr only.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

var levelNames = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
}

var currentLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

var baseLogger = zap.New(consoleCore(), zap.AddCaller(), zap.AddCallerSkip(2))

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func consoleCore() zapcore.Core {
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.Lock(os.Stderr), currentLevel)
}

// InitLogger rebuilds the package logger from cfg: console on stderr, plus a
// rotated JSON file when cfg.File is set.
func InitLogger(cfg LogConfig) {
	SetLogLevel(cfg.Level)
	core := consoleCore()
	if cfg.File != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.MaxSizeMB, 50),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
			Compress:   cfg.Compress,
		})
		core = zapcore.NewTee(core, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), fileWriter, currentLevel))
	}
	baseLogger = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2))
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// SetLogLevel parses and sets the global log level. Unknown names are ignored.
func SetLogLevel(s string) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return
	}
	currentLevel.SetLevel(l)
}

// GetLogLevel returns the current global log level.
func GetLogLevel() zapcore.Level { return currentLevel.Level() }

// Logger returns the structured logger for callers that want fields.
func Logger() *zap.Logger { return baseLogger.WithOptions(zap.AddCallerSkip(-2)) }

// SetLogger swaps the underlying logger and returns a func restoring the previous one.
func SetLogger(l *zap.Logger) (restore func()) {
	saved := baseLogger
	baseLogger = l.WithOptions(zap.AddCallerSkip(2))
	return func() { baseLogger = saved }
}

// Sync flushes buffered log entries.
func Sync() error { return baseLogger.Sync() }

func logf(l zapcore.Level, format string, args ...interface{}) {
	if !currentLevel.Enabled(l) {
		return
	}
	// Only format when there are args; a pre-formatted message may carry literal '%'.
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	if ce := baseLogger.Check(l, msg); ce != nil {
		ce.Write()
	}
}

// Public helpers
func Debugf(format string, a ...interface{}) { logf(zapcore.DebugLevel, format, a...) }
func Infof(format string, a ...interface{})  { logf(zapcore.InfoLevel, format, a...) }
func Warnf(format string, a ...interface{})  { logf(zapcore.WarnLevel, format, a...) }
func Errorf(format string, a ...interface{}) { logf(zapcore.ErrorLevel, format, a...) }

// TimeTrack logs the duration of a phase at debug level.
func TimeTrack(start time.Time, label string) {
	Debugf("%s took %s", label, time.Since(start))
}
