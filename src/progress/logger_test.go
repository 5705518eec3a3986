package progress

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	restore := SetLogger(zap.New(core))
	prev := GetLogLevel()
	SetLogLevel("debug")
	t.Cleanup(func() {
		restore()
		currentLevel.SetLevel(prev)
	})
	return logs
}

func TestLogf_NoArgsKeepsPercent(t *testing.T) {
	logs := observe(t)
	// called through a variable: a plain message, not a format
	logInfo := Infof
	logInfo("100% done")
	Infof("%d%% done", 50)
	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries got %d", len(entries))
	}
	if entries[0].Message != "100% done" {
		t.Fatalf("pre-formatted message altered: %q", entries[0].Message)
	}
	if entries[1].Message != "50% done" {
		t.Fatalf("formatted message wrong: %q", entries[1].Message)
	}
}

func TestSetLogLevel_Filters(t *testing.T) {
	logs := observe(t)
	SetLogLevel("warn")
	Debugf("hidden")
	Infof("hidden")
	Warnf("shown")
	Errorf("shown too")
	if logs.Len() != 2 {
		t.Fatalf("expected 2 entries at warn, got %d", logs.Len())
	}
	SetLogLevel("bogus")
	if GetLogLevel() != zapcore.WarnLevel {
		t.Fatalf("unknown level must be ignored, got %v", GetLogLevel())
	}
}

func TestInitLogger_File(t *testing.T) {
	prev := baseLogger
	prevLevel := GetLogLevel()
	t.Cleanup(func() {
		baseLogger = prev
		currentLevel.SetLevel(prevLevel)
	})
	InitLogger(LogConfig{Level: "error", File: filepath.Join(t.TempDir(), "progress.log")})
	if GetLogLevel() != zapcore.ErrorLevel {
		t.Fatalf("level not applied: %v", GetLogLevel())
	}
	if Logger() == nil {
		t.Fatalf("nil logger")
	}
}
