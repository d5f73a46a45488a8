package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSet_RoutesThroughGivenLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Set(zap.New(core))
	defer Set(zap.NewNop())

	Infof("sent message %d", 7)
	Warnf("retrying %s", "whatsapp")

	if logs.Len() != 2 {
		t.Fatalf("expected 2 log entries, got %d", logs.Len())
	}
	if got := logs.All()[0].Message; got != "sent message 7" {
		t.Fatalf("unexpected message %q", got)
	}
	if logs.All()[1].Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level, got %v", logs.All()[1].Level)
	}
}

func TestInit_UnknownLevelFallsBackToInfo(t *testing.T) {
	if err := Init("not-a-level"); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	defer Set(zap.NewNop())

	if !sugar.Desugar().Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("expected info level to be enabled")
	}
	if sugar.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug level to be disabled")
	}
}
