package logging

import (
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/thornav/decoy/internal/relay"
)

func TestEntriesLandOnRelay(t *testing.T) {
	r := relay.New(16)
	logger := New(r, "info")

	logger.Info("server_start", zap.String("addr", "127.0.0.1:3000"))

	recs := r.Drain()
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if recs[0].Level != zapcore.InfoLevel {
		t.Errorf("expected info level, got %v", recs[0].Level)
	}
	if !strings.Contains(recs[0].Message, "server_start") {
		t.Errorf("message missing: %q", recs[0].Message)
	}
	if !strings.Contains(recs[0].Message, "127.0.0.1:3000") {
		t.Errorf("field missing: %q", recs[0].Message)
	}
	if strings.ContainsRune(recs[0].Message, '\n') {
		t.Errorf("record should be a single line: %q", recs[0].Message)
	}
}

func TestLevelFiltering(t *testing.T) {
	r := relay.New(16)
	logger := New(r, "warn")

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("visible")

	recs := r.Drain()
	if len(recs) != 1 {
		t.Fatalf("expected only the warn record, got %d", len(recs))
	}
	if recs[0].Level != zapcore.WarnLevel {
		t.Errorf("expected warn level, got %v", recs[0].Level)
	}
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	r := relay.New(16)
	logger := New(r, "chatty")

	logger.Debug("hidden")
	logger.Info("visible")

	recs := r.Drain()
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
}

func TestWithFieldsCarriedOnChildLogger(t *testing.T) {
	r := relay.New(16)
	logger := New(r, "info").With(zap.String("component", "watcher"))

	logger.Info("reloaded")

	recs := r.Drain()
	if len(recs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(recs))
	}
	if !strings.Contains(recs[0].Message, "watcher") {
		t.Errorf("child field missing: %q", recs[0].Message)
	}
}
