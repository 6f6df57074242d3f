package logging

import (
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		enabled zap.AtomicLevel
		want    bool
	}{
		{"default warn hides info", Config{Level: "warn"}, zap.NewAtomicLevelAt(zap.InfoLevel), false},
		{"unknown falls back to warn", Config{Level: "loud"}, zap.NewAtomicLevelAt(zap.WarnLevel), true},
		{"verbose enables debug", Config{Level: "error", Verbose: true}, zap.NewAtomicLevelAt(zap.DebugLevel), true},
		{"json format", Config{Level: "info", Format: "json"}, zap.NewAtomicLevelAt(zap.InfoLevel), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if got := logger.Core().Enabled(tt.enabled.Level()); got != tt.want {
				t.Errorf("Enabled(%s) = %v, want %v", tt.enabled.Level(), got, tt.want)
			}
		})
	}
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b {
		t.Error("NewRunID() returned the same id twice")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("NewRunID() = %q, not a UUID: %v", a, err)
	}
}
