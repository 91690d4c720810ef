package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestNew_Levels(t *testing.T) {
	quiet, err := New(false)
	if err != nil {
		t.Fatalf("New(false): %v", err)
	}
	if quiet.Core().Enabled(zap.InfoLevel) {
		t.Error("non-verbose logger should not log info")
	}
	if !quiet.Core().Enabled(zap.WarnLevel) {
		t.Error("non-verbose logger should log warnings")
	}

	verbose, err := New(true)
	if err != nil {
		t.Fatalf("New(true): %v", err)
	}
	if !verbose.Core().Enabled(zap.DebugLevel) {
		t.Error("verbose logger should log debug")
	}
}
