package logging_test

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/BrandonDHaskell/gatelog/internal/logging"
)

func TestNew_Levels(t *testing.T) {
	dev, err := logging.New("dev")
	if err != nil {
		t.Fatalf("New(dev): %v", err)
	}
	if !dev.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug logging in dev")
	}

	prod, err := logging.New("prod")
	if err != nil {
		t.Fatalf("New(prod): %v", err)
	}
	if prod.Core().Enabled(zapcore.DebugLevel) {
		t.Error("expected debug logging disabled in prod")
	}
}
