package logger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/belonio2793/backlinkoo-automation/internal/logger"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
	}{
		{name: "production logger", debug: false},
		{name: "development logger", debug: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log, err := logger.NewLogger(tc.debug)
			if err != nil {
				t.Fatalf("NewLogger(%v) error = %v", tc.debug, err)
			}
			if log == nil {
				t.Fatalf("NewLogger(%v) returned nil logger", tc.debug)
			}
		})
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	log := logger.NewNopLogger()

	// None of these should panic or write anywhere.
	log.Debug("debug message", logger.String("key", "value"))
	log.Info("info message", logger.Int("count", 1))
	log.Warn("warn message", logger.Duration("elapsed", time.Second))
	log.Error("error message", logger.Error(errors.New("boom")))

	if err := log.Sync(); err != nil {
		t.Errorf("Sync() error = %v", err)
	}
}

func TestWithAttachesFields(t *testing.T) {
	log := logger.NewNopLogger()

	child := log.With(logger.String("campaign_id", "abc"))
	if child == nil {
		t.Fatal("With() returned nil logger")
	}

	// Child must be independent of the parent.
	child.Info("message from child")
	log.Info("message from parent")
}
