package logging_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/vinitkumargoel/statusmon/internal/logging"
)

func TestNewRespectsLevel(t *testing.T) {
	tests := []struct {
		level      string
		debugShown bool
		warnShown  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, true},
		{"error", false, false},
		{"bogus", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger := logging.New(tt.level, "text")
			if got := logger.Enabled(context.Background(), slog.LevelDebug); got != tt.debugShown {
				t.Errorf("debug enabled = %v, want %v", got, tt.debugShown)
			}
			if got := logger.Enabled(context.Background(), slog.LevelWarn); got != tt.warnShown {
				t.Errorf("warn enabled = %v, want %v", got, tt.warnShown)
			}
		})
	}
}

func TestNewFormats(t *testing.T) {
	// Both formats must produce a usable logger.
	for _, format := range []string{"text", "json", "JSON", ""} {
		logger := logging.New("info", format)
		if logger == nil {
			t.Fatalf("nil logger for format %q", format)
		}
	}
}
