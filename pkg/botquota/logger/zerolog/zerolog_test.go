package zerolog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mihaimyh/botquota/pkg/botquota"
)

func TestLogger_Levels(t *testing.T) {
	output := bytes.Buffer{}
	logger := NewLogger(zerolog.New(&output))

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	lines := strings.Count(output.String(), "\n")
	if lines != 4 {
		t.Errorf("Expected 4 log lines, got %d", lines)
	}
}

func TestLogger_Fields(t *testing.T) {
	output := bytes.Buffer{}
	logger := NewLogger(zerolog.New(&output))

	logger.Info("quota denied",
		botquota.Field{Key: "user_id", Value: "user1"},
		botquota.Field{Key: "count", Value: 10},
	)

	got := output.String()
	if !strings.Contains(got, `"user_id":"user1"`) {
		t.Errorf("Expected user_id field in output: %s", got)
	}
	if !strings.Contains(got, `"count":10`) {
		t.Errorf("Expected count field in output: %s", got)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	output := bytes.Buffer{}
	logger := NewLogger(zerolog.New(&output).Level(zerolog.WarnLevel))

	logger.Debug("debug message")
	logger.Info("info message")
	if output.Len() != 0 {
		t.Error("Expected debug and info to be filtered out")
	}

	logger.Warn("warn message")
	if output.Len() == 0 {
		t.Error("Expected warn to be logged")
	}
}
