package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestSetupRejectsUnknownLevel(t *testing.T) {
	if err := Setup(LogConfig{Level: "loud", Format: "json", Output: "stdout"}); err == nil {
		t.Fatalf("expected unknown level to be rejected")
	}
}

func TestSetupWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := Setup(LogConfig{Level: "debug", Format: "json", Output: path}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log := WithComponent("test")
	log.Info().Str("batch_id", "b1").Msg("stock adjusted")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(raw, &entry); err != nil {
		t.Fatalf("decode log line %q: %v", raw, err)
	}
	if entry["component"] != "test" {
		t.Fatalf("expected component=test, got %v", entry["component"])
	}
	if entry["batch_id"] != "b1" {
		t.Fatalf("expected batch_id=b1, got %v", entry["batch_id"])
	}
}
