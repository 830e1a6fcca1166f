package whisper

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := Config{}.withDefaults()
	if cfg.Threads != 4 || cfg.Language != "auto" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	cfg = Config{Threads: 2, Language: "de"}.withDefaults()
	if cfg.Threads != 2 || cfg.Language != "de" {
		t.Fatalf("expected explicit values to be kept: %+v", cfg)
	}
}

func TestNewRecognizerMissingModel(t *testing.T) {
	t.Parallel()

	_, err := NewRecognizer(Config{ModelPath: filepath.Join(t.TempDir(), "missing.bin")})
	if !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound, got %v", err)
	}
}

func TestCheckModelRejectsDirectory(t *testing.T) {
	t.Parallel()

	if err := checkModel(t.TempDir()); !errors.Is(err, ErrModelNotFound) {
		t.Fatalf("expected ErrModelNotFound for directory, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.bin")
	if err := os.WriteFile(path, []byte("ggml"), 0o600); err != nil {
		t.Fatalf("write model: %v", err)
	}
	if err := checkModel(path); err != nil {
		t.Fatalf("expected existing model to pass, got %v", err)
	}
}
