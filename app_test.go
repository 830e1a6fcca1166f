package main

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"ambientctx/internal/bootstrap"
	"ambientctx/internal/config"
	"ambientctx/internal/domain"
)

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	cases := map[domain.ErrorCode]string{
		domain.ErrorCodeStartup:       "Startup failed",
		domain.ErrorCodeAudioStream:   "Audio streaming issue",
		domain.ErrorCodeTranscription: "Transcription error",
		domain.ErrorCodeScreen:        "Screen context unavailable",
		domain.ErrorCodeSettings:      "Settings error",
	}
	for code, want := range cases {
		code := code
		want := want
		t.Run(string(code), func(t *testing.T) {
			t.Parallel()
			if got := errorMessage(code, "ignored"); got != want {
				t.Fatalf("unexpected message: %q", got)
			}
		})
	}

	if got := errorMessage("unknown", "detail"); got != "detail" {
		t.Fatalf("expected detail fallback, got %q", got)
	}
	if got := errorMessage("unknown", ""); got != "Unknown error" {
		t.Fatalf("expected unknown fallback, got %q", got)
	}
}

func TestRequireReady(t *testing.T) {
	t.Parallel()

	app := &App{}
	if err := app.requireReady(); err == nil {
		t.Fatalf("expected uninitialized error")
	}

	bootErr := errors.New("boot")
	app.bootErr = bootErr
	if err := app.requireReady(); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error, got %v", err)
	}
	if _, err := app.GetContext(); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error from GetContext, got %v", err)
	}
}

func TestGetStatusWhenNotInitialized(t *testing.T) {
	t.Parallel()

	app := &App{}
	if status := app.GetStatus(); status.Capturing || status.Message != "" {
		t.Fatalf("unexpected status: %+v", status)
	}

	app.bootErr = errors.New("boot")
	if status := app.GetStatus(); status.Message != "boot" {
		t.Fatalf("unexpected boot status: %+v", status)
	}
	if info := app.GetRuntimeInfo(); info["error"] != "boot" {
		t.Fatalf("unexpected runtime info: %+v", info)
	}
}

func TestSettingsRoundTripThroughApp(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, config.SpeechBackendDeepgram)

	settings, err := app.GetSettings()
	if err != nil {
		t.Fatalf("get settings failed: %v", err)
	}
	if settings != domain.DefaultSettings() {
		t.Fatalf("expected defaults, got %+v", settings)
	}

	updated := domain.Settings{APIKey: "gsk", ScreenContext: false, AudioContext: true}
	if err := app.UpdateSettings(updated); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !app.services.Pipeline.Enabled() {
		t.Fatalf("expected audio enabled after update")
	}

	got, err := app.GetSettings()
	if err != nil {
		t.Fatalf("get settings failed: %v", err)
	}
	if got != updated {
		t.Fatalf("unexpected settings: %+v", got)
	}

	if err := app.UpdateSettings(domain.Settings{}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if app.services.Pipeline.Enabled() {
		t.Fatalf("expected audio disabled after update")
	}
}

func TestGetContextWithSourcesDisabled(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, config.SpeechBackendDeepgram)
	if err := app.UpdateSettings(domain.Settings{APIKey: "gsk"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	got, err := app.GetContext()
	if err != nil {
		t.Fatalf("get context failed: %v", err)
	}
	if got.Content != "" || got.APIKey != "gsk" {
		t.Fatalf("unexpected context: %+v", got)
	}
	if err := app.NewChat(); err != nil {
		t.Fatalf("new chat failed: %v", err)
	}
}

func TestAppWithoutAudioPipeline(t *testing.T) {
	t.Parallel()

	app := newTestApp(t, config.SpeechBackendWhisper)
	if app.services.Pipeline != nil {
		t.Fatalf("expected no pipeline without a whisper model")
	}
	if err := app.UpdateSettings(domain.DefaultSettings()); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := app.NewChat(); err != nil {
		t.Fatalf("new chat failed: %v", err)
	}
	if status := app.GetStatus(); !strings.Contains(status.Message, "whisper model not found") {
		t.Fatalf("expected model error in status, got %+v", status)
	}
	if info := app.GetRuntimeInfo(); info["speechBackend"] != config.SpeechBackendWhisper {
		t.Fatalf("unexpected runtime info: %+v", info)
	}
}

func newTestApp(t *testing.T, backend string) *App {
	t.Helper()

	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.Speech.Backend = backend
	cfg.Speech.WhisperModel = filepath.Join(dir, "missing.bin")
	cfg.Deepgram.APIKey = "test-key"
	cfg.Settings.Path = filepath.Join(dir, "settings.json")

	app := NewApp()
	services := bootstrap.Wire(cfg, app)
	t.Cleanup(func() { _ = services.Close() })
	app.services = &services
	return app
}
