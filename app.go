package main

import (
	"context"
	"fmt"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"ambientctx/internal/bootstrap"
	"ambientctx/internal/config"
	"ambientctx/internal/domain"
	"ambientctx/internal/logging"
)

const eventError = "ambient:error"

// App is the Wails application root.
type App struct {
	ctx context.Context

	services *bootstrap.Services
	bootErr  error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.PipelineError(domain.ErrorCodeStartup, err.Error())
		return
	}
	a.services = &services

	settings, err := services.Settings.Load()
	if err != nil {
		logging.Errorw("failed to load settings", "path", services.Settings.Path(), "error", err)
		a.PipelineError(domain.ErrorCodeSettings, err.Error())
		settings = domain.DefaultSettings()
	}

	if services.AudioErr != nil {
		a.PipelineError(domain.ErrorCodeStartup, services.AudioErr.Error())
	}
	if services.ScreenErr != nil {
		a.PipelineError(domain.ErrorCodeScreen, services.ScreenErr.Error())
	}

	if pipeline := services.Pipeline; pipeline != nil {
		pipeline.SetEnabled(settings.AudioContext)
		go func() {
			if err := pipeline.StartCapture(); err != nil {
				logging.Errorw("audio capture failed to start", "error", err)
				a.PipelineError(domain.ErrorCodeStartup, err.Error())
			}
		}()
	}
}

func (a *App) shutdown(context.Context) {
	if a.services == nil {
		return
	}
	if err := a.services.Close(); err != nil {
		logging.Warnw("shutdown failed", "error", err)
	}
	_ = logging.Sync()
}

// GetSettings returns the stored settings.
func (a *App) GetSettings() (domain.Settings, error) {
	if err := a.requireReady(); err != nil {
		return domain.Settings{}, err
	}
	settings, err := a.services.Settings.Load()
	if err != nil {
		a.PipelineError(domain.ErrorCodeSettings, err.Error())
		return domain.Settings{}, err
	}
	return settings, nil
}

// UpdateSettings applies the audio toggle immediately and persists settings.
func (a *App) UpdateSettings(settings domain.Settings) error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if a.services.Pipeline != nil {
		a.services.Pipeline.SetEnabled(settings.AudioContext)
	}
	if err := a.services.Settings.Save(settings); err != nil {
		a.PipelineError(domain.ErrorCodeSettings, err.Error())
		return err
	}
	return nil
}

// GetContext assembles the screen and audio context for a chat request.
func (a *App) GetContext() (domain.AIContext, error) {
	if err := a.requireReady(); err != nil {
		return domain.AIContext{}, err
	}
	ctx := a.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	out, err := a.services.Assembler.Build(ctx)
	if err != nil {
		a.PipelineError(domain.ErrorCodeSettings, err.Error())
		return domain.AIContext{}, err
	}
	return out, nil
}

// NewChat clears the rolling audio transcript.
func (a *App) NewChat() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	if a.services.Pipeline != nil {
		a.services.Pipeline.ResetTranscript()
	}
	return nil
}

// GetStatus returns the audio pipeline status.
func (a *App) GetStatus() domain.Status {
	if a.services == nil {
		if a.bootErr != nil {
			return domain.Status{Message: a.bootErr.Error()}
		}
		return domain.Status{}
	}
	if a.services.Pipeline == nil {
		msg := ""
		if a.services.AudioErr != nil {
			msg = a.services.AudioErr.Error()
		}
		return domain.Status{Message: msg}
	}
	return a.services.Pipeline.Status()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}
	if a.services == nil {
		return map[string]string{}
	}

	cfg := a.services.Config
	info := map[string]string{
		"speechBackend":  cfg.Speech.Backend,
		"audioBackend":   cfg.Audio.Backend,
		"settingsFile":   cfg.Settings.Path,
		"maxScreenChars": fmt.Sprint(cfg.Screen.MaxChars),
		"maxAudioChars":  fmt.Sprint(cfg.Audio.MaxChars),
	}
	switch cfg.Speech.Backend {
	case config.SpeechBackendDeepgram:
		info["model"] = cfg.Deepgram.Model
		info["language"] = cfg.Deepgram.Language
	default:
		info["model"] = cfg.Speech.WhisperModel
		info["language"] = cfg.Speech.Language
	}
	if cfg.Audio.Backend == config.AudioBackendFFMPEG {
		info["audioInput"] = cfg.Audio.InputDevice
		info["audioInputFormat"] = cfg.Audio.InputFormat
	}
	return info
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.services == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// PipelineError emits backend errors to the UI.
func (a *App) PipelineError(code domain.ErrorCode, detail string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventError, map[string]string{
		"code":    string(code),
		"message": errorMessage(code, detail),
		"detail":  detail,
	})
}

func errorMessage(code domain.ErrorCode, detail string) string {
	switch code {
	case domain.ErrorCodeStartup:
		return "Startup failed"
	case domain.ErrorCodeAudioStream:
		return "Audio streaming issue"
	case domain.ErrorCodeTranscription:
		return "Transcription error"
	case domain.ErrorCodeScreen:
		return "Screen context unavailable"
	case domain.ErrorCodeSettings:
		return "Settings error"
	default:
		if detail == "" {
			return "Unknown error"
		}
		return detail
	}
}
