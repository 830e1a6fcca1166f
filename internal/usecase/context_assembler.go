package usecase

import (
	"context"
	"fmt"
	"strings"

	"ambientctx/internal/domain"
	"ambientctx/internal/logging"
	"ambientctx/internal/ports"
)

const (
	contextHeader = "PC CONTEXT\n"
	screenLabel   = "SCREEN:\n"
	audioLabel    = "AUDIO:\n"
)

// ScreenTextSource produces the screen section.
type ScreenTextSource interface {
	GetScreenText(ctx context.Context, maxChars int) (string, error)
}

// TranscriptSource produces the audio section. The transcript is already
// bounded by its own rolling cap.
type TranscriptSource interface {
	Transcript() string
}

// ContextAssembler builds the labeled context sent along with a chat request.
type ContextAssembler struct {
	settings       ports.SettingsStore
	screen         ScreenTextSource
	audio          TranscriptSource
	maxScreenChars int
}

func NewContextAssembler(settings ports.SettingsStore, screen ScreenTextSource, audio TranscriptSource, maxScreenChars int) *ContextAssembler {
	if maxScreenChars <= 0 {
		maxScreenChars = 4000
	}
	return &ContextAssembler{
		settings:       settings,
		screen:         screen,
		audio:          audio,
		maxScreenChars: maxScreenChars,
	}
}

// Build composes "PC CONTEXT" followed by the SCREEN and AUDIO sections. A
// section whose source is disabled, missing, failing or empty is omitted.
// With both sources disabled the content is empty.
func (a *ContextAssembler) Build(ctx context.Context) (domain.AIContext, error) {
	settings, err := a.settings.Load()
	if err != nil {
		return domain.AIContext{}, fmt.Errorf("load settings: %w", err)
	}

	out := domain.AIContext{APIKey: settings.APIKey}
	if !settings.ScreenContext && !settings.AudioContext {
		return out, nil
	}

	var b strings.Builder
	b.WriteString(contextHeader)

	if settings.ScreenContext && a.screen != nil {
		text, err := a.screen.GetScreenText(ctx, a.maxScreenChars)
		switch {
		case err != nil:
			logging.Warnw("screen context unavailable", "error", err)
		case text != "":
			b.WriteString(screenLabel)
			b.WriteString(text)
		}
	}

	if settings.AudioContext && a.audio != nil {
		if text := a.audio.Transcript(); text != "" {
			b.WriteString(audioLabel)
			b.WriteString(text)
		}
	}

	out.Content = b.String()
	return out, nil
}
