package ports

import (
	"context"
	"errors"
	"image"

	"ambientctx/internal/domain"
)

// ErrUnsupported is returned by capability providers that are not available
// on the current platform or build.
var ErrUnsupported = errors.New("capability not supported on this platform")

// SampleFunc receives normalized interleaved float samples from a stream.
// It runs on the audio callback thread and must return quickly.
type SampleFunc func(samples []float32)

// AudioStream is an opened, not yet started, input stream.
type AudioStream interface {
	Config() domain.StreamConfig
	Start() error
	Close() error
}

// AudioDevice opens the default capture-capable stream.
type AudioDevice interface {
	Open(onSamples SampleFunc, onError func(error)) (AudioStream, error)
}

// SpeechRecognizer turns mono samples at a fixed rate into text segments.
type SpeechRecognizer interface {
	Recognize(ctx context.Context, samples []float32, sampleRate int) ([]string, error)
}

// WindowLister enumerates eligible top-level windows.
type WindowLister interface {
	ListWindows(ctx context.Context) ([]domain.Window, error)
}

// WindowCapturer grabs the pixels of one window.
type WindowCapturer interface {
	Capture(ctx context.Context, window domain.Window) (image.Image, error)
}

// TextRecognizer runs OCR over a file-backed image.
type TextRecognizer interface {
	Languages() ([]string, error)
	RecognizeFile(ctx context.Context, path string, language string) ([]string, error)
}

// SettingsStore reads and writes the flat settings record.
type SettingsStore interface {
	Load() (domain.Settings, error)
	Save(settings domain.Settings) error
}

// EventSink emits backend errors to the UI.
type EventSink interface {
	PipelineError(code domain.ErrorCode, detail string)
}
