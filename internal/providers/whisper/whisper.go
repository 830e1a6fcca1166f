//go:build whisper_cpp

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"ambientctx/internal/logging"
)

// Recognizer implements ports.SpeechRecognizer on a loaded whisper model.
// A fresh decoding context is created per call; callers serialize calls.
type Recognizer struct {
	cfg   Config
	model whisper.Model
}

// NewRecognizer loads the model. Failure here is fatal for the audio pipeline.
func NewRecognizer(cfg Config) (*Recognizer, error) {
	cfg = cfg.withDefaults()
	if err := checkModel(cfg.ModelPath); err != nil {
		return nil, err
	}
	model, err := whisper.New(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load whisper model %q: %w", cfg.ModelPath, err)
	}
	logging.Infow("whisper model loaded",
		"path", cfg.ModelPath,
		"multilingual", model.IsMultilingual(),
		"threads", cfg.Threads,
	)
	return &Recognizer{cfg: cfg, model: model}, nil
}

func (r *Recognizer) Recognize(ctx context.Context, samples []float32, _ int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// NewContext starts from whisper_full_default_params(SAMPLING_GREEDY):
	// greedy decoding with best_of 1, and print_progress, print_realtime and
	// print_timestamps all off.
	wctx, err := r.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("create whisper context: %w", err)
	}
	if err := wctx.SetLanguage(r.cfg.Language); err != nil {
		return nil, fmt.Errorf("set whisper language %q: %w", r.cfg.Language, err)
	}
	wctx.SetTranslate(r.cfg.Translate)
	wctx.SetThreads(r.cfg.Threads)

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return nil, fmt.Errorf("whisper process: %w", err)
	}

	var segments []string
	for {
		seg, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("whisper next segment: %w", err)
		}
		segments = append(segments, seg.Text)
	}
	return segments, nil
}

func (r *Recognizer) Close() error {
	if r.model != nil {
		return r.model.Close()
	}
	return nil
}
