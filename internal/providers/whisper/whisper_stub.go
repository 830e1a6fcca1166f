//go:build !whisper_cpp

package whisper

import (
	"context"
	"fmt"

	"ambientctx/internal/ports"
)

// Recognizer is unavailable in builds without the whisper_cpp tag.
type Recognizer struct{}

// NewRecognizer still validates the model path so a missing model is reported
// the same way in every build.
func NewRecognizer(cfg Config) (*Recognizer, error) {
	cfg = cfg.withDefaults()
	if err := checkModel(cfg.ModelPath); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("whisper: %w (build with -tags whisper_cpp)", ports.ErrUnsupported)
}

func (r *Recognizer) Recognize(context.Context, []float32, int) ([]string, error) {
	return nil, ports.ErrUnsupported
}

func (r *Recognizer) Close() error { return nil }
