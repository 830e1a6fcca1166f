//go:build !tesseract

package tesseract

import (
	"context"
	"fmt"

	"ambientctx/internal/ports"
)

// Recognizer is unavailable in builds without the tesseract tag.
type Recognizer struct{}

func NewRecognizer(Config) (*Recognizer, error) {
	return nil, fmt.Errorf("tesseract: %w (build with -tags tesseract)", ports.ErrUnsupported)
}

func (r *Recognizer) Languages() ([]string, error) {
	return nil, ports.ErrUnsupported
}

func (r *Recognizer) RecognizeFile(context.Context, string, string) ([]string, error) {
	return nil, ports.ErrUnsupported
}
