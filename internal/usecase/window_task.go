package usecase

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"strings"

	"ambientctx/internal/domain"
	"ambientctx/internal/ports"
)

var ErrNoOCRLanguage = errors.New("no OCR language available")

// windowTask captures one window and runs OCR on it through a temporary PNG.
type windowTask struct {
	capturer ports.WindowCapturer
	ocr      ports.TextRecognizer
	tempDir  string
}

func (t windowTask) run(ctx context.Context, window domain.Window) (domain.WindowContent, error) {
	img, err := t.capturer.Capture(ctx, window)
	if err != nil {
		return domain.WindowContent{}, fmt.Errorf("capture: %w", err)
	}

	f, err := os.CreateTemp(t.tempDir, "ambientctx-window-*.png")
	if err != nil {
		return domain.WindowContent{}, fmt.Errorf("create temp image: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return domain.WindowContent{}, fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return domain.WindowContent{}, fmt.Errorf("close temp image: %w", err)
	}

	languages, err := t.ocr.Languages()
	if err != nil {
		return domain.WindowContent{}, fmt.Errorf("list OCR languages: %w", err)
	}
	if len(languages) == 0 {
		return domain.WindowContent{}, ErrNoOCRLanguage
	}

	lines, err := t.ocr.RecognizeFile(ctx, path, languages[0])
	if err != nil {
		return domain.WindowContent{}, fmt.Errorf("recognize: %w", err)
	}

	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return domain.WindowContent{Title: window.Title, Content: b.String()}, nil
}
