//go:build tesseract

package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer implements ports.TextRecognizer.
type Recognizer struct {
	cfg Config
}

func NewRecognizer(cfg Config) (*Recognizer, error) {
	return &Recognizer{cfg: cfg}, nil
}

func (r *Recognizer) Languages() ([]string, error) {
	if len(r.cfg.Languages) > 0 {
		return r.cfg.Languages, nil
	}
	installed, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return nil, fmt.Errorf("list tesseract languages: %w", err)
	}
	return usableLanguages(installed), nil
}

// RecognizeFile returns one entry per recognized text line. A client is
// created per call because gosseract clients are not safe for concurrent use.
func (r *Recognizer) RecognizeFile(ctx context.Context, path string, language string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("set tesseract language %q: %w", language, err)
	}
	if err := client.SetImage(path); err != nil {
		return nil, fmt.Errorf("set tesseract image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("tesseract recognize: %w", err)
	}
	lines := make([]string, 0, len(boxes))
	for _, box := range boxes {
		if line := strings.TrimSpace(box.Word); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}
