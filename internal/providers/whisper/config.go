// Package whisper runs speech recognition locally with whisper.cpp. The cgo
// binding is only compiled with the whisper_cpp build tag.
package whisper

import (
	"errors"
	"fmt"
	"os"
)

var ErrModelNotFound = errors.New("whisper model not found")

// Config selects the model and decoding options.
type Config struct {
	ModelPath string
	Threads   uint
	Language  string
	Translate bool
}

func (c Config) withDefaults() Config {
	if c.Threads == 0 {
		c.Threads = 4
	}
	if c.Language == "" {
		c.Language = "auto"
	}
	return c
}

func checkModel(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrModelNotFound, path)
	}
	return nil
}
