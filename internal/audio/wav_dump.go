package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

// WAVDumper writes each batch handed to the recognizer to Dir as 16-bit mono
// WAV, for inspecting what the transcriber actually heard.
type WAVDumper struct {
	Dir string
}

func NewWAVDumper(dir string) *WAVDumper {
	return &WAVDumper{Dir: dir}
}

// Dump writes samples as <utc-timestamp>_<batchID>.wav and returns the path.
// An empty batchID gets a fresh uuid.
func (d *WAVDumper) Dump(batchID string, samples []float32, sampleRate int) (string, error) {
	if batchID == "" {
		batchID = uuid.NewString()
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create audio dump dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.wav", time.Now().UTC().Format("20060102T150405Z"), batchID)
	path := filepath.Join(d.Dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create audio dump: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		buf.Data[i] = int(FloatToS16(s))
	}
	if err := enc.Write(buf); err != nil {
		_ = enc.Close()
		return "", fmt.Errorf("failed to write audio dump: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize audio dump: %w", err)
	}
	return path, nil
}
