package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"ambientctx/internal/audio"
	"ambientctx/internal/domain"
	"ambientctx/internal/logging"
	"ambientctx/internal/ports"
	"ambientctx/internal/transcript"
)

// BlankAudioSegment is what the recognizer emits for silence.
const BlankAudioSegment = "[BLANK_AUDIO]"

// AudioDumper persists a mono batch for debugging.
type AudioDumper interface {
	Dump(batchID string, samples []float32, sampleRate int) (string, error)
}

// TranscriptionSession converts drained batches to 16 kHz mono, runs the
// recognizer and appends the result to the rolling transcript. Only one
// recognition runs at a time.
type TranscriptionSession struct {
	recognizer ports.SpeechRecognizer
	transcript *transcript.Rolling
	dumper     AudioDumper

	engineMu sync.Mutex
}

func NewTranscriptionSession(recognizer ports.SpeechRecognizer, rolling *transcript.Rolling, dumper AudioDumper) *TranscriptionSession {
	return &TranscriptionSession{
		recognizer: recognizer,
		transcript: rolling,
		dumper:     dumper,
	}
}

// Transcribe returns the text recognized in batch. Non-empty text is also
// appended to the rolling transcript.
func (s *TranscriptionSession) Transcribe(ctx context.Context, batch domain.AudioBatch) (string, error) {
	if len(batch.Samples) == 0 {
		return "", nil
	}

	mono := audio.ToMono(batch.Samples, batch.SampleRate, audio.TargetSampleRate, batch.Channels)
	if len(mono) == 0 {
		return "", nil
	}

	if s.dumper != nil {
		if path, err := s.dumper.Dump(batch.ID, mono, audio.TargetSampleRate); err != nil {
			logging.Warnw("audio dump failed", "batch_id", batch.ID, "error", err)
		} else {
			logging.Debugw("audio batch dumped", "batch_id", batch.ID, "path", path)
		}
	}

	s.engineMu.Lock()
	segments, err := s.recognizer.Recognize(ctx, mono, audio.TargetSampleRate)
	s.engineMu.Unlock()
	if err != nil {
		return "", fmt.Errorf("recognize batch %s: %w", batch.ID, err)
	}

	text := joinSegments(segments)
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	s.transcript.Append(text)
	return text, nil
}

func joinSegments(segments []string) string {
	var b strings.Builder
	for _, segment := range segments {
		trimmed := strings.TrimSpace(segment)
		if trimmed == "" || trimmed == BlankAudioSegment {
			continue
		}
		b.WriteString(segment)
		b.WriteByte('\n')
	}
	return b.String()
}
