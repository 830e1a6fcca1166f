package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ambientctx/internal/audio"
	"ambientctx/internal/domain"
	"ambientctx/internal/logging"
	"ambientctx/internal/ports"
)

var ErrPipelineClosed = errors.New("audio pipeline closed")

// PipelineConfig controls the drain loop.
type PipelineConfig struct {
	DrainInterval time.Duration
	QueueSize     int
}

// AudioPipeline owns the capture stream, the ingest buffer and the drain loop.
// Capture runs for the lifetime of the pipeline; the enabled flag only gates
// whether a tick drains and transcribes.
type AudioPipeline struct {
	device  ports.AudioDevice
	session *TranscriptionSession
	events  ports.EventSink
	cfg     PipelineConfig
	ingest  *audio.IngestBuffer

	enabled   atomic.Bool
	capturing atomic.Bool
	inflight  atomic.Int32

	startOnce sync.Once
	startErr  error

	mu        sync.Mutex
	stream    ports.AudioStream
	streamCfg domain.StreamConfig

	queue     chan domain.AudioBatch
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewAudioPipeline(device ports.AudioDevice, session *TranscriptionSession, events ports.EventSink, cfg PipelineConfig) *AudioPipeline {
	if cfg.DrainInterval <= 0 {
		cfg.DrainInterval = 10 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 4
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &AudioPipeline{
		device:  device,
		session: session,
		events:  events,
		cfg:     cfg,
		ingest:  audio.NewIngestBuffer(),
		queue:   make(chan domain.AudioBatch, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// StartCapture opens the default device and starts the drain loop. Later calls
// return the result of the first one.
func (p *AudioPipeline) StartCapture() error {
	p.startOnce.Do(func() {
		p.startErr = p.start()
	})
	return p.startErr
}

func (p *AudioPipeline) start() error {
	if p.ctx.Err() != nil {
		return ErrPipelineClosed
	}

	stream, err := p.device.Open(p.ingest.Append, p.onStreamError)
	if err != nil {
		return err
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return err
	}

	cfg := stream.Config()
	p.mu.Lock()
	p.stream = stream
	p.streamCfg = cfg
	p.mu.Unlock()
	p.capturing.Store(true)

	logging.Infow("audio capture started",
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"format", cfg.Format,
	)

	p.wg.Add(2)
	go p.transcribeLoop()
	go p.drainLoop()
	return nil
}

func (p *AudioPipeline) onStreamError(err error) {
	logging.Errorw("audio stream error", "error", err)
	if p.events != nil {
		p.events.PipelineError(domain.ErrorCodeAudioStream, err.Error())
	}
}

// SetEnabled toggles transcription. It never waits on an in-flight recognition.
func (p *AudioPipeline) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

func (p *AudioPipeline) Enabled() bool {
	return p.enabled.Load()
}

// ResetTranscript clears the rolling transcript.
func (p *AudioPipeline) ResetTranscript() {
	p.session.transcript.Reset()
}

// Transcript returns a snapshot of the rolling transcript.
func (p *AudioPipeline) Transcript() string {
	return p.session.transcript.String()
}

// Status reports capture and queue state.
func (p *AudioPipeline) Status() domain.Status {
	p.mu.Lock()
	cfg := p.streamCfg
	p.mu.Unlock()
	return domain.Status{
		Capturing:    p.capturing.Load(),
		Enabled:      p.enabled.Load(),
		Stream:       cfg,
		PendingTasks: len(p.queue) + int(p.inflight.Load()),
	}
}

func (p *AudioPipeline) drainLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.DrainInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick drains the ingest buffer and queues the batch for transcription. A
// disabled pipeline leaves the buffer untouched.
func (p *AudioPipeline) tick() {
	if !p.enabled.Load() {
		return
	}
	samples := p.ingest.Drain()
	if len(samples) == 0 {
		return
	}

	p.mu.Lock()
	cfg := p.streamCfg
	p.mu.Unlock()

	batch := domain.AudioBatch{
		ID:         uuid.NewString(),
		Samples:    samples,
		SampleRate: cfg.SampleRate,
		Channels:   cfg.Channels,
	}

	select {
	case p.queue <- batch:
		logging.Debugw("audio batch queued", "batch_id", batch.ID, "samples", len(samples))
	default:
		logging.Warnw("transcription queue full, dropping batch",
			"batch_id", batch.ID,
			"samples", len(samples),
			"dropped_seconds", batchSeconds(batch),
			"queue_size", cap(p.queue),
		)
	}
}

// batchSeconds is the wall-clock span covered by an interleaved batch.
func batchSeconds(batch domain.AudioBatch) float64 {
	if batch.SampleRate <= 0 || batch.Channels <= 0 {
		return 0
	}
	return float64(len(batch.Samples)) / float64(batch.SampleRate*batch.Channels)
}

// transcribeLoop is the only caller of the session, so batches are
// transcribed one at a time in drain order.
func (p *AudioPipeline) transcribeLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case batch := <-p.queue:
			p.inflight.Add(1)
			p.transcribe(batch)
			p.inflight.Add(-1)
		}
	}
}

func (p *AudioPipeline) transcribe(batch domain.AudioBatch) {
	started := time.Now()
	text, err := p.session.Transcribe(p.ctx, batch)
	if err != nil {
		if p.ctx.Err() != nil {
			return
		}
		logging.Errorw("transcription failed", "batch_id", batch.ID, "error", err)
		if p.events != nil {
			p.events.PipelineError(domain.ErrorCodeTranscription, err.Error())
		}
		return
	}
	logging.Debugw("batch transcribed",
		"batch_id", batch.ID,
		"chars", len([]rune(text)),
		"took", time.Since(started),
	)
}

// Close stops the drain loop and the worker and releases the device.
func (p *AudioPipeline) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.cancel()
		p.wg.Wait()

		p.mu.Lock()
		stream := p.stream
		p.stream = nil
		p.mu.Unlock()
		p.capturing.Store(false)

		if stream != nil {
			err = stream.Close()
		}
	})
	return err
}
