package bootstrap

import (
	"errors"
	"fmt"
	"io"

	"ambientctx/internal/audio"
	"ambientctx/internal/config"
	"ambientctx/internal/desktop"
	"ambientctx/internal/logging"
	"ambientctx/internal/ports"
	"ambientctx/internal/providers/deepgram"
	"ambientctx/internal/providers/tesseract"
	"ambientctx/internal/providers/whisper"
	"ambientctx/internal/settings"
	"ambientctx/internal/transcript"
	"ambientctx/internal/usecase"
)

// Services is the assembled runtime graph. Pipeline and Screen are nil when
// their capability failed to initialize; AudioErr and ScreenErr say why.
type Services struct {
	Config    config.Config
	Settings  *settings.FileStore
	Pipeline  *usecase.AudioPipeline
	AudioErr  error
	Screen    *usecase.ScreenAggregator
	ScreenErr error
	Assembler *usecase.ContextAssembler

	closers []io.Closer
}

// Build loads configuration and wires all backend dependencies.
func Build(eventSink ports.EventSink) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, File: cfg.Log.File})
	if cfg.Source != "" {
		logging.Infow("config loaded", "path", cfg.Source)
	}
	return Wire(cfg, eventSink), nil
}

// Wire assembles services from an already resolved configuration. Failing
// audio or screen capabilities degrade the graph instead of failing it.
func Wire(cfg config.Config, eventSink ports.EventSink) Services {
	s := Services{
		Config:   cfg,
		Settings: settings.NewFileStore(cfg.Settings.Path),
	}

	s.Pipeline, s.AudioErr = s.buildPipeline(eventSink)
	if s.AudioErr != nil {
		logging.Warnw("audio context unavailable", "error", s.AudioErr)
	}
	s.Screen, s.ScreenErr = buildScreen(cfg)
	if s.ScreenErr != nil {
		logging.Warnw("screen context unavailable", "error", s.ScreenErr)
	}

	var screenSource usecase.ScreenTextSource
	if s.Screen != nil {
		screenSource = s.Screen
	}
	var transcriptSource usecase.TranscriptSource
	if s.Pipeline != nil {
		transcriptSource = s.Pipeline
	}
	s.Assembler = usecase.NewContextAssembler(s.Settings, screenSource, transcriptSource, cfg.Screen.MaxChars)
	return s
}

func (s *Services) buildPipeline(eventSink ports.EventSink) (*usecase.AudioPipeline, error) {
	recognizer, err := s.newRecognizer()
	if err != nil {
		return nil, fmt.Errorf("speech recognizer: %w", err)
	}

	var dumper usecase.AudioDumper
	if s.Config.Audio.SaveDir != "" {
		dumper = audio.NewWAVDumper(s.Config.Audio.SaveDir)
	}

	session := usecase.NewTranscriptionSession(recognizer, transcript.NewRolling(s.Config.Audio.MaxChars), dumper)
	pipeline := usecase.NewAudioPipeline(newAudioDevice(s.Config.Audio), session, eventSink, usecase.PipelineConfig{
		DrainInterval: s.Config.Audio.DrainInterval(),
		QueueSize:     s.Config.Audio.TranscribeQueue,
	})
	s.closers = append(s.closers, pipeline)
	return pipeline, nil
}

func (s *Services) newRecognizer() (ports.SpeechRecognizer, error) {
	switch s.Config.Speech.Backend {
	case config.SpeechBackendDeepgram:
		return deepgram.NewRecognizer(deepgram.Config{
			APIKey:      s.Config.Deepgram.APIKey,
			APIBaseURL:  s.Config.Deepgram.APIBaseURL,
			Model:       s.Config.Deepgram.Model,
			Language:    s.Config.Deepgram.Language,
			SmartFormat: s.Config.Deepgram.SmartFormat,
		}), nil
	default:
		r, err := whisper.NewRecognizer(whisper.Config{
			ModelPath: s.Config.Speech.WhisperModel,
			Threads:   uint(s.Config.Speech.WhisperThreads),
			Language:  s.Config.Speech.Language,
			Translate: s.Config.Speech.Translate,
		})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, r)
		return r, nil
	}
}

func newAudioDevice(cfg config.AudioConfig) ports.AudioDevice {
	if cfg.Backend == config.AudioBackendFFMPEG {
		return audio.NewFFMPEGDevice(audio.FFMPEGConfig{
			Command:     cfg.FFMPEGCommand,
			InputFormat: cfg.InputFormat,
			InputDevice: cfg.InputDevice,
			SampleRate:  cfg.SampleRate,
			Channels:    cfg.Channels,
		})
	}
	return audio.NewMalgoDevice()
}

func buildScreen(cfg config.Config) (*usecase.ScreenAggregator, error) {
	ocr, err := tesseract.NewRecognizer(tesseract.Config{})
	if err != nil {
		return nil, fmt.Errorf("ocr: %w", err)
	}
	return usecase.NewScreenAggregator(
		desktop.NewLister(cfg.Screen.MinWindowArea),
		desktop.NewCapturer(),
		ocr,
		usecase.ScreenConfig{
			Concurrency:   cfg.Screen.Concurrency,
			WindowTimeout: cfg.Screen.WindowTimeout(),
		},
	), nil
}

// Close releases resources in reverse order of construction, so the pipeline
// stops before the speech engine it calls is freed.
func (s Services) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
