package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ambientctx/internal/domain"
	"ambientctx/internal/ports"
)

// FFMPEGConfig selects the ffmpeg input used as the audio source.
type FFMPEGConfig struct {
	Command     string
	InputFormat string
	InputDevice string
	SampleRate  int
	Channels    int
	ChunkSize   int
}

// FFMPEGDevice streams s16le PCM from an ffmpeg subprocess. On PulseAudio
// hosts a ".monitor" source captures system output.
type FFMPEGDevice struct {
	cfg FFMPEGConfig
}

func NewFFMPEGDevice(cfg FFMPEGConfig) *FFMPEGDevice {
	if cfg.Command == "" {
		cfg.Command = "ffmpeg"
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 2
	}
	if cfg.ChunkSize < 256 {
		cfg.ChunkSize = 4096
	}
	return &FFMPEGDevice{cfg: cfg}
}

func (d *FFMPEGDevice) Open(onSamples ports.SampleFunc, onError func(error)) (ports.AudioStream, error) {
	return &ffmpegStream{
		cfg:       d.cfg,
		onSamples: onSamples,
		onError:   onError,
		done:      make(chan struct{}),
	}, nil
}

type ffmpegStream struct {
	cfg       FFMPEGConfig
	onSamples ports.SampleFunc
	onError   func(error)

	stdout  io.ReadCloser
	stderr  *bytes.Buffer
	process *os.Process
	waitErr <-chan error
	done    chan struct{}

	closing   atomic.Bool
	startOnce sync.Once
	stopOnce  sync.Once
	stopErr   error
}

func (s *ffmpegStream) Config() domain.StreamConfig {
	return domain.StreamConfig{
		SampleRate: s.cfg.SampleRate,
		Channels:   s.cfg.Channels,
		Format:     domain.SampleFormatS16,
	}
}

func (s *ffmpegStream) Start() error {
	var err error
	s.startOnce.Do(func() {
		err = s.start()
	})
	return err
}

func (s *ffmpegStream) start() error {
	args := []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", s.cfg.InputFormat,
		"-i", s.cfg.InputDevice,
		"-ac", strconv.Itoa(s.cfg.Channels),
		"-ar", strconv.Itoa(s.cfg.SampleRate),
		"-f", "s16le",
		"-",
	}

	cmd := exec.Command(s.cfg.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
		close(waitErr)
	}()

	select {
	case err := <-waitErr:
		if err != nil {
			return fmt.Errorf("ffmpeg exited before capture started: %w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return errors.New("ffmpeg exited before capture started")
	case <-time.After(250 * time.Millisecond):
	}

	s.stdout = stdout
	s.stderr = &stderr
	s.process = cmd.Process
	s.waitErr = waitErr

	go s.pump()
	return nil
}

// pump plays the role of the hardware callback: every chunk read from ffmpeg
// is decoded and handed to onSamples. A sample split across reads is carried
// into the next chunk.
func (s *ffmpegStream) pump() {
	defer close(s.done)

	buf := make([]byte, s.cfg.ChunkSize)
	var carry []byte
	for {
		n, err := s.stdout.Read(buf)
		if n > 0 {
			chunk := append(carry, buf[:n]...)
			whole := len(chunk) - len(chunk)%2
			s.onSamples(decodeS16(chunk[:whole]))
			carry = append(carry[:0], chunk[whole:]...)
		}
		if err != nil {
			if s.closing.Load() || s.onError == nil {
				return
			}
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				s.onError(errors.New("ffmpeg stopped producing audio"))
				return
			}
			s.onError(fmt.Errorf("audio capture error: %w", err))
			return
		}
	}
}

func (s *ffmpegStream) Close() error {
	s.stopOnce.Do(func() {
		s.closing.Store(true)
		if s.process == nil {
			return
		}
		_ = s.process.Signal(os.Interrupt)

		select {
		case err, ok := <-s.waitErr:
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		case <-time.After(1200 * time.Millisecond):
			_ = s.process.Kill()
			err, ok := <-s.waitErr
			if ok {
				s.stopErr = normalizeStopErr(err)
			}
		}

		if closeErr := s.stdout.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			if s.stopErr == nil {
				s.stopErr = closeErr
			}
		}
		<-s.done

		if s.stopErr != nil && s.stderr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, strings.TrimSpace(s.stderr.String()))
		}
	})

	return s.stopErr
}

func normalizeStopErr(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
