package audio

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"ambientctx/internal/domain"
	"ambientctx/internal/logging"
	"ambientctx/internal/ports"
)

// MalgoDevice opens the default system device through miniaudio. On Windows
// it captures the render endpoint in loopback mode so the stream carries what
// the user hears; elsewhere it opens the default capture endpoint.
type MalgoDevice struct{}

func NewMalgoDevice() *MalgoDevice {
	return &MalgoDevice{}
}

func (d *MalgoDevice) Open(onSamples ports.SampleFunc, onError func(error)) (ports.AudioStream, error) {
	mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		logging.Debugw("miniaudio", "message", message)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init audio context: %w", err)
	}

	s := &malgoStream{ctx: mctx, onSamples: onSamples, onError: onError}

	device, cfg, err := s.initDevice(malgo.FormatUnknown)
	if errors.Is(err, ErrUnsupportedFormat) {
		device, cfg, err = s.initDevice(malgo.FormatF32)
	}
	if err != nil {
		_ = mctx.Uninit()
		mctx.Free()
		return nil, err
	}

	s.device = device
	s.cfg = cfg
	return s, nil
}

type malgoStream struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	cfg    domain.StreamConfig

	decode    Decoder
	onSamples ports.SampleFunc
	onError   func(error)

	closed    atomic.Bool
	closeOnce sync.Once
}

func deviceType() malgo.DeviceType {
	if runtime.GOOS == "windows" {
		return malgo.Loopback
	}
	return malgo.Capture
}

func (s *malgoStream) initDevice(format malgo.FormatType) (*malgo.Device, domain.StreamConfig, error) {
	deviceCfg := malgo.DefaultDeviceConfig(deviceType())
	deviceCfg.Capture.Format = format

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			if s.decode == nil || len(input) == 0 {
				return
			}
			s.onSamples(s.decode(input))
		},
		Stop: func() {
			if s.onError != nil && !s.closed.Load() {
				s.onError(errors.New("audio device stopped"))
			}
		},
	}

	device, err := malgo.InitDevice(s.ctx.Context, deviceCfg, callbacks)
	if err != nil {
		return nil, domain.StreamConfig{}, fmt.Errorf("failed to open audio device: %w", err)
	}

	cfg := domain.StreamConfig{
		SampleRate: int(device.SampleRate()),
		Channels:   int(device.CaptureChannels()),
		Format:     sampleFormat(device.CaptureFormat()),
	}
	decode, err := DecoderFor(cfg.Format)
	if err != nil {
		device.Uninit()
		return nil, domain.StreamConfig{}, err
	}
	s.decode = decode
	return device, cfg, nil
}

func sampleFormat(f malgo.FormatType) domain.SampleFormat {
	switch f {
	case malgo.FormatF32:
		return domain.SampleFormatF32
	case malgo.FormatS16:
		return domain.SampleFormatS16
	default:
		return domain.SampleFormat(fmt.Sprintf("malgo:%d", f))
	}
}

func (s *malgoStream) Config() domain.StreamConfig { return s.cfg }

func (s *malgoStream) Start() error {
	if err := s.device.Start(); err != nil {
		return fmt.Errorf("failed to start audio device: %w", err)
	}
	return nil
}

func (s *malgoStream) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.device.Uninit()
		_ = s.ctx.Uninit()
		s.ctx.Free()
	})
	return nil
}
