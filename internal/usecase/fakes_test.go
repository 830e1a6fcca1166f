package usecase

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"
	"time"

	"ambientctx/internal/domain"
	"ambientctx/internal/ports"
)

type fakeRecognizer struct {
	mu       sync.Mutex
	segments [][]string
	err      error
	delay    time.Duration
	calls    []recognizeCall
	active   int
	maxSeen  int
}

type recognizeCall struct {
	samples    int
	sampleRate int
}

func (f *fakeRecognizer) Recognize(_ context.Context, samples []float32, sampleRate int) ([]string, error) {
	f.mu.Lock()
	f.active++
	if f.active > f.maxSeen {
		f.maxSeen = f.active
	}
	f.calls = append(f.calls, recognizeCall{samples: len(samples), sampleRate: sampleRate})
	var out []string
	if len(f.segments) > 0 {
		out = f.segments[0]
		f.segments = f.segments[1:]
	}
	err := f.err
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()
	return out, err
}

func (f *fakeRecognizer) snapshotCalls() []recognizeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]recognizeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeDumper struct {
	mu    sync.Mutex
	ids   []string
	rates []int
	err   error
}

func (f *fakeDumper) Dump(batchID string, _ []float32, sampleRate int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, batchID)
	f.rates = append(f.rates, sampleRate)
	return "/tmp/" + batchID + ".wav", f.err
}

type fakeDevice struct {
	mu        sync.Mutex
	cfg       domain.StreamConfig
	openErr   error
	startErr  error
	opens     int
	onSamples ports.SampleFunc
	onError   func(error)
	stream    *fakeStream
}

func (f *fakeDevice) Open(onSamples ports.SampleFunc, onError func(error)) (ports.AudioStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.onSamples = onSamples
	f.onError = onError
	f.stream = &fakeStream{cfg: f.cfg, startErr: f.startErr}
	return f.stream, nil
}

func (f *fakeDevice) push(samples []float32) {
	f.mu.Lock()
	fn := f.onSamples
	f.mu.Unlock()
	fn(samples)
}

func (f *fakeDevice) fail(err error) {
	f.mu.Lock()
	fn := f.onError
	f.mu.Unlock()
	fn(err)
}

type fakeStream struct {
	mu       sync.Mutex
	cfg      domain.StreamConfig
	startErr error
	started  bool
	closed   bool
}

func (f *fakeStream) Config() domain.StreamConfig { return f.cfg }

func (f *fakeStream) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakeStream) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeStream) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeWindowLister struct {
	windows []domain.Window
	err     error
}

func (f *fakeWindowLister) ListWindows(context.Context) ([]domain.Window, error) {
	return f.windows, f.err
}

type fakeCapturer struct {
	fail  map[uintptr]error
	delay map[uintptr]time.Duration
	// stall sleeps without watching ctx, like a blocking native call.
	stall map[uintptr]time.Duration

	mu      sync.Mutex
	active  int
	maxSeen int
}

func (f *fakeCapturer) Capture(ctx context.Context, window domain.Window) (image.Image, error) {
	f.mu.Lock()
	f.active++
	if f.active > f.maxSeen {
		f.maxSeen = f.active
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if d := f.delay[window.Handle]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d := f.stall[window.Handle]; d > 0 {
		time.Sleep(d)
	}
	if err := f.fail[window.Handle]; err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, int(window.Handle), 1))
	img.Set(0, 0, color.White)
	return img, nil
}

// fakeOCR reads back the PNG written for a window and answers with the lines
// registered for its width. fakeCapturer renders window N as an N-pixel-wide image.
type fakeOCR struct {
	languages []string
	langErr   error
	byWidth   map[int][]string
	err       error

	mu    sync.Mutex
	langs []string
	paths []string
}

func (f *fakeOCR) Languages() ([]string, error) {
	return f.languages, f.langErr
}

func (f *fakeOCR) RecognizeFile(_ context.Context, path string, language string) ([]string, error) {
	f.mu.Lock()
	f.langs = append(f.langs, language)
	f.paths = append(f.paths, path)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg, err := png.DecodeConfig(file)
	if err != nil {
		return nil, errors.New("not a png image")
	}
	return f.byWidth[cfg.Width], nil
}

type fakeSettingsStore struct {
	mu       sync.Mutex
	settings domain.Settings
	loadErr  error
	saveErr  error
	saves    int
}

func (f *fakeSettingsStore) Load() (domain.Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settings, f.loadErr
}

func (f *fakeSettingsStore) Save(s domain.Settings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.settings = s
	f.saves++
	return nil
}

type fakeScreenSource struct {
	text     string
	err      error
	maxChars int
	calls    int
}

func (f *fakeScreenSource) GetScreenText(_ context.Context, maxChars int) (string, error) {
	f.calls++
	f.maxChars = maxChars
	return f.text, f.err
}

type fakeTranscriptSource struct {
	text string
}

func (f *fakeTranscriptSource) Transcript() string { return f.text }

type fakeEventSink struct {
	mu     sync.Mutex
	errors []errEvent
}

type errEvent struct {
	code   domain.ErrorCode
	detail string
}

func (f *fakeEventSink) PipelineError(code domain.ErrorCode, detail string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, errEvent{code: code, detail: detail})
}

func (f *fakeEventSink) snapshotErrors() []errEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]errEvent, len(f.errors))
	copy(out, f.errors)
	return out
}

func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
