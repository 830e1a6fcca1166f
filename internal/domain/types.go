package domain

// ErrorCode identifies non-fatal and fatal backend errors.
type ErrorCode string

const (
	ErrorCodeStartup       ErrorCode = "startup"
	ErrorCodeAudioStream   ErrorCode = "audio_stream"
	ErrorCodeTranscription ErrorCode = "transcription"
	ErrorCodeScreen        ErrorCode = "screen"
	ErrorCodeSettings      ErrorCode = "settings"
)

// SampleFormat is the native sample encoding of an audio stream.
type SampleFormat string

const (
	SampleFormatF32 SampleFormat = "f32"
	SampleFormatS16 SampleFormat = "s16"
	SampleFormatU16 SampleFormat = "u16"
)

// StreamConfig describes the native configuration of an opened audio stream.
type StreamConfig struct {
	SampleRate int          `json:"sampleRate"`
	Channels   int          `json:"channels"`
	Format     SampleFormat `json:"format"`
}

// AudioBatch is one drain tick worth of interleaved samples.
type AudioBatch struct {
	ID         string
	Samples    []float32
	SampleRate int
	Channels   int
}

// Window identifies one capturable top-level window for a single enumeration pass.
type Window struct {
	Handle uintptr `json:"handle"`
	Title  string  `json:"title"`
}

// WindowContent is the recognized text of one window.
type WindowContent struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Settings is the flat settings record shared with the UI.
type Settings struct {
	APIKey        string `json:"groq_api_key"`
	ScreenContext bool   `json:"screen_context"`
	AudioContext  bool   `json:"audio_context"`
}

// DefaultSettings returns the record written on first launch.
func DefaultSettings() Settings {
	return Settings{ScreenContext: true, AudioContext: true}
}

// AIContext is returned to the UI when it builds a chat request.
type AIContext struct {
	Content string `json:"content"`
	APIKey  string `json:"api_key"`
}

// Status summarizes the audio pipeline for the UI.
type Status struct {
	Capturing    bool         `json:"capturing"`
	Enabled      bool         `json:"enabled"`
	Stream       StreamConfig `json:"stream"`
	PendingTasks int          `json:"pendingTasks"`
	Message      string       `json:"message,omitempty"`
}
