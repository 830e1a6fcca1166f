package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config stores runtime configuration. Values resolve as defaults, then the
// optional YAML file, then environment variables.
type Config struct {
	Speech   SpeechConfig   `yaml:"speech"`
	Deepgram DeepgramConfig `yaml:"deepgram"`
	Audio    AudioConfig    `yaml:"audio"`
	Screen   ScreenConfig   `yaml:"screen"`
	Settings SettingsConfig `yaml:"settings"`
	Log      LogConfig      `yaml:"log"`

	// Source is the YAML file that was applied, if any.
	Source string `yaml:"-"`
}

type SpeechConfig struct {
	Backend        string `yaml:"backend"`
	WhisperModel   string `yaml:"whisper_model"`
	WhisperThreads int    `yaml:"whisper_threads"`
	Language       string `yaml:"language"`
	Translate      bool   `yaml:"translate"`
}

type DeepgramConfig struct {
	APIKey      string `yaml:"api_key"`
	APIBaseURL  string `yaml:"api_base"`
	Model       string `yaml:"model"`
	Language    string `yaml:"language"`
	SmartFormat bool   `yaml:"smart_format"`
}

type AudioConfig struct {
	Backend         string `yaml:"backend"`
	FFMPEGCommand   string `yaml:"ffmpeg_command"`
	InputFormat     string `yaml:"input_format"`
	InputDevice     string `yaml:"input_device"`
	SampleRate      int    `yaml:"sample_rate"`
	Channels        int    `yaml:"channels"`
	DrainIntervalMS int    `yaml:"drain_interval_ms"`
	MaxChars        int    `yaml:"max_chars"`
	TranscribeQueue int    `yaml:"transcribe_queue"`
	SaveDir         string `yaml:"save_dir"`
}

type ScreenConfig struct {
	MaxChars        int `yaml:"max_chars"`
	MinWindowArea   int `yaml:"min_window_area"`
	Concurrency     int `yaml:"concurrency"`
	WindowTimeoutMS int `yaml:"window_timeout_ms"`
}

type SettingsConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

const (
	SpeechBackendWhisper  = "whisper"
	SpeechBackendDeepgram = "deepgram"

	AudioBackendMalgo  = "malgo"
	AudioBackendFFMPEG = "ffmpeg"
)

func (c AudioConfig) DrainInterval() time.Duration {
	return time.Duration(c.DrainIntervalMS) * time.Millisecond
}

func (c ScreenConfig) WindowTimeout() time.Duration {
	return time.Duration(c.WindowTimeoutMS) * time.Millisecond
}

// Defaults returns the configuration used when nothing is overridden.
func Defaults() Config {
	return Config{
		Speech: SpeechConfig{
			Backend:        SpeechBackendWhisper,
			WhisperModel:   "./assets/ggml-tiny-q5_1.bin",
			WhisperThreads: 4,
			Language:       "auto",
			Translate:      true,
		},
		Deepgram: DeepgramConfig{
			APIBaseURL:  "https://api.deepgram.com/v1",
			Model:       "nova-2",
			SmartFormat: true,
		},
		Audio: AudioConfig{
			Backend:         AudioBackendMalgo,
			FFMPEGCommand:   "ffmpeg",
			InputFormat:     "pulse",
			InputDevice:     "default.monitor",
			SampleRate:      48000,
			Channels:        2,
			DrainIntervalMS: 10000,
			MaxChars:        2000,
			TranscribeQueue: 4,
		},
		Screen: ScreenConfig{
			MaxChars:      4000,
			MinWindowArea: 10000,
		},
		Settings: SettingsConfig{Path: "./settings.json"},
		Log:      LogConfig{Level: "info"},
	}
}

// Load resolves configuration from defaults, the YAML file and environment
// variables. An explicitly named config file must exist.
func Load() (Config, error) {
	cfg := Defaults()

	path, explicit := configPath()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("invalid config file %s: %w", path, err)
			}
			cfg.Source = path
		case explicit || !errors.Is(err, os.ErrNotExist):
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	normalize(&cfg)
	return cfg, nil
}

func configPath() (string, bool) {
	if path := strings.TrimSpace(os.Getenv("AMBIENT_CONFIG_FILE")); path != "" {
		return path, true
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return firstExisting(filepath.Join(home, ".config", "ambientctx", "config.yaml")), false
}

func applyEnv(cfg *Config) {
	cfg.Speech.Backend = strings.ToLower(envOrDefault("AMBIENT_SPEECH_BACKEND", cfg.Speech.Backend))
	cfg.Speech.WhisperModel = envOrDefault("AMBIENT_WHISPER_MODEL", cfg.Speech.WhisperModel)
	cfg.Speech.WhisperThreads = envOrDefaultInt("AMBIENT_WHISPER_THREADS", cfg.Speech.WhisperThreads)
	cfg.Speech.Language = envOrDefault("AMBIENT_SPEECH_LANGUAGE", cfg.Speech.Language)
	cfg.Speech.Translate = envOrDefaultBool("AMBIENT_SPEECH_TRANSLATE", cfg.Speech.Translate)

	cfg.Deepgram.APIKey = envOrDefault("DEEPGRAM_API_KEY", cfg.Deepgram.APIKey)
	cfg.Deepgram.APIBaseURL = envOrDefault("DEEPGRAM_API_BASE", cfg.Deepgram.APIBaseURL)
	cfg.Deepgram.Model = envOrDefault("DEEPGRAM_MODEL", cfg.Deepgram.Model)
	cfg.Deepgram.Language = envOrDefault("DEEPGRAM_LANGUAGE", cfg.Deepgram.Language)
	cfg.Deepgram.SmartFormat = envOrDefaultBool("DEEPGRAM_SMART_FORMAT", cfg.Deepgram.SmartFormat)

	cfg.Audio.Backend = strings.ToLower(envOrDefault("AMBIENT_AUDIO_BACKEND", cfg.Audio.Backend))
	cfg.Audio.FFMPEGCommand = envOrDefault("AMBIENT_FFMPEG_COMMAND", cfg.Audio.FFMPEGCommand)
	cfg.Audio.InputFormat = envOrDefault("AMBIENT_FFMPEG_INPUT_FORMAT", cfg.Audio.InputFormat)
	cfg.Audio.InputDevice = firstNonEmpty(
		os.Getenv("AMBIENT_FFMPEG_INPUT_DEVICE"),
		os.Getenv("PULSE_SOURCE"),
		cfg.Audio.InputDevice,
	)
	cfg.Audio.SampleRate = envOrDefaultInt("AMBIENT_FFMPEG_SAMPLE_RATE", cfg.Audio.SampleRate)
	cfg.Audio.Channels = envOrDefaultInt("AMBIENT_FFMPEG_CHANNELS", cfg.Audio.Channels)
	cfg.Audio.DrainIntervalMS = firstNonNegativeInt("AMBIENT_DRAIN_INTERVAL_MS", cfg.Audio.DrainIntervalMS)
	cfg.Audio.MaxChars = envOrDefaultInt("AMBIENT_MAX_AUDIO_CHARS", cfg.Audio.MaxChars)
	cfg.Audio.TranscribeQueue = envOrDefaultInt("AMBIENT_TRANSCRIBE_QUEUE", cfg.Audio.TranscribeQueue)
	cfg.Audio.SaveDir = envOrDefault("AMBIENT_SAVE_AUDIO_DIR", cfg.Audio.SaveDir)

	cfg.Screen.MaxChars = envOrDefaultInt("AMBIENT_MAX_SCREEN_CHARS", cfg.Screen.MaxChars)
	cfg.Screen.MinWindowArea = envOrDefaultInt("AMBIENT_MIN_WINDOW_AREA", cfg.Screen.MinWindowArea)
	cfg.Screen.Concurrency = firstNonNegativeInt("AMBIENT_SCREEN_CONCURRENCY", cfg.Screen.Concurrency)
	cfg.Screen.WindowTimeoutMS = firstNonNegativeInt("AMBIENT_WINDOW_TIMEOUT_MS", cfg.Screen.WindowTimeoutMS)

	cfg.Settings.Path = envOrDefault("AMBIENT_SETTINGS_FILE", cfg.Settings.Path)

	cfg.Log.Level = envOrDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = envOrDefault("AMBIENT_LOG_FILE", cfg.Log.File)
}

func normalize(cfg *Config) {
	defaults := Defaults()

	switch cfg.Speech.Backend {
	case SpeechBackendWhisper, SpeechBackendDeepgram:
	default:
		cfg.Speech.Backend = defaults.Speech.Backend
	}
	switch cfg.Audio.Backend {
	case AudioBackendMalgo, AudioBackendFFMPEG:
	default:
		cfg.Audio.Backend = defaults.Audio.Backend
	}

	if cfg.Speech.WhisperThreads <= 0 {
		cfg.Speech.WhisperThreads = defaults.Speech.WhisperThreads
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = defaults.Audio.SampleRate
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = defaults.Audio.Channels
	}
	if cfg.Audio.DrainIntervalMS <= 0 {
		cfg.Audio.DrainIntervalMS = defaults.Audio.DrainIntervalMS
	}
	if cfg.Audio.MaxChars <= 0 {
		cfg.Audio.MaxChars = defaults.Audio.MaxChars
	}
	if cfg.Audio.TranscribeQueue <= 0 {
		cfg.Audio.TranscribeQueue = defaults.Audio.TranscribeQueue
	}
	if cfg.Screen.MaxChars <= 0 {
		cfg.Screen.MaxChars = defaults.Screen.MaxChars
	}
	if cfg.Screen.MinWindowArea <= 0 {
		cfg.Screen.MinWindowArea = defaults.Screen.MinWindowArea
	}
	if cfg.Screen.Concurrency < 0 {
		cfg.Screen.Concurrency = 0
	}
	if cfg.Screen.WindowTimeoutMS < 0 {
		cfg.Screen.WindowTimeoutMS = 0
	}
}

func firstExisting(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}

func envOrDefault(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrDefaultInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDefaultBool(key string, fallback bool) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	switch value {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func firstNonNegativeInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}
