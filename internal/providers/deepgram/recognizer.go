package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"ambientctx/internal/audio"
	"ambientctx/internal/logging"
)

const defaultChunkBytes = 8192

// Config controls Deepgram websocket settings.
type Config struct {
	APIKey      string
	APIBaseURL  string
	Model       string
	Language    string
	SmartFormat bool
}

// Recognizer implements ports.SpeechRecognizer by streaming one batch per
// /listen connection and collecting the final transcripts.
type Recognizer struct {
	cfg    Config
	dialer *websocket.Dialer
}

func NewRecognizer(cfg Config) *Recognizer {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.deepgram.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	return &Recognizer{cfg: cfg, dialer: websocket.DefaultDialer}
}

func (r *Recognizer) Recognize(ctx context.Context, samples []float32, sampleRate int) ([]string, error) {
	if strings.TrimSpace(r.cfg.APIKey) == "" {
		return nil, errors.New("DEEPGRAM_API_KEY is not configured")
	}
	if len(samples) == 0 {
		return nil, nil
	}

	wsURL, err := buildListenURL(r.cfg, listenParams{SampleRate: sampleRate})
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+r.cfg.APIKey)

	conn, _, err := r.dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Deepgram websocket: %w", err)
	}

	b := &batch{conn: conn, done: make(chan struct{})}
	go b.readLoop()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	b.write(audio.EncodeS16(samples))
	<-b.done
	_ = conn.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.waitErr(); err != nil {
		return nil, err
	}
	logging.Debugw("deepgram batch recognized", "segments", len(b.finals), "samples", len(samples))
	return b.finals, nil
}

type batch struct {
	conn   *websocket.Conn
	done   chan struct{}
	finals []string

	errMu sync.Mutex
	err   error
}

func (b *batch) write(pcm []byte) {
	for len(pcm) > 0 {
		n := min(defaultChunkBytes, len(pcm))
		if err := b.conn.WriteMessage(websocket.BinaryMessage, pcm[:n]); err != nil {
			b.setErr(fmt.Errorf("failed to send audio: %w", err))
			_ = b.conn.Close()
			return
		}
		pcm = pcm[n:]
	}
	if err := b.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		b.setErr(fmt.Errorf("failed to close stream: %w", err))
		_ = b.conn.Close()
	}
}

// readLoop runs until the server closes the connection after CloseStream.
func (b *batch) readLoop() {
	defer close(b.done)

	for {
		_, payload, err := b.conn.ReadMessage()
		if err != nil {
			b.setErr(fmt.Errorf("failed to read provider event: %w", err))
			return
		}

		var response deepgramResponse
		if err := json.Unmarshal(payload, &response); err != nil {
			continue
		}

		if strings.EqualFold(response.Type, "Error") {
			message := strings.TrimSpace(response.Message)
			if message == "" {
				message = "deepgram returned an unknown error"
			}
			b.setErr(errors.New(message))
			return
		}

		if !response.IsFinal && !response.SpeechFinal {
			continue
		}
		if transcript := extractTranscript(response); transcript != "" {
			b.finals = append(b.finals, transcript)
		}
	}
}

func (b *batch) waitErr() error {
	b.errMu.Lock()
	defer b.errMu.Unlock()
	return b.err
}

func (b *batch) setErr(err error) {
	if err == nil {
		return
	}
	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	b.errMu.Lock()
	defer b.errMu.Unlock()
	if b.err == nil {
		b.err = err
	}
}

type deepgramResponse struct {
	Type        string `json:"type"`
	Message     string `json:"message"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`

	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`

	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string `json:"transcript"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

func extractTranscript(response deepgramResponse) string {
	if len(response.Channel.Alternatives) > 0 {
		if text := strings.TrimSpace(response.Channel.Alternatives[0].Transcript); text != "" {
			return text
		}
	}
	if len(response.Results.Channels) > 0 && len(response.Results.Channels[0].Alternatives) > 0 {
		return strings.TrimSpace(response.Results.Channels[0].Alternatives[0].Transcript)
	}
	return ""
}

type listenParams struct {
	Encoding   string
	SampleRate int
	Channels   int
}

func buildListenURL(providerCfg Config, params listenParams) (string, error) {
	base := providerCfg.APIBaseURL
	if base == "" {
		base = "https://api.deepgram.com/v1"
	}
	base = strings.TrimSpace(base)

	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	listenURL, err := url.Parse(base + "/listen")
	if err != nil {
		return "", fmt.Errorf("invalid Deepgram API base URL: %w", err)
	}

	query := listenURL.Query()
	if params.Encoding == "" {
		params.Encoding = "linear16"
	}
	if params.SampleRate <= 0 {
		params.SampleRate = audio.TargetSampleRate
	}
	if params.Channels <= 0 {
		params.Channels = 1
	}
	query.Set("model", providerCfg.Model)
	query.Set("encoding", params.Encoding)
	query.Set("sample_rate", fmt.Sprintf("%d", params.SampleRate))
	query.Set("channels", fmt.Sprintf("%d", params.Channels))
	query.Set("interim_results", "false")
	query.Set("smart_format", fmt.Sprintf("%t", providerCfg.SmartFormat))
	if providerCfg.Language != "" {
		query.Set("language", providerCfg.Language)
	}
	listenURL.RawQuery = query.Encode()
	return listenURL.String(), nil
}
