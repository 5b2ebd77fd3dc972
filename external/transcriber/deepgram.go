package transcriber

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/amplifiedhq/amplified/internal/transcriber"
)

const (
	deepgramListenURL  = "wss://api.deepgram.com/v1/listen"
	deepgramModel      = "nova-2"
	audioSampleRate    = 16000
	utteranceEndMillis = 1000
	keepAliveInterval  = 5 * time.Second
)

var ErrMissingAPIKey = errors.New("deepgram API key is not configured")

type DeepgramConfig struct {
	APIKey          string
	DefaultLanguage string
	Model           string
}

type DeepgramTranscriber struct {
	apiKey          string
	defaultLanguage string
	model           string
}

func NewDeepgramTranscriber(cfg DeepgramConfig) transcriber.Transcriber {
	model := cfg.Model
	if model == "" {
		model = deepgramModel
	}
	if cfg.APIKey == "" {
		slog.Warn("DEEPGRAM_API_KEY not set; transcription will not start")
	}
	return &DeepgramTranscriber{
		apiKey:          cfg.APIKey,
		defaultLanguage: cfg.DefaultLanguage,
		model:           model,
	}
}

func (t *DeepgramTranscriber) StartStreaming(ctx context.Context, sessionID string, opts transcriber.StreamOptions, receiver transcriber.ResultReceiver) (transcriber.StreamWriter, error) {
	if t.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	language := opts.Language
	if language == "" {
		language = t.defaultLanguage
	}
	model := opts.Model
	if model == "" {
		model = t.model
	}
	channels := opts.Channels
	if channels < 1 {
		channels = 1
	}

	params := url.Values{}
	params.Set("model", model)
	params.Set("language", language)
	params.Set("smart_format", "true")
	params.Set("encoding", "linear16")
	params.Set("channels", strconv.Itoa(channels))
	params.Set("sample_rate", strconv.Itoa(audioSampleRate))
	params.Set("interim_results", "true")
	params.Set("utterance_end_ms", strconv.Itoa(utteranceEndMillis))
	params.Set("vad_events", "true")
	params.Set("diarize", "true")
	params.Set("multichannel", strconv.FormatBool(channels > 1))
	params.Set("filler_words", "true")

	header := http.Header{}
	header.Set("Authorization", "Token "+t.apiKey)

	slog.Info("starting deepgram live stream", "session_id", sessionID, "model", model, "language", language, "channels", channels)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, deepgramListenURL+"?"+params.Encode(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("deepgram handshake failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("deepgram handshake failed: %w", err)
	}

	w := &deepgramStream{
		conn:     conn,
		receiver: receiver,
		done:     make(chan struct{}),
	}
	go w.receiveLoop(sessionID)
	go w.keepAliveLoop()
	slog.Info("deepgram live stream established", "session_id", sessionID)
	return w, nil
}

type deepgramStream struct {
	mu       sync.Mutex
	closed   bool
	conn     *websocket.Conn
	receiver transcriber.ResultReceiver
	done     chan struct{}
}

func (w *deepgramStream) Write(pcm []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return io.ErrClosedPipe
	}
	return w.conn.WriteMessage(websocket.BinaryMessage, pcm)
}

func (w *deepgramStream) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	_ = w.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`))
	return w.conn.Close()
}

func (w *deepgramStream) keepAliveLoop() {
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case <-ticker.C:
			w.mu.Lock()
			if !w.closed {
				_ = w.conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"KeepAlive"}`))
			}
			w.mu.Unlock()
		}
	}
}

func (w *deepgramStream) receiveLoop(sessionID string) {
	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
				slog.Info("deepgram receive loop stopped", "session_id", sessionID)
			default:
				w.receiver.OnError(err)
			}
			return
		}
		frag, ok := parseResultMessage(data, time.Now())
		if !ok {
			continue
		}
		w.receiver.OnFragment(frag)
	}
}

type resultMessage struct {
	Type         string `json:"type"`
	IsFinal      bool   `json:"is_final"`
	ChannelIndex []int  `json:"channel_index"`
	Channel      struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
			Words      []struct {
				Word    string `json:"word"`
				Speaker int    `json:"speaker"`
			} `json:"words"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// parseResultMessage maps a Deepgram live message to a Fragment. Messages
// that are not transcript results, or carry an empty transcript, are skipped.
func parseResultMessage(data []byte, at time.Time) (transcriber.Fragment, bool) {
	var msg resultMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return transcriber.Fragment{}, false
	}
	if msg.Type != "Results" || len(msg.Channel.Alternatives) == 0 {
		return transcriber.Fragment{}, false
	}
	alt := msg.Channel.Alternatives[0]
	if alt.Transcript == "" {
		return transcriber.Fragment{}, false
	}

	frag := transcriber.Fragment{
		Text:       alt.Transcript,
		IsFinal:    msg.IsFinal,
		ReceivedAt: at,
	}
	if len(msg.ChannelIndex) > 0 {
		frag.ChannelIndex = msg.ChannelIndex[0]
	}
	frag.Words = make([]transcriber.Word, 0, len(alt.Words))
	for _, wd := range alt.Words {
		frag.Words = append(frag.Words, transcriber.Word{Text: wd.Word, Speaker: wd.Speaker})
	}
	if len(frag.Words) > 0 {
		frag.Speaker = frag.Words[0].Speaker
	}
	return frag, true
}
