// Package elevenlabs implements text-to-speech over the ElevenLabs
// multi-context websocket API.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"zaidev/internal/domain/models/generation"
	genSvc "zaidev/internal/domain/services/generation"
)

const (
	DefaultBaseURL      = "wss://api.elevenlabs.io"
	DefaultOutputFormat = "mp3_44100_128"
)

// ErrNoAudio is returned when the stream finished without audio chunks.
var ErrNoAudio = errors.New("elevenlabs: no audio received")

// Config configures the websocket connection.
type Config struct {
	BaseURL      string
	APIKey       string
	VoiceID      string
	OutputFormat string
}

// Client synthesizes one utterance per websocket connection.
type Client struct {
	cfg    Config
	dialer websocket.Dialer
}

// NewClient creates an ElevenLabs speech backend.
func NewClient(cfg Config) (*Client, error) {
	if cfg.VoiceID == "" {
		return nil, errors.New("elevenlabs: missing voice_id")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = DefaultOutputFormat
	}
	return &Client{
		cfg:    cfg,
		dialer: websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}, nil
}

func (c *Client) Name() string { return "elevenlabs" }

// outgoing messages
type initContext struct {
	Text      string `json:"text"`
	ContextID string `json:"context_id"`
}

type sendText struct {
	Text      string `json:"text"`
	ContextID string `json:"context_id"`
	Flush     bool   `json:"flush,omitempty"`
}

type closeContext struct {
	ContextID    string `json:"context_id"`
	CloseContext bool   `json:"close_context"`
}

type closeSocket struct {
	CloseSocket bool `json:"close_socket"`
}

// incoming messages use either camelCase or snake_case context ids
type serverMessage struct {
	Audio      string `json:"audio"`
	IsFinal    bool   `json:"isFinal"`
	ContextID  string `json:"contextId"`
	ContextID2 string `json:"context_id"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

func (m serverMessage) context() string {
	if m.ContextID != "" {
		return m.ContextID
	}
	return m.ContextID2
}

// Synthesize opens a connection, streams text into a fresh context and
// collects audio chunks until the server marks the context final.
func (c *Client) Synthesize(ctx context.Context, model, text string) (generation.Media, error) {
	u, err := c.buildURL(model)
	if err != nil {
		return generation.Media{}, err
	}

	headers := http.Header{}
	headers.Set("xi-api-key", c.cfg.APIKey)

	conn, _, err := c.dialer.DialContext(ctx, u, headers)
	if err != nil {
		return generation.Media{}, fmt.Errorf("elevenlabs: dial: %w", err)
	}
	defer conn.Close()

	// unblock ReadMessage when the caller gives up
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}

	contextID := uuid.NewString()
	for _, msg := range []any{
		initContext{Text: " ", ContextID: contextID},
		sendText{Text: text, ContextID: contextID, Flush: true},
		closeContext{ContextID: contextID, CloseContext: true},
	} {
		if err := conn.WriteJSON(msg); err != nil {
			return generation.Media{}, sendFailure(conn, err)
		}
	}

	var audio bytes.Buffer
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return generation.Media{}, ctxErr
			}
			return generation.Media{}, fmt.Errorf("elevenlabs: read: %w", err)
		}

		var msg serverMessage
		if err := json.Unmarshal(b, &msg); err != nil {
			return generation.Media{}, fmt.Errorf("elevenlabs: invalid json: %w", err)
		}
		if msg.Error != "" {
			return generation.Media{}, fmt.Errorf("elevenlabs: %s: %s", msg.Error, msg.Message)
		}
		if id := msg.context(); id != "" && id != contextID {
			continue
		}
		if msg.Audio != "" {
			chunk, err := base64.StdEncoding.DecodeString(msg.Audio)
			if err != nil {
				return generation.Media{}, fmt.Errorf("elevenlabs: decode audio: %w", err)
			}
			audio.Write(chunk)
		}
		if msg.IsFinal {
			break
		}
	}

	_ = conn.WriteJSON(closeSocket{CloseSocket: true})

	if audio.Len() == 0 {
		return generation.Media{}, ErrNoAudio
	}
	return generation.Media{MIMEType: mimeForFormat(c.cfg.OutputFormat), Data: audio.Bytes()}, nil
}

// errorFrameWait bounds the read for a pending error frame after a failed
// write.
var errorFrameWait = 2 * time.Second

// sendFailure reports why a write failed. The server usually sends an error
// frame before closing, so one already delivered frame wins over the raw
// write error.
func sendFailure(conn *websocket.Conn, writeErr error) error {
	_ = conn.SetReadDeadline(time.Now().Add(errorFrameWait))
	if _, b, err := conn.ReadMessage(); err == nil {
		var msg serverMessage
		if json.Unmarshal(b, &msg) == nil && msg.Error != "" {
			return fmt.Errorf("elevenlabs: %s: %s", msg.Error, msg.Message)
		}
	}
	return fmt.Errorf("elevenlabs: send: %w", writeErr)
}

func (c *Client) buildURL(model string) (string, error) {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	u, err := url.Parse(base + "/v1/text-to-speech/" + url.PathEscape(c.cfg.VoiceID) + "/multi-stream-input")
	if err != nil {
		return "", fmt.Errorf("elevenlabs: build url: %w", err)
	}
	q := u.Query()
	if model != "" {
		q.Set("model_id", model)
	}
	q.Set("output_format", c.cfg.OutputFormat)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func mimeForFormat(format string) string {
	switch {
	case strings.HasPrefix(format, "mp3"):
		return "audio/mpeg"
	case strings.HasPrefix(format, "pcm"):
		return "audio/pcm"
	case strings.HasPrefix(format, "ulaw"):
		return "audio/basic"
	case strings.HasPrefix(format, "opus"):
		return "audio/opus"
	default:
		return "audio/mpeg"
	}
}

var _ genSvc.SpeechBackend = (*Client)(nil)
