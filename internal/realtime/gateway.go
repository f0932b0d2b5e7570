package realtime

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// DefaultURL is the provider endpoint; the model is appended as a query
// parameter on dial.
const DefaultURL = "wss://api.openai.com/v1/realtime"

const transcriptionModelName = "whisper-1"

// Config fixes one role's provider session. None of it changes after
// construction.
type Config struct {
	APIKey       string
	Model        string
	URL          string // defaults to DefaultURL
	Voice        string
	Instructions string
	// RelayInputTranscript marks the single designated connection that
	// surfaces finalized human speech upward. Both connections transcribe
	// the shared input; relaying it twice would duplicate every utterance.
	RelayInputTranscript bool
	LogID                string
}

// Events are the normalized callbacks a gateway raises toward the
// coordinator. Nil callbacks are skipped.
type Events struct {
	OnReady           func()
	OnAudioChunk      func(b64 string)
	OnAudioDone       func()
	OnTranscriptDelta func(delta string)
	OnTranscriptDone  func(text string)
	OnInputTranscript func(text string)
	OnError           func(detail string)
}

// Gateway owns one realtime provider connection for a fixed role. It
// normalizes provider events upward and exposes the orchestrator's commands
// downward. Malformed provider frames are dropped, never fatal.
type Gateway struct {
	cfg    Config
	events Events

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	readySent bool
}

// NewGateway builds an unconnected gateway.
func NewGateway(cfg Config, events Events) *Gateway {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	return &Gateway{cfg: cfg, events: events}
}

// Connect dials the provider, sends the fixed session configuration and
// starts the read loop.
func (g *Gateway) Connect() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.connected {
		return nil
	}
	if g.cfg.APIKey == "" {
		return fmt.Errorf("realtime: API key is empty")
	}

	wsURL := fmt.Sprintf("%s?model=%s", g.cfg.URL, g.cfg.Model)
	headers := map[string][]string{
		"Authorization": {"Bearer " + g.cfg.APIKey},
		"OpenAI-Beta":   {"realtime=v1"},
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.Dial(wsURL, headers)
	if err != nil {
		if resp != nil {
			log.Printf("[%s] realtime dial failed with status %d", g.cfg.LogID, resp.StatusCode)
		}
		return fmt.Errorf("realtime: dial: %w", err)
	}
	g.conn = conn
	g.connected = true

	update := sessionUpdateMessage{
		Type: "session.update",
		Session: sessionConfig{
			Modalities:              []string{"audio", "text"},
			Instructions:            g.cfg.Instructions,
			Voice:                   g.cfg.Voice,
			InputAudioFormat:        "pcm16",
			OutputAudioFormat:       "pcm16",
			InputAudioTranscription: &transcriptionModel{Model: transcriptionModelName},
			TurnDetection:           nil,
		},
	}
	if err := conn.WriteJSON(update); err != nil {
		g.connected = false
		_ = conn.Close()
		g.conn = nil
		return fmt.Errorf("realtime: session.update: %w", err)
	}

	go g.readLoop(conn)
	return nil
}

// RequestResponse asks the provider to generate the next utterance.
func (g *Gateway) RequestResponse() error {
	return g.writeJSON(responseCreateMessage{Type: "response.create"})
}

// InjectContext appends the other party's finalized utterance as a synthetic
// text message labeled with the speaker's display name. This is the one-way
// text bridge between the two AI conversations.
func (g *Gateway) InjectContext(speakerName, text string) error {
	return g.writeJSON(itemCreateMessage{
		Type: "conversation.item.create",
		Item: conversationItem{
			Type: "message",
			Role: "user",
			Content: []itemContent{
				{Type: "input_text", Text: fmt.Sprintf("%s: %s", speakerName, text)},
			},
		},
	})
}

// AppendUserAudio forwards base64 PCM16 human audio verbatim.
func (g *Gateway) AppendUserAudio(b64 string) error {
	return g.writeJSON(audioAppendMessage{Type: "input_audio_buffer.append", Audio: b64})
}

// CommitUserAudio commits the buffered human audio for transcription.
func (g *Gateway) CommitUserAudio() error {
	return g.writeJSON(audioCommitMessage{Type: "input_audio_buffer.commit"})
}

// Close shuts the provider connection down.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.connected {
		return nil
	}
	g.connected = false
	err := g.conn.Close()
	g.conn = nil
	return err
}

func (g *Gateway) writeJSON(v interface{}) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.connected {
		return fmt.Errorf("realtime: not connected")
	}
	return g.conn.WriteJSON(v)
}

func (g *Gateway) readLoop(conn *websocket.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[%s] recovered from panic in realtime read loop: %v", g.cfg.LogID, r)
		}
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			g.mu.Lock()
			open := g.connected
			g.mu.Unlock()
			if open {
				log.Printf("[%s] realtime read error: %v", g.cfg.LogID, err)
			}
			return
		}
		g.processMessage(data)
	}
}

// processMessage normalizes one raw provider frame into an upward event.
func (g *Gateway) processMessage(data []byte) {
	ev, err := decodeProviderEvent(data)
	if err != nil {
		log.Printf("[%s] dropping malformed provider message: %v", g.cfg.LogID, err)
		g.raiseError("malformed provider message")
		return
	}
	switch ev.Type {
	case "session.created", "session.updated":
		g.mu.Lock()
		first := !g.readySent
		g.readySent = true
		g.mu.Unlock()
		if first && g.events.OnReady != nil {
			g.events.OnReady()
		}
	case "response.audio.delta":
		if g.events.OnAudioChunk != nil && ev.Delta != "" {
			g.events.OnAudioChunk(ev.Delta)
		}
	case "response.audio.done":
		if g.events.OnAudioDone != nil {
			g.events.OnAudioDone()
		}
	case "response.audio_transcript.delta":
		if g.events.OnTranscriptDelta != nil && ev.Delta != "" {
			g.events.OnTranscriptDelta(ev.Delta)
		}
	case "response.audio_transcript.done":
		if g.events.OnTranscriptDone != nil {
			g.events.OnTranscriptDone(ev.Transcript)
		}
	case "conversation.item.input_audio_transcription.completed":
		if g.cfg.RelayInputTranscript && g.events.OnInputTranscript != nil && ev.Transcript != "" {
			g.events.OnInputTranscript(ev.Transcript)
		}
	case "conversation.item.input_audio_transcription.failed":
		g.raiseError("input transcription failed")
	case "error":
		detail := "unknown provider error"
		if ev.Error != nil && ev.Error.Message != "" {
			detail = ev.Error.Message
		}
		g.raiseError(detail)
	default:
		// Providers emit many bookkeeping events we have no use for.
	}
}

func (g *Gateway) raiseError(detail string) {
	if g.events.OnError != nil {
		g.events.OnError(detail)
	}
}
