package realtime

import (
	"encoding/json"
	"fmt"
)

// Outbound provider messages. Each is a tagged struct so the wire shape is
// closed and validated at compile time.

type sessionUpdateMessage struct {
	Type    string        `json:"type"`
	Session sessionConfig `json:"session"`
}

type sessionConfig struct {
	Modalities              []string            `json:"modalities"`
	Instructions            string              `json:"instructions"`
	Voice                   string              `json:"voice"`
	InputAudioFormat        string              `json:"input_audio_format"`
	OutputAudioFormat       string              `json:"output_audio_format"`
	InputAudioTranscription *transcriptionModel `json:"input_audio_transcription"`
	// TurnDetection is always serialized as null: the orchestrator, not the
	// provider, decides when a turn starts and ends.
	TurnDetection interface{} `json:"turn_detection"`
}

type transcriptionModel struct {
	Model string `json:"model"`
}

type responseCreateMessage struct {
	Type string `json:"type"`
}

type itemCreateMessage struct {
	Type string           `json:"type"`
	Item conversationItem `json:"item"`
}

type conversationItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role"`
	Content []itemContent `json:"content"`
}

type itemContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type audioAppendMessage struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
}

type audioCommitMessage struct {
	Type string `json:"type"`
}

// providerEvent is the superset of inbound provider fields we consume.
// Unknown event types are ignored; unparseable frames are dropped and
// surfaced as provider errors.
type providerEvent struct {
	Type       string               `json:"type"`
	Delta      string               `json:"delta"`
	Transcript string               `json:"transcript"`
	Error      *providerErrorDetail `json:"error"`
}

type providerErrorDetail struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeProviderEvent(data []byte) (providerEvent, error) {
	var ev providerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, err
	}
	if ev.Type == "" {
		return ev, fmt.Errorf("message missing type field")
	}
	return ev, nil
}
