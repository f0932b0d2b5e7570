package bridge

import "github.com/NK11EIandCo/Interview/internal/interview"

// serverMessage is the outward client protocol, discriminated by Type.
type serverMessage struct {
	Type    string `json:"type"`
	Source  string `json:"source,omitempty"`
	Name    string `json:"name,omitempty"`
	TurnID  *int   `json:"turnId,omitempty"`
	Data    string `json:"data,omitempty"`
	Delta   string `json:"delta,omitempty"`
	Text    string `json:"text,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// clientMessage is the inward client protocol. Unknown or malformed frames
// are dropped silently.
type clientMessage struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
	TurnID *int   `json:"turnId,omitempty"`
	Data   string `json:"data,omitempty"`
}

// Inward message types.
const (
	msgStart             = "start"
	msgUserSpeaking      = "user_speaking"
	msgUserDone          = "user_done"
	msgUserAudio         = "user_audio"
	msgUserAudioCommit   = "user_audio_commit"
	msgRequestAI         = "request_ai"
	msgAudioPlaybackDone = "audio_playback_done"
)

// turnBearing reports whether an outward event type carries a turn id.
func turnBearing(eventType string) bool {
	switch eventType {
	case interview.EventAudioStart, interview.EventAudio, interview.EventAudioDone,
		interview.EventTranscriptDelta, interview.EventTranscriptDone:
		return true
	}
	return false
}

// translate maps an internal coordinator event onto the wire format.
func translate(ev interview.Event) serverMessage {
	msg := serverMessage{
		Type:    ev.Type,
		Source:  string(ev.Source),
		Name:    ev.Name,
		Data:    ev.Data,
		Delta:   ev.Delta,
		Text:    ev.Text,
		Reason:  string(ev.Reason),
		Message: ev.Message,
	}
	if turnBearing(ev.Type) {
		id := ev.TurnID
		msg.TurnID = &id
	}
	return msg
}
