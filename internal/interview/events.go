package interview

// Event is the transport-neutral form of everything the coordinator reports
// toward the human client. The bridge maps it onto the wire protocol.
type Event struct {
	Type    string
	Source  Role
	Name    string
	TurnID  int
	Data    string // base64 PCM16 audio
	Delta   string
	Text    string
	Reason  EndReason
	Message string
}

// Outward event types. The names match the client wire protocol so the
// bridge translation stays one-to-one.
const (
	EventSessionsReady      = "sessions_ready"
	EventWaitingForSessions = "waiting_for_sessions"
	EventAudioStart         = "audio_start"
	EventAudio              = "audio"
	EventAudioDone          = "audio_done"
	EventTranscriptDelta    = "transcript_delta"
	EventTranscriptDone     = "transcript_done"
	EventUserTranscript     = "user_transcript"
	EventSessionEnded       = "session_ended"
	EventError              = "error"
)

// Gateway is one realtime provider connection owned by a fixed role.
type Gateway interface {
	RequestResponse() error
	InjectContext(speakerName, text string) error
	AppendUserAudio(b64 string) error
	CommitUserAudio() error
	Close() error
}
