package realtime

import (
	"encoding/json"
	"strings"
	"testing"
)

type capturedEvents struct {
	ready       int
	audioChunks []string
	audioDone   int
	deltas      []string
	finals      []string
	inputs      []string
	errs        []string
}

func newCapturingGateway(relayInput bool) (*Gateway, *capturedEvents) {
	rec := &capturedEvents{}
	g := NewGateway(Config{RelayInputTranscript: relayInput}, Events{
		OnReady:           func() { rec.ready++ },
		OnAudioChunk:      func(b64 string) { rec.audioChunks = append(rec.audioChunks, b64) },
		OnAudioDone:       func() { rec.audioDone++ },
		OnTranscriptDelta: func(d string) { rec.deltas = append(rec.deltas, d) },
		OnTranscriptDone:  func(t string) { rec.finals = append(rec.finals, t) },
		OnInputTranscript: func(t string) { rec.inputs = append(rec.inputs, t) },
		OnError:           func(d string) { rec.errs = append(rec.errs, d) },
	})
	return g, rec
}

func TestProcessMessage_NormalizesProviderEvents(t *testing.T) {
	g, rec := newCapturingGateway(true)

	g.processMessage([]byte(`{"type":"session.updated"}`))
	g.processMessage([]byte(`{"type":"response.audio.delta","delta":"UklGRg=="}`))
	g.processMessage([]byte(`{"type":"response.audio.done"}`))
	g.processMessage([]byte(`{"type":"response.audio_transcript.delta","delta":"Hel"}`))
	g.processMessage([]byte(`{"type":"response.audio_transcript.done","transcript":"Hello."}`))
	g.processMessage([]byte(`{"type":"conversation.item.input_audio_transcription.completed","transcript":"hi there"}`))

	if rec.ready != 1 {
		t.Fatalf("ready = %d, want 1", rec.ready)
	}
	if len(rec.audioChunks) != 1 || rec.audioChunks[0] != "UklGRg==" {
		t.Fatalf("audio chunks mismatch: %v", rec.audioChunks)
	}
	if rec.audioDone != 1 {
		t.Fatalf("audioDone = %d, want 1", rec.audioDone)
	}
	if len(rec.deltas) != 1 || rec.deltas[0] != "Hel" {
		t.Fatalf("deltas mismatch: %v", rec.deltas)
	}
	if len(rec.finals) != 1 || rec.finals[0] != "Hello." {
		t.Fatalf("finals mismatch: %v", rec.finals)
	}
	if len(rec.inputs) != 1 || rec.inputs[0] != "hi there" {
		t.Fatalf("inputs mismatch: %v", rec.inputs)
	}
	if len(rec.errs) != 0 {
		t.Fatalf("unexpected errors: %v", rec.errs)
	}
}

func TestProcessMessage_ReadyFiresOnce(t *testing.T) {
	g, rec := newCapturingGateway(false)
	g.processMessage([]byte(`{"type":"session.created"}`))
	g.processMessage([]byte(`{"type":"session.updated"}`))
	if rec.ready != 1 {
		t.Fatalf("ready = %d, want exactly 1", rec.ready)
	}
}

func TestProcessMessage_InputTranscriptOnlyOnDesignatedConnection(t *testing.T) {
	g, rec := newCapturingGateway(false)
	g.processMessage([]byte(`{"type":"conversation.item.input_audio_transcription.completed","transcript":"hi"}`))
	if len(rec.inputs) != 0 {
		t.Fatalf("non-designated connection relayed input transcript")
	}
}

func TestProcessMessage_MalformedDroppedAndReported(t *testing.T) {
	g, rec := newCapturingGateway(false)
	g.processMessage([]byte(`{not json`))
	g.processMessage([]byte(`{"transcript":"no type"}`))
	if len(rec.errs) != 2 {
		t.Fatalf("expected 2 provider errors, got %v", rec.errs)
	}
	if rec.ready != 0 || rec.audioDone != 0 {
		t.Fatalf("malformed messages must not produce events")
	}
}

func TestProcessMessage_ErrorEvent(t *testing.T) {
	g, rec := newCapturingGateway(false)
	g.processMessage([]byte(`{"type":"error","error":{"message":"session expired"}}`))
	if len(rec.errs) != 1 || rec.errs[0] != "session expired" {
		t.Fatalf("error detail mismatch: %v", rec.errs)
	}
}

func TestProcessMessage_UnknownTypeIgnored(t *testing.T) {
	g, rec := newCapturingGateway(false)
	g.processMessage([]byte(`{"type":"rate_limits.updated"}`))
	if len(rec.errs) != 0 {
		t.Fatalf("unknown type must be ignored, got errors %v", rec.errs)
	}
}

func TestSessionConfig_TurnDetectionSerializedNull(t *testing.T) {
	msg := sessionUpdateMessage{
		Type: "session.update",
		Session: sessionConfig{
			Modalities:              []string{"audio", "text"},
			InputAudioFormat:        "pcm16",
			OutputAudioFormat:       "pcm16",
			InputAudioTranscription: &transcriptionModel{Model: transcriptionModelName},
		},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"turn_detection":null`) {
		t.Fatalf("turn detection must serialize as explicit null: %s", data)
	}
}

func TestGateway_WriteBeforeConnectFails(t *testing.T) {
	g, _ := newCapturingGateway(false)
	if err := g.RequestResponse(); err == nil {
		t.Fatalf("expected error before connect")
	}
	if err := g.AppendUserAudio("AAAA"); err == nil {
		t.Fatalf("expected error before connect")
	}
}

func TestGateway_ConnectRequiresKey(t *testing.T) {
	g := NewGateway(Config{}, Events{})
	if err := g.Connect(); err == nil {
		t.Fatalf("expected error with empty API key")
	}
}

func TestInjectContext_MessageShape(t *testing.T) {
	msg := itemCreateMessage{
		Type: "conversation.item.create",
		Item: conversationItem{
			Type: "message",
			Role: "user",
			Content: []itemContent{
				{Type: "input_text", Text: "Sarah: Tell me more."},
			},
		},
	}
	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"conversation.item.create"`, `"input_text"`, "Sarah: Tell me more."} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("missing %q in %s", want, data)
		}
	}
}
