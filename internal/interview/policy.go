package interview

import "time"

// ClosingMarker is the token the interviewer emits to signal intent to close
// the session. It is honored only once coverage and the minimum turn count
// are satisfied.
const ClosingMarker = "[INTERVIEW_COMPLETE]"

const (
	// MinTurns is the minimum number of finalized AI utterances before a
	// marker-based close is honored.
	MinTurns = 10
	// MaxTurns is the hard stop, enforced regardless of coverage.
	MaxTurns = 30
)

// EndReason says why a session ended.
type EndReason string

const (
	EndReasonNone     EndReason = ""
	EndReasonMarker   EndReason = "marker"
	EndReasonMaxTurns EndReason = "max_turns"
)

// SessionPolicy tracks the closing-policy state for one session.
type SessionPolicy struct {
	TotalTurns int
	Ended      bool
	EndReason  EndReason
}

// Timing holds the coordinator's scheduling knobs.
type Timing struct {
	// SettleDelay is the pause between a turn completing and the next
	// response request, to avoid overlapping generation.
	SettleDelay time.Duration
	// AudioDoneDelay is the drain pause before announcing to the client
	// that a turn's audio has finished.
	AudioDoneDelay time.Duration
	// RouteFreshness is how old a finalized human utterance may be and
	// still influence who speaks next.
	RouteFreshness time.Duration
}

// DefaultTiming returns the production delays.
func DefaultTiming() Timing {
	return Timing{
		SettleDelay:    600 * time.Millisecond,
		AudioDoneDelay: 400 * time.Millisecond,
		RouteFreshness: 5 * time.Second,
	}
}
