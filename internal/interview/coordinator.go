package interview

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

type phase int

const (
	phaseWaiting phase = iota
	phaseRunning
	phaseEnded
)

type turnPhase int

const (
	turnIdle turnPhase = iota
	turnGenerating
	turnStreaming
	turnAwaitingCompletion
	turnComplete
)

// turnState tracks one role's in-flight turn. A turn is complete only when
// audioDone, transcriptDone and playbackAcked all hold for the current id.
type turnState struct {
	id             int
	phase          turnPhase
	audioDone      bool
	transcriptDone bool
	playbackAcked  bool
	transcript     strings.Builder

	settleTimer *time.Timer
	drainTimer  *time.Timer
}

func (t *turnState) inFlight() bool {
	return t.phase == turnGenerating || t.phase == turnStreaming || t.phase == turnAwaitingCompletion
}

// Coordinator is the per-connection turn-taking state machine. The two
// gateways and the client bridge all feed it concurrently; one mutex
// serializes every event in arrival order.
type Coordinator struct {
	mu sync.Mutex

	logID    string
	gateways map[Role]Gateway
	roles    map[Role]RoleConfig
	timing   Timing
	emit     func(Event)
	now      func() time.Time

	phase          phase
	startRequested bool
	ready          map[Role]bool

	turns    map[Role]*turnState
	policy   SessionPolicy
	coverage *CoverageTracker
	pending  []Role

	humanSpeaking bool
	humanDoneAt   time.Time
}

// New constructs a coordinator for one human connection.
func New(logID string, gateways map[Role]Gateway, roles map[Role]RoleConfig, timing Timing, emit func(Event)) *Coordinator {
	return &Coordinator{
		logID:    logID,
		gateways: gateways,
		roles:    roles,
		timing:   timing,
		emit:     emit,
		now:      time.Now,
		ready:    map[Role]bool{},
		turns: map[Role]*turnState{
			RoleInterviewer: {id: -1},
			RoleCandidate:   {id: -1},
		},
		coverage: NewCoverageTracker(),
	}
}

// Start handles the client's start control message. A repeated start resets
// policy, coverage and queues for a fresh session; turn ids keep counting up
// so they are never reused.
func (c *Coordinator) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetSessionLocked()
	c.startRequested = true
	if c.allReadyLocked() {
		c.beginLocked()
		return
	}
	c.emit(Event{Type: EventWaitingForSessions})
}

// OnReady records that one gateway finished its session configuration.
func (c *Coordinator) OnReady(role Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready[role] = true
	log.Printf("[%s] %s session ready", c.logID, role)
	if c.startRequested && c.phase == phaseWaiting && c.allReadyLocked() {
		c.beginLocked()
	}
}

func (c *Coordinator) allReadyLocked() bool {
	return c.ready[RoleInterviewer] && c.ready[RoleCandidate]
}

func (c *Coordinator) resetSessionLocked() {
	c.phase = phaseWaiting
	c.policy = SessionPolicy{}
	c.coverage = NewCoverageTracker()
	c.pending = nil
	c.humanSpeaking = false
	for _, ts := range c.turns {
		c.cancelTimersLocked(ts)
		ts.phase = turnIdle
		ts.audioDone, ts.transcriptDone, ts.playbackAcked = false, false, false
		ts.transcript.Reset()
	}
}

func (c *Coordinator) beginLocked() {
	c.phase = phaseRunning
	c.emit(Event{Type: EventSessionsReady})
	c.requestResponseLocked(RoleInterviewer)
}

// requestResponseLocked starts the next turn for role: bumps the turn id,
// clears per-turn progress so stale completions cannot leak in, cancels any
// scheduled action tied to the previous turn, and asks the gateway to
// generate.
func (c *Coordinator) requestResponseLocked(role Role) {
	if c.phase != phaseRunning || c.policy.Ended {
		return
	}
	ts := c.turns[role]
	if ts.inFlight() {
		log.Printf("[%s] skip response request: %s turn %d still in flight", c.logID, role, ts.id)
		return
	}
	c.cancelTimersLocked(ts)
	ts.id++
	ts.phase = turnGenerating
	ts.audioDone, ts.transcriptDone, ts.playbackAcked = false, false, false
	ts.transcript.Reset()
	log.Printf("[%s] requesting %s turn %d", c.logID, role, ts.id)
	if err := c.gateways[role].RequestResponse(); err != nil {
		log.Printf("[%s] response request failed for %s: %v", c.logID, role, err)
		c.emit(Event{Type: EventError, Message: fmt.Sprintf("%s response request failed: %v", role, err)})
	}
}

// OnAudioChunk relays one base64 PCM16 chunk for the role's current turn.
func (c *Coordinator) OnAudioChunk(role Role, data string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := c.turns[role]
	if !ts.inFlight() {
		return
	}
	if ts.phase == turnGenerating {
		ts.phase = turnStreaming
		c.emit(Event{Type: EventAudioStart, Source: role, Name: c.roles[role].Name, TurnID: ts.id})
	}
	c.emit(Event{Type: EventAudio, Source: role, TurnID: ts.id, Data: data})
}

// OnAudioDone marks provider-side audio completion and schedules the
// client-facing audio_done announcement after a short drain pause. The
// announcement is superseded if a newer turn starts for the role.
func (c *Coordinator) OnAudioDone(role Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := c.turns[role]
	if !ts.inFlight() || ts.audioDone {
		return
	}
	ts.audioDone = true
	c.updateAwaitingLocked(ts)
	turnID := ts.id
	if ts.drainTimer != nil {
		ts.drainTimer.Stop()
	}
	ts.drainTimer = time.AfterFunc(c.timing.AudioDoneDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		cur := c.turns[role]
		if cur.id != turnID || c.phase == phaseEnded {
			return
		}
		c.emit(Event{Type: EventAudioDone, Source: role, TurnID: turnID})
	})
	c.maybeCompleteLocked(role)
}

// OnTranscriptDelta relays incremental transcript text.
func (c *Coordinator) OnTranscriptDelta(role Role, delta string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := c.turns[role]
	if !ts.inFlight() {
		return
	}
	ts.transcript.WriteString(delta)
	c.emit(Event{Type: EventTranscriptDelta, Source: role, Name: c.roles[role].Name, TurnID: ts.id, Delta: delta})
}

// OnTranscriptDone finalizes a turn's transcript: counts the turn, bridges
// the text into the other role's conversation, and for interviewer turns
// updates coverage and evaluates the end-of-session policy.
func (c *Coordinator) OnTranscriptDone(role Role, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := c.turns[role]
	if !ts.inFlight() || ts.transcriptDone {
		return
	}
	final := strings.TrimSpace(text)
	if final == "" {
		final = strings.TrimSpace(ts.transcript.String())
	}
	ts.transcriptDone = true
	c.policy.TotalTurns++
	c.emit(Event{Type: EventTranscriptDone, Source: role, Name: c.roles[role].Name, TurnID: ts.id, Text: final})

	// Text-only bridge: the other AI hears this turn as an injected message.
	other := role.Other()
	if err := c.gateways[other].InjectContext(c.roles[role].Name, final); err != nil {
		log.Printf("[%s] context injection into %s failed: %v", c.logID, other, err)
	}

	if role == RoleInterviewer {
		c.coverage.Observe(final)
		c.evaluateEndLocked(final)
	}
	c.updateAwaitingLocked(ts)
	c.maybeCompleteLocked(role)
}

// OnPlaybackAck records the client's playback acknowledgment. Acks for a
// superseded turn id are discarded without side effects.
func (c *Coordinator) OnPlaybackAck(role Role, turnID int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := c.turns[role]
	if !ts.inFlight() || ts.id != turnID {
		log.Printf("[%s] discarding stale playback ack for %s turn %d", c.logID, role, turnID)
		return
	}
	ts.playbackAcked = true
	c.maybeCompleteLocked(role)
}

// OnProviderError forwards a provider error as a non-fatal client event.
// The affected turn stalls; there is no automatic retry.
func (c *Coordinator) OnProviderError(role Role, detail string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	log.Printf("[%s] provider error on %s: %s", c.logID, role, detail)
	c.emit(Event{Type: EventError, Message: fmt.Sprintf("%s provider error: %s", role, detail)})
}

// OnInputTranscript handles a finalized human utterance: relays it to the
// client, routes it to decide who answers, and kicks off the next speaker if
// nobody is mid-turn.
func (c *Coordinator) OnInputTranscript(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emit(Event{Type: EventUserTranscript, Text: text})
	if c.phase != phaseRunning || c.policy.Ended {
		return
	}
	switch Route(text, c.now().Sub(c.humanDoneAt), c.timing.RouteFreshness) {
	case TargetBoth:
		c.pending = append(c.pending, RoleCandidate, RoleInterviewer)
	case TargetCandidate:
		c.pending = append(c.pending, RoleCandidate)
	case TargetInterviewer:
		c.pending = append(c.pending, RoleInterviewer)
	case TargetNone:
		c.pending = append(c.pending, RoleInterviewer)
	}
	if !c.anyInFlightLocked() {
		c.scheduleNextLocked(c.popPendingLocked(RoleInterviewer))
	}
}

// HandleUserSpeaking marks the start of a human utterance; turn advancement
// pauses while the human holds the floor.
func (c *Coordinator) HandleUserSpeaking() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.humanSpeaking = true
}

// HandleUserDone marks the end of a human utterance.
func (c *Coordinator) HandleUserDone() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.humanSpeaking = false
	c.humanDoneAt = c.now()
}

// HandleUserAudio fans human audio out to both gateways so both AIs share
// the same transcribed input.
func (c *Coordinator) HandleUserAudio(b64 string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for role, gw := range c.gateways {
		if err := gw.AppendUserAudio(b64); err != nil {
			log.Printf("[%s] user audio append to %s failed: %v", c.logID, role, err)
		}
	}
}

// HandleUserAudioCommit commits the buffered human audio on both gateways.
func (c *Coordinator) HandleUserAudioCommit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for role, gw := range c.gateways {
		if err := gw.CommitUserAudio(); err != nil {
			log.Printf("[%s] user audio commit to %s failed: %v", c.logID, role, err)
		}
	}
}

// HandleRequestAI is the manual override: generate a response for target now.
func (c *Coordinator) HandleRequestAI(target Role) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !target.Valid() || c.phase != phaseRunning || c.policy.Ended {
		return
	}
	if c.turns[target].inFlight() {
		return
	}
	c.requestResponseLocked(target)
}

// Shutdown closes both provider connections. Called unconditionally when the
// human client disconnects so no provider session is orphaned.
func (c *Coordinator) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ts := range c.turns {
		c.cancelTimersLocked(ts)
	}
	for role, gw := range c.gateways {
		if err := gw.Close(); err != nil {
			log.Printf("[%s] closing %s gateway: %v", c.logID, role, err)
		}
	}
}

func (c *Coordinator) updateAwaitingLocked(ts *turnState) {
	if ts.audioDone && ts.transcriptDone && !ts.playbackAcked && ts.inFlight() {
		ts.phase = turnAwaitingCompletion
	}
}

// maybeCompleteLocked applies the completion gate and, when a turn truly
// finishes, hands the floor to the next speaker.
func (c *Coordinator) maybeCompleteLocked(role Role) {
	ts := c.turns[role]
	if ts.phase == turnComplete || !ts.inFlight() {
		return
	}
	if !(ts.audioDone && ts.transcriptDone && ts.playbackAcked) {
		return
	}
	ts.phase = turnComplete
	log.Printf("[%s] %s turn %d complete", c.logID, role, ts.id)
	if c.phase != phaseRunning || c.policy.Ended || c.humanSpeaking {
		return
	}
	c.scheduleNextLocked(c.popPendingLocked(role.Other()))
}

// popPendingLocked consumes the head of the pending-speaker queue, falling
// back to the given default when the queue is empty.
func (c *Coordinator) popPendingLocked(fallback Role) Role {
	if len(c.pending) == 0 {
		return fallback
	}
	next := c.pending[0]
	c.pending = c.pending[1:]
	return next
}

// scheduleNextLocked requests a response for role after the settle delay.
// Starting a new turn for the role supersedes this task.
func (c *Coordinator) scheduleNextLocked(role Role) {
	ts := c.turns[role]
	if ts.settleTimer != nil {
		ts.settleTimer.Stop()
	}
	ts.settleTimer = time.AfterFunc(c.timing.SettleDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.phase != phaseRunning || c.policy.Ended || c.humanSpeaking {
			return
		}
		if c.turns[role].inFlight() {
			return
		}
		c.requestResponseLocked(role)
	})
}

// evaluateEndLocked applies the closing policy to a finalized interviewer
// transcript. The marker closes the session only once the minimum turn count
// and full coverage hold; otherwise the interviewer is nudged to continue.
// The max-turn cap ends the session unconditionally.
func (c *Coordinator) evaluateEndLocked(final string) {
	if strings.Contains(final, ClosingMarker) {
		if c.policy.TotalTurns >= MinTurns && c.coverage.Complete() {
			c.endSessionLocked(EndReasonMarker)
			return
		}
		missing := c.coverage.MissingTopics()
		var nudge string
		if len(missing) > 0 {
			nudge = "Do not end the interview yet. You still need to cover: " +
				strings.Join(missing, ", ") + ". Continue with your next question."
		} else {
			nudge = "Do not end the interview yet. Ask a few more follow-up questions before closing."
		}
		if err := c.gateways[RoleInterviewer].InjectContext("Moderator", nudge); err != nil {
			log.Printf("[%s] corrective injection failed: %v", c.logID, err)
		}
	}
	if c.policy.TotalTurns >= MaxTurns {
		c.endSessionLocked(EndReasonMaxTurns)
	}
}

// endSessionLocked transitions to the terminal state exactly once: the
// pending queue is cleared, scheduled actions are canceled and no further
// response requests are issued.
func (c *Coordinator) endSessionLocked(reason EndReason) {
	if c.policy.Ended {
		return
	}
	c.policy.Ended = true
	c.policy.EndReason = reason
	c.phase = phaseEnded
	c.pending = nil
	for _, ts := range c.turns {
		c.cancelTimersLocked(ts)
	}
	log.Printf("[%s] session ended: %s (turns=%d)", c.logID, reason, c.policy.TotalTurns)
	c.emit(Event{Type: EventSessionEnded, Reason: reason})
}

func (c *Coordinator) anyInFlightLocked() bool {
	for _, ts := range c.turns {
		if ts.inFlight() {
			return true
		}
	}
	return false
}

func (c *Coordinator) cancelTimersLocked(ts *turnState) {
	if ts.settleTimer != nil {
		ts.settleTimer.Stop()
		ts.settleTimer = nil
	}
	if ts.drainTimer != nil {
		ts.drainTimer.Stop()
		ts.drainTimer = nil
	}
}
