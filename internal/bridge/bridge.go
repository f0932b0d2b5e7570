package bridge

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/NK11EIandCo/Interview/internal/interview"
	"github.com/NK11EIandCo/Interview/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  65536,
	WriteBufferSize: 65536,
	CheckOrigin: func(r *http.Request) bool {
		// Allow any origin for demo use; restrict in production
		return true
	},
}

// Config carries what the bridge needs to open the two provider sessions.
type Config struct {
	APIKey           string
	Model            string
	ProviderURL      string // defaults inside realtime
	InterviewerVoice string
	CandidateVoice   string
	Timing           interview.Timing
}

// gatewayConn is what the bridge needs from a provider gateway.
type gatewayConn interface {
	interview.Gateway
	Connect() error
}

// Handler upgrades client connections and wires one coordinator with two
// provider gateways per connection.
type Handler struct {
	cfg Config
	// newGateway is swappable in tests.
	newGateway func(realtime.Config, realtime.Events) gatewayConn
}

// NewHandler builds the websocket handler.
func NewHandler(cfg Config) *Handler {
	if cfg.Timing == (interview.Timing{}) {
		cfg.Timing = interview.DefaultTiming()
	}
	return &Handler{
		cfg: cfg,
		newGateway: func(rc realtime.Config, ev realtime.Events) gatewayConn {
			return realtime.NewGateway(rc, ev)
		},
	}
}

// clientConn serializes writes to the client socket and remembers the turn
// id most recently announced per role, so late playback acknowledgments for
// superseded turns can be discarded.
type clientConn struct {
	mu        sync.Mutex
	conn      *websocket.Conn
	announced map[interview.Role]int
}

func newClientConn(conn *websocket.Conn) *clientConn {
	return &clientConn{
		conn: conn,
		announced: map[interview.Role]int{
			interview.RoleInterviewer: -1,
			interview.RoleCandidate:   -1,
		},
	}
}

func (c *clientConn) deliver(ev interview.Event) {
	msg := translate(ev)
	c.mu.Lock()
	defer c.mu.Unlock()
	if msg.TurnID != nil && ev.Source.Valid() {
		c.announced[ev.Source] = *msg.TurnID
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		log.Printf("client write error: %v", err)
	}
}

// ackMatches reports whether a playback acknowledgment references the turn
// most recently announced for the role.
func (c *clientConn) ackMatches(role interview.Role, turnID int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.announced[role] == turnID
}

// Serve upgrades to a websocket and runs the session until the client
// disconnects. Both provider connections are closed unconditionally on exit.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	connID := uuid.NewString()[:8]
	client := newClientConn(conn)
	log.Printf("[%s] client connected", connID)

	roles := interview.DefaultRoleConfigs(h.cfg.InterviewerVoice, h.cfg.CandidateVoice)

	// The gateway event closures capture coord; it is assigned before
	// Connect, and no event fires until then.
	var coord *interview.Coordinator
	gateways := map[interview.Role]interview.Gateway{}
	conns := map[interview.Role]gatewayConn{}
	for _, role := range []interview.Role{interview.RoleInterviewer, interview.RoleCandidate} {
		role := role
		gw := h.newGateway(realtime.Config{
			APIKey:               h.cfg.APIKey,
			Model:                h.cfg.Model,
			URL:                  h.cfg.ProviderURL,
			Voice:                roles[role].Voice,
			Instructions:         roles[role].Instructions,
			RelayInputTranscript: role == interview.RoleInterviewer,
			LogID:                connID + "/" + string(role),
		}, realtime.Events{
			OnReady:           func() { coord.OnReady(role) },
			OnAudioChunk:      func(b64 string) { coord.OnAudioChunk(role, b64) },
			OnAudioDone:       func() { coord.OnAudioDone(role) },
			OnTranscriptDelta: func(d string) { coord.OnTranscriptDelta(role, d) },
			OnTranscriptDone:  func(t string) { coord.OnTranscriptDone(role, t) },
			OnInputTranscript: func(t string) { coord.OnInputTranscript(t) },
			OnError:           func(d string) { coord.OnProviderError(role, d) },
		})
		gateways[role] = gw
		conns[role] = gw
	}
	coord = interview.New(connID, gateways, roles, h.cfg.Timing, client.deliver)
	defer coord.Shutdown()

	for role, gw := range conns {
		if err := gw.Connect(); err != nil {
			log.Printf("[%s] %s gateway connect failed: %v", connID, role, err)
			client.deliver(interview.Event{
				Type:    interview.EventError,
				Message: string(role) + " session connect failed",
			})
		}
	}

	h.readLoop(connID, client, coord)
	log.Printf("[%s] client disconnected", connID)
}

// readLoop processes inbound client messages in arrival order until the
// socket closes. Malformed frames are dropped silently.
func (h *Handler) readLoop(connID string, client *clientConn, coord *interview.Coordinator) {
	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			return
		}
		var m clientMessage
		if json.Unmarshal(data, &m) != nil {
			continue
		}
		switch m.Type {
		case msgStart:
			coord.Start()
		case msgUserSpeaking:
			coord.HandleUserSpeaking()
		case msgUserDone:
			coord.HandleUserDone()
		case msgUserAudio:
			if m.Data != "" {
				coord.HandleUserAudio(m.Data)
			}
		case msgUserAudioCommit:
			coord.HandleUserAudioCommit()
		case msgRequestAI:
			coord.HandleRequestAI(interview.Role(m.Target))
		case msgAudioPlaybackDone:
			role := interview.Role(m.Target)
			if !role.Valid() || m.TurnID == nil {
				continue
			}
			if !client.ackMatches(role, *m.TurnID) {
				log.Printf("[%s] dropping playback ack for superseded %s turn %d", connID, role, *m.TurnID)
				continue
			}
			coord.OnPlaybackAck(role, *m.TurnID)
		}
	}
}
