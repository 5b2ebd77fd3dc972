package gateway

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/amplifiedhq/amplified/internal/annotate"
	"github.com/amplifiedhq/amplified/internal/assistant"
	"github.com/amplifiedhq/amplified/internal/gateway"
	"github.com/amplifiedhq/amplified/internal/session"
)

// sessionCommands is the slice of *session.Session the dispatcher needs.
type sessionCommands interface {
	StartListening(meetingID string) error
	StopListening()
	EndMeeting()
	SetMockMode(active bool)
	SetInterviewMode(active bool)
	GenerateSuggestion()
	GetStallPhrase()
	ForwardAudio(opusPacket []byte)
}

type Handler struct {
	manager  *session.Manager
	verifier gateway.TokenVerifier
	upgrader websocket.Upgrader
}

func NewHandler(manager *session.Manager, verifier gateway.TokenVerifier) *Handler {
	return &Handler{
		manager:  manager,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The desktop client connects from a file:// or app origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ownerID, err := h.verifier.Verify(r.URL.Query().Get("token"))
	if err != nil {
		slog.Warn("rejected gateway connection", "error", err, "remote", r.RemoteAddr)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	sessionID := uuid.NewString()
	sink := newWSSink(conn)
	sess := h.manager.Attach(sessionID, ownerID, sink)
	slog.Info("gateway connected", "session_id", sessionID, "owner_id", ownerID, "remote", r.RemoteAddr)
	sink.SendStatus("connected", "Ready.")

	defer func() {
		h.manager.Detach(sessionID)
		_ = conn.Close()
		slog.Info("gateway disconnected", "session_id", sessionID)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("gateway read error", "error", err, "session_id", sessionID)
			}
			return
		}
		var env gateway.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			sink.SendError("malformed message")
			continue
		}
		handleEnvelope(sess, env, sink)
	}
}

func handleEnvelope(sess sessionCommands, env gateway.Envelope, sink session.EventSink) {
	switch env.Type {
	case gateway.TypeAudioChunk:
		var p gateway.AudioChunkPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			sink.SendError("malformed audio chunk")
			return
		}
		packet, err := base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			sink.SendError("malformed audio chunk")
			return
		}
		sess.ForwardAudio(packet)
	case gateway.TypeCommand:
		handleCommand(sess, env, sink)
	default:
		sink.SendError("unknown message type: " + env.Type)
	}
}

func handleCommand(sess sessionCommands, env gateway.Envelope, sink session.EventSink) {
	switch env.Action {
	case gateway.ActionStartListening:
		var p gateway.StartListeningPayload
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &p); err != nil {
				sink.SendError("malformed payload")
				return
			}
		}
		// StartListening reports its own outcome through the sink.
		_ = sess.StartListening(p.MeetingID)
	case gateway.ActionStopListening:
		sess.StopListening()
	case gateway.ActionEndMeeting:
		sess.EndMeeting()
	case gateway.ActionSetMockMode:
		if p, ok := parseToggle(env.Payload, sink); ok {
			sess.SetMockMode(p.Active)
		}
	case gateway.ActionSetInterviewMode:
		if p, ok := parseToggle(env.Payload, sink); ok {
			sess.SetInterviewMode(p.Active)
		}
	case gateway.ActionGenerateSuggestion:
		sess.GenerateSuggestion()
	case gateway.ActionGetStallPhrase:
		sess.GetStallPhrase()
	default:
		sink.SendError("unknown command: " + env.Action)
	}
}

func parseToggle(payload json.RawMessage, sink session.EventSink) (gateway.TogglePayload, bool) {
	var p gateway.TogglePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		sink.SendError("malformed payload")
		return p, false
	}
	return p, true
}

// wsSink serializes all outbound writes onto one gorilla connection.
// Implements session.EventSink.
type wsSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSSink(conn *websocket.Conn) *wsSink {
	return &wsSink{conn: conn}
}

func (s *wsSink) send(eventType string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal event payload", "error", err, "event_type", eventType)
		return
	}
	env := gateway.Envelope{Type: eventType, Payload: body}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteJSON(env); err != nil {
		slog.Warn("failed to write event", "error", err, "event_type", eventType)
	}
}

func (s *wsSink) SendTranscript(ev annotate.Event) {
	s.send(gateway.EventTranscriptUpdate, ev)
}

func (s *wsSink) SendSuggestion(sug *assistant.Suggestion) {
	s.send(gateway.EventSuggestion, sug)
}

func (s *wsSink) SendStatus(status, message string) {
	s.send(gateway.EventConnectionStatus, gateway.StatusPayload{Status: status, Message: message})
}

func (s *wsSink) SendMeetingCreated(meetingID string) {
	s.send(gateway.EventMeetingCreated, gateway.MeetingCreatedPayload{MeetingID: meetingID})
}

func (s *wsSink) SendMeetingContinued(meetingID string, sessionNumber int, previousSummaries []string) {
	s.send(gateway.EventMeetingContinued, gateway.MeetingContinuedPayload{
		MeetingID:         meetingID,
		SessionNumber:     sessionNumber,
		PreviousSummaries: previousSummaries,
	})
}

func (s *wsSink) SendSummary(sum *assistant.Summary) {
	s.send(gateway.EventMeetingSummary, sum)
}

func (s *wsSink) SendStallPhrase(phrase string) {
	s.send(gateway.EventStallPhrase, gateway.StallPhrasePayload{Phrase: phrase})
}

func (s *wsSink) SendError(message string) {
	s.send(gateway.EventError, gateway.ErrorPayload{Message: message})
}
