package gateway

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Envelope is the wire frame for both directions of the client WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Action  string          `json:"action,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Inbound message types.
const (
	TypeCommand    = "command"
	TypeAudioChunk = "audio_chunk"
)

// Command actions.
const (
	ActionStartListening     = "start_listening"
	ActionStopListening      = "stop_listening"
	ActionEndMeeting         = "end_meeting"
	ActionSetMockMode        = "set_mock_mode"
	ActionSetInterviewMode   = "set_interview_mode"
	ActionGenerateSuggestion = "generate_suggestion"
	ActionGetStallPhrase     = "get_stall_phrase"
)

// Outbound event types.
const (
	EventConnectionStatus = "connection_status"
	EventTranscriptUpdate = "transcript_update"
	EventSuggestion       = "suggestion"
	EventStallPhrase      = "stall_phrase"
	EventMeetingCreated   = "meeting_created"
	EventMeetingContinued = "meeting_continued"
	EventMeetingSummary   = "meeting_summary"
	EventError            = "error"
)

type StartListeningPayload struct {
	MeetingID string `json:"meeting_id,omitempty"`
}

type TogglePayload struct {
	Active bool `json:"active"`
}

type AudioChunkPayload struct {
	// Base64-encoded Opus packet from browser capture.
	Data string `json:"data"`
}

type StatusPayload struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type MeetingCreatedPayload struct {
	MeetingID string `json:"meeting_id"`
}

type MeetingContinuedPayload struct {
	MeetingID         string   `json:"meeting_id"`
	SessionNumber     int      `json:"session_number"`
	PreviousSummaries []string `json:"previous_summaries"`
}

type StallPhrasePayload struct {
	Phrase string `json:"phrase"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// TokenVerifier maps the ?token= query parameter to the session owner id.
// Authentication itself lives outside this service; deployments front the
// gateway with their own verifier.
type TokenVerifier interface {
	Verify(token string) (ownerID string, err error)
}

// OpaqueTokenVerifier treats the token as the owner id. Suitable behind a
// trusted proxy that already validated the caller.
type OpaqueTokenVerifier struct{}

func (OpaqueTokenVerifier) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("empty token")
	}
	return token, nil
}
