package assistant

import "context"

// Suggestion is the answer-generation collaborator's response to a detected
// question.
type Suggestion struct {
	Question  string   `json:"question"`
	Answer    string   `json:"answer"`
	KeyPoints []string `json:"key_points,omitempty"`
	Engine    string   `json:"engine,omitempty"`
}

type Summary struct {
	MeetingID     string   `json:"meeting_id"`
	SessionNumber int      `json:"session_number"`
	ShortSummary  string   `json:"short_summary"`
	KeyPoints     []string `json:"key_points"`
	ActionItems   []string `json:"action_items"`
}

type SummaryRequest struct {
	MeetingID         string
	OwnerID           string
	Transcript        string
	SessionNumber     int
	PreviousSummaries []string
}

// Client is the opaque AI collaborator: it turns questions into suggested
// answers and transcripts into meeting summaries. Failures surface as error
// events and never crash a session.
type Client interface {
	Suggest(ctx context.Context, question string, contextData map[string]string, ownerID string) (*Suggestion, error)
	Summarize(ctx context.Context, req SummaryRequest) (*Summary, error)
}
