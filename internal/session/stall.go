package session

import "math/rand"

const (
	statusStarting  = "starting"
	statusListening = "listening"
	statusPaused    = "paused"
	statusStopped   = "stopped"
	statusError     = "error"

	messageListening     = "Listening to your interview."
	messagePaused        = "Paused. Your transcript is kept."
	messageMeetingEnded  = "Meeting ended."
	messageEmptySummary  = "No transcript was recorded for this session."
	messageNoQuestionYet = "No recent question to answer yet."
	defaultMeetingTitle  = "Interview session"
)

// Canned lines the candidate can read aloud to buy thinking time while a
// real suggestion is generated.
var stallPhrases = []string{
	"That's a great question, let me take a second to structure my answer.",
	"Good question. Let me walk you through my thinking on that.",
	"I want to give you a concrete example here, give me a moment.",
	"Let me make sure I understand what you're asking before I answer.",
	"That's something I've dealt with before, let me pull up the details.",
}

func randomStallPhrase() string {
	return stallPhrases[rand.Intn(len(stallPhrases))]
}
