package annotate

import (
	"fmt"
	"time"

	"github.com/amplifiedhq/amplified/internal/coaching"
	"github.com/amplifiedhq/amplified/internal/transcriber"
)

type Coaching struct {
	WPM         int      `json:"wpm"`
	FillerCount int      `json:"filler_count"`
	Fillers     []string `json:"fillers"`
}

// Event is the enriched fragment handed to the UI sink and the suggestion
// trigger.
type Event struct {
	Speaker    string   `json:"speaker"`
	SpeakerID  int      `json:"speaker_id"`
	Text       string   `json:"text"`
	IsFinal    bool     `json:"is_final"`
	IsQuestion bool     `json:"is_question"`
	Timestamp  string   `json:"timestamp"`
	Coaching   Coaching `json:"coaching"`
}

// Annotator composes coaching metrics, speaker resolution and question
// detection over raw provider fragments. Owned by a single session event
// loop; configuration setters are called only between captures.
type Annotator struct {
	metrics       *coaching.Engine
	inputChannels int
	ownerName     string
}

func NewAnnotator(metrics *coaching.Engine) *Annotator {
	return &Annotator{metrics: metrics, inputChannels: 1}
}

func (a *Annotator) SetInputChannels(n int) {
	if n < 1 {
		n = 1
	}
	a.inputChannels = n
}

func (a *Annotator) SetOwnerDisplayName(name string) {
	a.ownerName = name
}

func (a *Annotator) Reset() {
	a.metrics.Reset()
}

// Annotate builds the enriched event for one fragment. A panic in the leaf
// logic is converted to an error so a bad fragment is dropped instead of
// killing the capture pipeline.
func (a *Annotator) Annotate(frag transcriber.Fragment) (ev Event, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("annotate fragment: %v", r)
		}
	}()

	if frag.IsFinal {
		a.metrics.Observe(frag)
	}
	snap := a.metrics.Snapshot()

	speaker, speakerID := ResolveSpeaker(frag.ChannelIndex, frag.Speaker, a.inputChannels, a.ownerName)

	isQuestion := false
	if frag.IsFinal {
		isQuestion = IsQuestion(frag.Text)
	}

	at := frag.ReceivedAt
	if at.IsZero() {
		at = time.Now()
	}

	return Event{
		Speaker:    speaker,
		SpeakerID:  speakerID,
		Text:       frag.Text,
		IsFinal:    frag.IsFinal,
		IsQuestion: isQuestion,
		Timestamp:  at.Format(time.RFC3339),
		Coaching: Coaching{
			WPM:         snap.WPM,
			FillerCount: snap.FillerCount,
			Fillers:     snap.Fillers,
		},
	}, nil
}
