package annotate

import (
	"testing"
	"time"

	"github.com/amplifiedhq/amplified/internal/coaching"
	"github.com/amplifiedhq/amplified/internal/transcriber"
)

func newTestAnnotator() *Annotator {
	return NewAnnotator(coaching.NewEngine())
}

func TestAnnotate_FinalFragment(t *testing.T) {
	a := newTestAnnotator()
	a.SetInputChannels(2)
	a.SetOwnerDisplayName("Dana")

	at := time.Date(2026, 8, 23, 9, 30, 0, 0, time.UTC)
	ev, err := a.Annotate(transcriber.Fragment{
		Text:    "um tell me about yourself",
		IsFinal: true,
		Words: []transcriber.Word{
			{Text: "um"}, {Text: "tell"}, {Text: "me"}, {Text: "about"}, {Text: "yourself"},
		},
		ReceivedAt: at,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Speaker != "Dana" || ev.SpeakerID != 1 {
		t.Fatalf("unexpected speaker: %q id=%d", ev.Speaker, ev.SpeakerID)
	}
	if !ev.IsQuestion {
		t.Fatal("expected question")
	}
	if ev.Coaching.WPM == 0 {
		t.Fatal("expected nonzero wpm")
	}
	if ev.Coaching.FillerCount != 1 {
		t.Fatalf("expected one filler, got %d", ev.Coaching.FillerCount)
	}
	if ev.Timestamp != at.Format(time.RFC3339) {
		t.Fatalf("unexpected timestamp: %s", ev.Timestamp)
	}
}

func TestAnnotate_InterimFragmentSkipsQuestionAndMetrics(t *testing.T) {
	a := newTestAnnotator()

	ev, err := a.Annotate(transcriber.Fragment{
		Text:       "tell me about",
		IsFinal:    false,
		ReceivedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.IsQuestion {
		t.Fatal("interim fragments must never be flagged as questions")
	}
	if ev.Coaching.WPM != 0 || ev.Coaching.FillerCount != 0 {
		t.Fatalf("interim fragment must not move metrics: %+v", ev.Coaching)
	}
}

func TestAnnotate_ResetClearsCoachingState(t *testing.T) {
	a := newTestAnnotator()

	_, err := a.Annotate(transcriber.Fragment{
		Text:       "um uh hmm",
		IsFinal:    true,
		Words:      []transcriber.Word{{Text: "um"}, {Text: "uh"}, {Text: "hmm"}},
		ReceivedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a.Reset()
	ev, err := a.Annotate(transcriber.Fragment{Text: "hello", IsFinal: false, ReceivedAt: time.Now()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Coaching.FillerCount != 0 || ev.Coaching.WPM != 0 {
		t.Fatalf("expected reset coaching state, got %+v", ev.Coaching)
	}
}
