package annotate

import "testing"

func TestResolveSpeaker_ChannelOneIsAlwaysInterviewer(t *testing.T) {
	for _, wordSpeaker := range []int{0, 1, 5} {
		for _, channels := range []int{1, 2} {
			for _, owner := range []string{"", "Dana"} {
				label, id := ResolveSpeaker(1, wordSpeaker, channels, owner)
				if label != "Interviewer (System)" {
					t.Fatalf("channel 1 must resolve to interviewer, got %q", label)
				}
				if id != 0 {
					t.Fatalf("interviewer speaker id must be 0, got %d", id)
				}
			}
		}
	}
}

func TestResolveSpeaker_MicChannelOfDualCapture(t *testing.T) {
	label, id := ResolveSpeaker(0, 0, 2, "Dana")
	if label != "Dana" || id != 1 {
		t.Fatalf("expected owner name on mic channel, got %q id=%d", label, id)
	}

	label, id = ResolveSpeaker(0, 0, 2, "")
	if label != "Candidate (You)" || id != 1 {
		t.Fatalf("expected candidate fallback, got %q id=%d", label, id)
	}
}

func TestResolveSpeaker_SingleChannelOwnerHeuristic(t *testing.T) {
	label, id := ResolveSpeaker(0, 0, 1, "Dana")
	if label != "Dana" || id != 0 {
		t.Fatalf("expected owner name for speaker 0, got %q id=%d", label, id)
	}

	label, id = ResolveSpeaker(0, 2, 1, "Dana")
	if label != "Speaker 2" || id != 2 {
		t.Fatalf("expected generic label for speaker 2, got %q id=%d", label, id)
	}

	label, id = ResolveSpeaker(0, 0, 1, "")
	if label != "Speaker 0" || id != 0 {
		t.Fatalf("expected generic label without owner name, got %q id=%d", label, id)
	}
}
