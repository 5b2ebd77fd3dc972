package annotate

import "fmt"

const (
	labelInterviewer = "Interviewer (System)"
	labelCandidate   = "Candidate (You)"
)

// ResolveSpeaker maps a diarized fragment to a display label and speaker id.
//
// Dual-channel captures separate system audio (channel 1) from the
// microphone (channel 0) reliably; single-channel captures fall back to the
// diarization index and assume speaker 0 is the account owner when an
// enrolled name exists.
func ResolveSpeaker(channelIndex, wordSpeaker, inputChannels int, ownerName string) (label string, speakerID int) {
	switch {
	case channelIndex == 1:
		return labelInterviewer, 0
	case channelIndex == 0 && inputChannels > 1:
		if ownerName != "" {
			return ownerName, 1
		}
		return labelCandidate, 1
	case wordSpeaker == 0 && ownerName != "":
		return ownerName, 0
	default:
		return fmt.Sprintf("Speaker %d", wordSpeaker), wordSpeaker
	}
}
