package transcriber

import (
	"context"
	"time"
)

// Word is a single recognized token with its diarization speaker index.
type Word struct {
	Text    string
	Speaker int
}

// Fragment is one unit of transcript emitted by a provider, interim or final.
type Fragment struct {
	Text         string
	IsFinal      bool
	ChannelIndex int
	Words        []Word
	Speaker      int
	ReceivedAt   time.Time
}

// WordCount prefers the word list and falls back to splitting the text.
func (f Fragment) WordCount() int {
	if len(f.Words) > 0 {
		return len(f.Words)
	}
	n := 0
	inWord := false
	for _, r := range f.Text {
		if r == ' ' || r == '\t' || r == '\n' {
			inWord = false
			continue
		}
		if !inWord {
			n++
			inWord = true
		}
	}
	return n
}

type StreamOptions struct {
	Language string
	Model    string
	Channels int
}

type StreamWriter interface {
	Write(pcm []byte) error
	Close() error
}

type ResultReceiver interface {
	OnFragment(fragment Fragment)
	OnError(err error)
}

type Transcriber interface {
	StartStreaming(ctx context.Context, sessionID string, opts StreamOptions, receiver ResultReceiver) (StreamWriter, error)
}
