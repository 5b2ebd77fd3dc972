package capture

import "context"

type State int32

const (
	StateStopped State = iota
	StateStarting
	StateListening
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateListening:
		return "listening"
	default:
		return "stopped"
	}
}

// Config fixes the capture format the transcription providers expect.
type Config struct {
	SampleRate  int
	Channels    int
	BlockFrames int
}

func DefaultConfig(channels int) Config {
	if channels < 1 {
		channels = 1
	}
	return Config{SampleRate: 16000, Channels: channels, BlockFrames: 2048}
}

// BlockWriter receives raw PCM blocks from the capture thread's handoff
// queue. Satisfied by transcriber.StreamWriter.
type BlockWriter interface {
	Write(pcm []byte) error
}

// Bridge owns the OS audio input stream. Start moves Stopped -> Starting ->
// Listening and must fail back to Stopped without capturing anything when
// the device or provider connection cannot be established. The capture
// callback runs on a realtime thread and must never block on session-owned
// code: blocks travel through a bounded queue that drops on overflow.
type Bridge interface {
	// Probe reports the input channel count to capture with, preferring 2
	// when the device supports it and degrading to 1 on probe failure.
	Probe() int
	Start(ctx context.Context, cfg Config, w BlockWriter) error
	Stop() error
	State() State
}

type Factory func() Bridge
