//go:build !portaudio

package capture

import (
	"context"
	"sync/atomic"

	"github.com/amplifiedhq/amplified/internal/capture"
)

// noopBridge keeps the backend functional without the portaudio cgo
// binding; audio then only arrives through gateway audio_chunk messages.
type noopBridge struct {
	state atomic.Int32
}

func NewBridge() capture.Bridge {
	return &noopBridge{}
}

func (b *noopBridge) Probe() int { return 1 }

func (b *noopBridge) Start(_ context.Context, _ capture.Config, _ capture.BlockWriter) error {
	b.state.Store(int32(capture.StateListening))
	return nil
}

func (b *noopBridge) Stop() error {
	b.state.Store(int32(capture.StateStopped))
	return nil
}

func (b *noopBridge) State() capture.State {
	return capture.State(b.state.Load())
}
