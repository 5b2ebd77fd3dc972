//go:build portaudio

package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/amplifiedhq/amplified/internal/capture"
)

// blockQueueDepth bounds the handoff between the portaudio callback thread
// and the pump goroutine. The callback drops blocks when the queue is full;
// it must never block.
const blockQueueDepth = 32

type portaudioBridge struct {
	mu     sync.Mutex
	state  atomic.Int32
	stream *portaudio.Stream
	blocks chan []byte
	done   chan struct{}
}

func NewBridge() capture.Bridge {
	return &portaudioBridge{}
}

func (b *portaudioBridge) State() capture.State {
	return capture.State(b.state.Load())
}

func (b *portaudioBridge) Probe() int {
	if err := portaudio.Initialize(); err != nil {
		slog.Warn("portaudio initialize failed; assuming single channel", "error", err)
		return 1
	}
	defer portaudio.Terminate()

	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		slog.Warn("input device probe failed; assuming single channel", "error", err)
		return 1
	}
	if device.MaxInputChannels >= 2 {
		return 2
	}
	return 1
}

func (b *portaudioBridge) Start(ctx context.Context, cfg capture.Config, w capture.BlockWriter) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if capture.State(b.state.Load()) != capture.StateStopped {
		return nil
	}
	b.state.Store(int32(capture.StateStarting))

	if err := portaudio.Initialize(); err != nil {
		b.state.Store(int32(capture.StateStopped))
		return fmt.Errorf("portaudio initialize: %w", err)
	}

	blocks := make(chan []byte, blockQueueDepth)
	done := make(chan struct{})
	var dropped atomic.Int64

	stream, err := portaudio.OpenDefaultStream(cfg.Channels, 0, float64(cfg.SampleRate), cfg.BlockFrames, func(in []int16) {
		if capture.State(b.state.Load()) != capture.StateListening {
			return
		}
		block := make([]byte, len(in)*2)
		for i, sample := range in {
			binary.LittleEndian.PutUint16(block[i*2:], uint16(sample))
		}
		select {
		case blocks <- block:
		default:
			dropped.Add(1)
		}
	})
	if err != nil {
		portaudio.Terminate()
		b.state.Store(int32(capture.StateStopped))
		return fmt.Errorf("open input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		portaudio.Terminate()
		b.state.Store(int32(capture.StateStopped))
		return fmt.Errorf("start input stream: %w", err)
	}

	b.stream = stream
	b.blocks = blocks
	b.done = done
	b.state.Store(int32(capture.StateListening))
	slog.Info("audio capture started", "sample_rate", cfg.SampleRate, "channels", cfg.Channels, "block_frames", cfg.BlockFrames)

	go b.pump(ctx, blocks, done, w, &dropped)
	return nil
}

// pump drains the handoff queue into the provider stream on its own
// goroutine, keeping provider backpressure away from the capture thread.
func (b *portaudioBridge) pump(ctx context.Context, blocks <-chan []byte, done <-chan struct{}, w capture.BlockWriter, dropped *atomic.Int64) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			slog.Info("audio pump stopped", "dropped_blocks", dropped.Load())
			return
		case block := <-blocks:
			if err := w.Write(block); err != nil {
				slog.Error("failed to write audio block to provider stream", "error", err)
				return
			}
		}
	}
}

func (b *portaudioBridge) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if capture.State(b.state.Load()) == capture.StateStopped {
		return nil
	}
	b.state.Store(int32(capture.StateStopped))
	close(b.done)

	var firstErr error
	if err := b.stream.Stop(); err != nil {
		firstErr = err
	}
	if err := b.stream.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := portaudio.Terminate(); err != nil && firstErr == nil {
		firstErr = err
	}
	b.stream = nil
	slog.Info("audio capture stopped")
	return firstErr
}
