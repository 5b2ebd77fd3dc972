//go:build opus

package audio

import (
	"encoding/binary"
	"sync"

	"github.com/hraban/opus"

	"github.com/amplifiedhq/amplified/internal/audio"
)

const (
	sampleRate      = 16000
	channels        = 1
	maxFrameMs      = 120
	maxSamplesFrame = sampleRate * maxFrameMs * channels / 1000
)

// OpusDecoder decodes browser-origin audio_chunk packets to the linear16
// stream the transcription providers consume.
type OpusDecoder struct {
	mu      sync.Mutex
	decoder *opus.Decoder
	closed  bool
}

func NewOpusDecoder() audio.Decoder {
	return &OpusDecoder{}
}

func (d *OpusDecoder) DecodePCM16(packet []byte) ([]byte, error) {
	if len(packet) == 0 {
		return nil, nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, nil
	}
	if d.decoder == nil {
		dec, err := opus.NewDecoder(sampleRate, channels)
		if err != nil {
			return nil, err
		}
		d.decoder = dec
	}

	pcm := make([]int16, maxSamplesFrame)
	n, err := d.decoder.Decode(packet, pcm)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n*channels*2)
	for i, sample := range pcm[:n*channels] {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}
	return out, nil
}

func (d *OpusDecoder) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.decoder = nil
}
