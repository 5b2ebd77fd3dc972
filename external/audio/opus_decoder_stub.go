//go:build !opus

package audio

import "github.com/amplifiedhq/amplified/internal/audio"

type noopDecoder struct{}

func NewOpusDecoder() audio.Decoder {
	return &noopDecoder{}
}

func (d *noopDecoder) DecodePCM16(_ []byte) ([]byte, error) {
	return nil, nil
}

func (d *noopDecoder) Close() {}
