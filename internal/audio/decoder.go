package audio

// Decoder turns one client-supplied Opus packet into 16 kHz mono PCM16
// bytes ready for the transcription provider. A nil return with nil error
// means the packet was ignored (decoder unavailable or empty input).
type Decoder interface {
	DecodePCM16(packet []byte) ([]byte, error)
	Close()
}

type DecoderFactory func() Decoder
