package audio

import (
	"github.com/samber/do/v2"

	"github.com/amplifiedhq/amplified/internal/audio"
)

func RegisterDI(injector do.Injector) {
	do.ProvideValue(injector, audio.DecoderFactory(NewOpusDecoder))
}
