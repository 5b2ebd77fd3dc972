package session

import (
	"github.com/samber/do/v2"

	"github.com/amplifiedhq/amplified/internal/assistant"
	"github.com/amplifiedhq/amplified/internal/audio"
	"github.com/amplifiedhq/amplified/internal/capture"
	"github.com/amplifiedhq/amplified/internal/config"
	"github.com/amplifiedhq/amplified/internal/repository"
	"github.com/amplifiedhq/amplified/internal/transcriber"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)
		ac := do.MustInvoke[assistant.Client](i)
		stt := do.MustInvoke[transcriber.Transcriber](i)
		newBridge := do.MustInvoke[capture.Factory](i)
		newDecoder := do.MustInvoke[audio.DecoderFactory](i)
		return NewManager(cfg, repo, ac, stt, newBridge, newDecoder), nil
	})
}
