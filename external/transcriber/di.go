package transcriber

import (
	"github.com/samber/do/v2"

	"github.com/amplifiedhq/amplified/internal/config"
	"github.com/amplifiedhq/amplified/internal/transcriber"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.Transcriber, error) {
		c := do.MustInvoke[*config.Config](i)
		if c.TranscribeProvider == config.ProviderGoogle {
			return NewCloudSpeechTranscriber(CloudSpeechConfig{
				ProjectID:       c.GoogleCloudProjectID,
				CredentialsJSON: c.GoogleCloudCredentialsJSON,
				Language:        c.DefaultLanguage,
				Location:        c.GoogleCloudSpeechLocation,
				Model:           c.GoogleCloudSpeechModel,
			}), nil
		}
		return NewDeepgramTranscriber(DeepgramConfig{
			APIKey:          c.DeepgramAPIKey,
			DefaultLanguage: c.DefaultLanguage,
		}), nil
	})
}
