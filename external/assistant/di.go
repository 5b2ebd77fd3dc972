package assistant

import (
	"github.com/samber/do/v2"

	"github.com/amplifiedhq/amplified/internal/assistant"
	"github.com/amplifiedhq/amplified/internal/config"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (assistant.Client, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewHTTPClient(c.AssistantBaseURL, c.AssistantAPIKey), nil
	})
}
