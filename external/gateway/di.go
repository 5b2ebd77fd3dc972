package gateway

import (
	"github.com/samber/do/v2"

	"github.com/amplifiedhq/amplified/internal/gateway"
	"github.com/amplifiedhq/amplified/internal/session"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (gateway.TokenVerifier, error) {
		return gateway.OpaqueTokenVerifier{}, nil
	})
	do.Provide(injector, func(i do.Injector) (*Handler, error) {
		manager := do.MustInvoke[*session.Manager](i)
		verifier := do.MustInvoke[gateway.TokenVerifier](i)
		return NewHandler(manager, verifier), nil
	})
}
