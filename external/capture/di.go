package capture

import (
	"github.com/samber/do/v2"

	"github.com/amplifiedhq/amplified/internal/capture"
)

func RegisterDI(injector do.Injector) {
	do.ProvideValue(injector, capture.Factory(NewBridge))
}
