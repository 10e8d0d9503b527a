package provider

import (
	"github.com/leadpay/earnings/internal/usecase"
)

// Secrets carries the per-provider webhook secrets from configuration.
type Secrets struct {
	Cpalead   string
	Linkshare string
	Payward   string
}

// Registry builds the adapter set from the configured secrets. A provider
// with an empty secret is left out and reported in disabled: an empty secret
// would make every signature check pass for a forged payload, so the
// provider's endpoint must not exist until a secret is configured.
func Registry(secrets Secrets) (adapters []usecase.ProviderAdapter, disabled []string) {
	if secrets.Cpalead != "" {
		adapters = append(adapters, NewCpaleadAdapter(secrets.Cpalead))
	} else {
		disabled = append(disabled, "cpalead")
	}

	if secrets.Linkshare != "" {
		adapters = append(adapters, NewLinkshareAdapter(secrets.Linkshare))
	} else {
		disabled = append(disabled, "linkshare")
	}

	if secrets.Payward != "" {
		adapters = append(adapters, NewPaywardAdapter(secrets.Payward))
	} else {
		disabled = append(disabled, "payward")
	}

	return adapters, disabled
}
