package payment

import (
	"fmt"

	"go.uber.org/zap"
)

// Options carries provider credentials.
type Options struct {
	StripeKey string
}

// New creates a gateway for the given provider.
func New(provider Provider, opts Options, logger *zap.Logger) (Gateway, error) {
	switch provider {
	case ProviderSandbox:
		return NewSandbox(logger), nil
	case ProviderStripe:
		if opts.StripeKey == "" {
			return nil, fmt.Errorf("payment: stripe selected but no api key configured")
		}
		return NewStripe(opts.StripeKey, logger), nil
	default:
		return nil, fmt.Errorf("payment: unsupported provider %q", provider)
	}
}

// SupportedProviders lists the providers this build can create.
func SupportedProviders() []Provider {
	return []Provider{ProviderSandbox, ProviderStripe}
}
