// Package providers defines the data provider contract consumed by the
// composition pipeline.
//
// A provider resolves one dashboard section's data from an upstream service
// (or from configuration, for the text section). Providers fail with typed
// errors — AUTH_ERROR, NETWORK_ERROR, NO_DATA — but the pipeline treats all
// failures identically: the section degrades to a placeholder carrying the
// failure message while the rest of the image is still generated. Providers
// never draw, and renderers never fetch.
package providers

import (
	"context"

	"github.com/mhoffm/paperdash/pkg/section"
)

// Provider resolves the data for one dashboard section.
type Provider interface {
	// Name identifies the provider in logs and placeholder messages.
	Name() string

	// Fetch resolves the section data. Implementations are expected to
	// consult their response cache before hitting the network.
	Fetch(ctx context.Context) (section.Data, error)
}

// Func adapts a function to the Provider interface, mirroring http.HandlerFunc.
// Used by tests and the static text provider.
type Func struct {
	ProviderName string
	FetchFunc    func(ctx context.Context) (section.Data, error)
}

// Name returns the provider name.
func (f Func) Name() string { return f.ProviderName }

// Fetch invokes the wrapped function.
func (f Func) Fetch(ctx context.Context) (section.Data, error) { return f.FetchFunc(ctx) }
