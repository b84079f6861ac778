// Package text provides the free-text section: a configured string passed
// through verbatim. The CUSTOM_TEXT environment variable overrides the
// config value at load time, so this provider never touches the network.
package text

import (
	"context"

	"github.com/mhoffm/paperdash/pkg/section"
)

// Provider returns the configured text as-is.
type Provider struct {
	text string
}

// New creates a text provider for s.
func New(s string) *Provider { return &Provider{text: s} }

// Name implements providers.Provider.
func (p *Provider) Name() string { return "text" }

// Fetch implements providers.Provider.
func (p *Provider) Fetch(context.Context) (section.Data, error) {
	return &section.Text{Text: p.text}, nil
}
