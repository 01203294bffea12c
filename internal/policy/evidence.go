// Package policy resolves per-category evidence requirements for return
// cases. The provider is built once at startup from configuration; nothing in
// here reads process-wide mutable state.
package policy

import (
	"github.com/noah-isme/mkt-backoffice-api/internal/models"
)

// EvidencePolicy maps evidence types to the minimum count required before a
// return may advance past intake.
type EvidencePolicy map[models.EvidenceType]int

// Provider supplies evidence policies per product category, falling back to
// the configured default when no override exists.
type Provider struct {
	defaults  EvidencePolicy
	overrides map[string]EvidencePolicy
}

// NewProvider builds a provider from the default policy and per-category
// overrides. Both maps are copied so later config mutation cannot leak in.
func NewProvider(defaults EvidencePolicy, overrides map[string]EvidencePolicy) *Provider {
	p := &Provider{
		defaults:  clonePolicy(defaults),
		overrides: make(map[string]EvidencePolicy, len(overrides)),
	}
	for category, pol := range overrides {
		p.overrides[category] = clonePolicy(pol)
	}
	return p
}

// ForCategory returns the policy for the given category. An empty category or
// a category without an override resolves to the default policy.
func (p *Provider) ForCategory(category string) EvidencePolicy {
	if p == nil {
		return nil
	}
	if category != "" {
		if override, ok := p.overrides[category]; ok {
			return override
		}
	}
	return p.defaults
}

// FromConfig converts the string-keyed maps produced by the config loader
// into a Provider.
func FromConfig(defaults map[string]int, overrides map[string]map[string]int) *Provider {
	converted := make(map[string]EvidencePolicy, len(overrides))
	for category, raw := range overrides {
		converted[category] = convertPolicy(raw)
	}
	return NewProvider(convertPolicy(defaults), converted)
}

func convertPolicy(raw map[string]int) EvidencePolicy {
	out := make(EvidencePolicy, len(raw))
	for k, v := range raw {
		out[models.EvidenceType(k)] = v
	}
	return out
}

func clonePolicy(in EvidencePolicy) EvidencePolicy {
	out := make(EvidencePolicy, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
