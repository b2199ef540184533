package provider

import (
	"errors"

	"github.com/papercomputeco/larder/pkg/llm"
)

// Selector holds the configured providers and chooses the one used for a
// request. The policy is fixed: the first configured provider is always
// chosen. The remaining entries are configuration only.
type Selector struct {
	providers []llm.Descriptor
}

// NewSelector creates a Selector over the given descriptors, in
// configuration order.
func NewSelector(descriptors []llm.Descriptor) (*Selector, error) {
	if len(descriptors) == 0 {
		return nil, errors.New("at least one provider is required")
	}

	providers := make([]llm.Descriptor, len(descriptors))
	copy(providers, descriptors)

	return &Selector{providers: providers}, nil
}

// Available returns the provider to use for the next request.
func (s *Selector) Available() llm.Descriptor {
	return s.providers[0]
}

// All returns a copy of every configured provider.
func (s *Selector) All() []llm.Descriptor {
	out := make([]llm.Descriptor, len(s.providers))
	copy(out, s.providers)
	return out
}
