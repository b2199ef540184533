package llm

import (
	"fmt"
	"strings"
)

// Family identifies a provider API shape. Each family has exactly one
// request payload and response layout.
type Family int

const (
	// FamilyUnknown is the zero value and is never valid in a Descriptor.
	FamilyUnknown Family = iota

	// FamilyOpenRouter is the OpenAI-compatible chat completions shape
	// served by OpenRouter.
	FamilyOpenRouter

	// FamilyHuggingFace is the Hugging Face text-generation inference shape.
	FamilyHuggingFace
)

var familyNames = map[Family]string{
	FamilyOpenRouter:  "openrouter",
	FamilyHuggingFace: "huggingface",
}

func (f Family) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseFamily maps a configured family name onto a Family.
func ParseFamily(name string) (Family, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range familyNames {
		if n == name {
			return f, nil
		}
	}
	return FamilyUnknown, fmt.Errorf("unknown provider family: %q (supported: %v)", name, FamilyNames())
}

// FamilyNames returns the supported family names in a stable order.
func FamilyNames() []string {
	return []string{FamilyOpenRouter.String(), FamilyHuggingFace.String()}
}

// Usage windows a provider limit can be expressed in.
const (
	WindowDaily   = "daily"
	WindowMonthly = "monthly"
)

// UsageLimit is the advertised request allowance of a provider. It is
// informational only and never enforced.
type UsageLimit struct {
	Window string `json:"window"`
	Max    int    `json:"max"`
}

// Descriptor describes one configured upstream language-model provider.
// Descriptors are built once at startup and never mutated.
type Descriptor struct {
	// Name is the unique provider name used for usage accounting (e.g. "openrouter").
	Name string

	// Family selects the request and response shape.
	Family Family

	// Endpoint is the full URL requests are POSTed to.
	Endpoint string

	// APIKey is the bearer credential. Never log it.
	APIKey string

	// Model is the upstream model identifier.
	Model string

	// Limit is the advertised usage allowance.
	Limit UsageLimit

	// Referer and Title are sent as identification headers by families that require them.
	Referer string
	Title   string
}
