package provider

import (
	"fmt"

	"github.com/papercomputeco/larder/pkg/llm"
	"github.com/papercomputeco/larder/pkg/llm/provider/huggingface"
	"github.com/papercomputeco/larder/pkg/llm/provider/openrouter"
)

// New creates the Provider for the given family.
// Returns an error if the family is not recognized.
func New(family llm.Family) (Provider, error) {
	switch family {
	case llm.FamilyOpenRouter:
		return openrouter.New(), nil
	case llm.FamilyHuggingFace:
		return huggingface.New(), nil
	default:
		return nil, fmt.Errorf("unknown provider family: %s (supported: %v)", family, llm.FamilyNames())
	}
}
