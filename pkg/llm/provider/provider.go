// Package provider builds requests for, and parses replies from, upstream
// language-model APIs. Each supported llm.Family has one Provider
// implementation in its own sub-package.
package provider

import (
	"github.com/papercomputeco/larder/pkg/llm"
)

// Provider is the capability a provider family implements to translate
// between the internal message sequence and its wire format.
type Provider interface {
	// Family returns the family this implementation serves.
	Family() llm.Family

	// BuildPayload converts the message sequence into the JSON-encodable
	// request body for the given descriptor.
	BuildPayload(d llm.Descriptor, messages []llm.Message) (any, error)

	// BuildHeaders returns the HTTP headers required by the provider,
	// including authentication and content type.
	BuildHeaders(d llm.Descriptor) map[string]string

	// ExtractReply locates the generated text in a raw response body.
	// Returns *llm.MalformedResponseError when the expected structure is
	// absent and *llm.EmptyReplyError when the text is empty.
	ExtractReply(body []byte) (string, error)
}
