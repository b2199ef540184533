// Package openrouter implements the OpenRouter chat completions provider.
package openrouter

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/papercomputeco/larder/pkg/llm"
)

// MaxTokens caps the length of every generated reply.
const MaxTokens = 500

// provider implements provider.Provider for the OpenAI-compatible chat
// completions API served by OpenRouter.
type provider struct{}

func New() *provider { return &provider{} }

func (p *provider) Family() llm.Family {
	return llm.FamilyOpenRouter
}

func (p *provider) BuildPayload(d llm.Descriptor, messages []llm.Message) (any, error) {
	if len(messages) == 0 {
		return nil, errors.New("no messages to send")
	}

	return chatRequest{
		Model:     d.Model,
		Messages:  messages,
		MaxTokens: MaxTokens,
	}, nil
}

func (p *provider) BuildHeaders(d llm.Descriptor) map[string]string {
	headers := map[string]string{
		"Authorization": "Bearer " + d.APIKey,
		"Content-Type":  "application/json",
	}

	// OpenRouter identifies the calling application by these two headers.
	if d.Referer != "" {
		headers["HTTP-Referer"] = d.Referer
	}
	if d.Title != "" {
		headers["X-Title"] = d.Title
	}

	return headers
}

func (p *provider) ExtractReply(body []byte) (string, error) {
	name := llm.FamilyOpenRouter.String()

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &llm.MalformedResponseError{Provider: name, Reason: "decoding body", Err: err}
	}

	if len(resp.Choices) == 0 {
		return "", &llm.MalformedResponseError{Provider: name, Reason: "no choices in response"}
	}

	content := resp.Choices[0].Message.Content
	if content == nil || strings.TrimSpace(*content) == "" {
		return "", &llm.EmptyReplyError{Provider: name}
	}

	return *content, nil
}
