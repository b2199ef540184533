// Package huggingface implements the Hugging Face text-generation inference
// provider. The inference API takes a single prompt, so only the most
// recent message is sent.
package huggingface

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/papercomputeco/larder/pkg/llm"
)

const (
	MaxNewTokens = 500
	Temperature  = 0.7
)

type provider struct{}

func New() *provider { return &provider{} }

func (p *provider) Family() llm.Family {
	return llm.FamilyHuggingFace
}

func (p *provider) BuildPayload(_ llm.Descriptor, messages []llm.Message) (any, error) {
	if len(messages) == 0 {
		return nil, errors.New("no messages to send")
	}

	return inferenceRequest{
		Inputs: messages[len(messages)-1].Content,
		Parameters: inferenceParameters{
			MaxNewTokens: MaxNewTokens,
			Temperature:  Temperature,
		},
	}, nil
}

func (p *provider) BuildHeaders(d llm.Descriptor) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + d.APIKey,
		"Content-Type":  "application/json",
	}
}

func (p *provider) ExtractReply(body []byte) (string, error) {
	name := llm.FamilyHuggingFace.String()

	var results []inferenceResult
	if err := json.Unmarshal(body, &results); err != nil {
		return "", &llm.MalformedResponseError{Provider: name, Reason: "decoding body", Err: err}
	}

	if len(results) == 0 {
		return "", &llm.MalformedResponseError{Provider: name, Reason: "no results in response"}
	}

	text := results[0].GeneratedText
	if text == nil || strings.TrimSpace(*text) == "" {
		return "", &llm.EmptyReplyError{Provider: name}
	}

	return *text, nil
}
