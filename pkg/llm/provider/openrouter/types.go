package openrouter

import "github.com/papercomputeco/larder/pkg/llm"

// chatRequest is the OpenAI-compatible chat completions request body.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []llm.Message `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

// chatResponse is the subset of the chat completions response that carries
// the generated text.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}
