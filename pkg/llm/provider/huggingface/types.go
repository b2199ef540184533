package huggingface

// inferenceRequest is the text-generation inference request body.
type inferenceRequest struct {
	Inputs     string              `json:"inputs"`
	Parameters inferenceParameters `json:"parameters"`
}

type inferenceParameters struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
}

// inferenceResult is one element of the text-generation response array.
type inferenceResult struct {
	GeneratedText *string `json:"generated_text"`
}
