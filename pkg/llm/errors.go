package llm

import "fmt"

// EmptyReplyError is returned when a provider response is well formed but
// carries no generated text.
type EmptyReplyError struct {
	Provider string
}

func (e *EmptyReplyError) Error() string {
	return fmt.Sprintf("%s returned an empty reply", e.Provider)
}

// MalformedResponseError is returned when a provider response does not have
// the structure expected for its family.
type MalformedResponseError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s response: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed %s response: %s", e.Provider, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
