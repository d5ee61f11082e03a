package output

import (
	"errors"
	"fmt"
)

// FaultKind classifies a backend failure for the retry policy.
type FaultKind int

const (
	FaultOther FaultKind = iota
	FaultRateLimited
	FaultAPIError
	FaultInvalidRequest
)

func (k FaultKind) String() string {
	switch k {
	case FaultRateLimited:
		return "rate_limited"
	case FaultAPIError:
		return "api_error"
	case FaultInvalidRequest:
		return "invalid_request"
	default:
		return "other"
	}
}

// LLMError is returned by every LLMPort adapter.
type LLMError struct {
	Kind     FaultKind
	Endpoint string
	Err      error
}

func (e *LLMError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("%s [%s]: %v", e.Endpoint, e.Kind, e.Err)
	}
	return fmt.Sprintf("[%s]: %v", e.Kind, e.Err)
}

func (e *LLMError) Unwrap() error {
	return e.Err
}

func NewLLMError(kind FaultKind, endpoint string, err error) *LLMError {
	return &LLMError{Kind: kind, Endpoint: endpoint, Err: err}
}

// FaultKindOf reports FaultOther for errors no adapter classified.
func FaultKindOf(err error) FaultKind {
	var llmErr *LLMError
	if errors.As(err, &llmErr) {
		return llmErr.Kind
	}
	return FaultOther
}
