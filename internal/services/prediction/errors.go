package prediction

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/moutai/internal/services/llm"
)

// User-facing messages for each failure kind.
const (
	MessageParse            = "AI data terminal parse exception"
	MessageInsufficientData = "retrieved data is incomplete"
)

// UserFacingError is implemented by every error the fetch flow returns.
type UserFacingError interface {
	error
	UserMessage() string
}

// UpstreamError means the generation call itself failed (network, auth, quota).
type UpstreamError struct {
	Err        error
	Kind       llm.ErrorKind
	RetryAfter time.Duration
}

func newUpstreamError(err error) *UpstreamError {
	return &UpstreamError{
		Err:        err,
		Kind:       llm.ClassifyError(err),
		RetryAfter: llm.ExtractRetryDelay(err),
	}
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Kind, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// UserMessage returns the message shown beside the retry control: a summary
// of the failure kind followed by the upstream error text.
func (e *UpstreamError) UserMessage() string {
	summary := e.summary()
	if e.Err == nil {
		return summary
	}
	return fmt.Sprintf("%s: %s", summary, strings.TrimSpace(e.Err.Error()))
}

func (e *UpstreamError) summary() string {
	switch e.Kind {
	case llm.ErrorKindAuth:
		return "model service rejected the API key, check the key configuration"
	case llm.ErrorKindQuotaExhausted:
		return "model service quota exhausted"
	case llm.ErrorKindRateLimited:
		if e.RetryAfter > 0 {
			return fmt.Sprintf("model service is rate limited, retry in %ds", int(e.RetryAfter.Round(time.Second).Seconds()))
		}
		return "model service is rate limited, retry shortly"
	default:
		return "model service unavailable, network fluctuation"
	}
}

// ParseError means the upstream text was not a JSON object.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %v", MessageParse, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) UserMessage() string { return MessageParse }

// InsufficientDataError means the JSON parsed but failed the minimum-content checks.
type InsufficientDataError struct {
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: %s", MessageInsufficientData, e.Reason)
}

func (e *InsufficientDataError) UserMessage() string { return MessageInsufficientData }
