package llm

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned when no API key can be resolved for the selected provider.
var ErrMissingAPIKey = errors.New("API key not configured")

// ErrorKind classifies an upstream failure for user-facing messages.
type ErrorKind string

const (
	ErrorKindRateLimited    ErrorKind = "rate_limited"
	ErrorKindQuotaExhausted ErrorKind = "quota_exhausted"
	ErrorKindAuth           ErrorKind = "auth"
	ErrorKindUnavailable    ErrorKind = "unavailable"
)

// ClassifyError maps an upstream error onto an ErrorKind using the provider error text.
func ClassifyError(err error) ErrorKind {
	if err == nil {
		return ""
	}

	switch {
	case IsAuthError(err):
		return ErrorKindAuth
	case IsQuotaError(err):
		return ErrorKindQuotaExhausted
	case IsRateLimitError(err):
		return ErrorKindRateLimited
	default:
		return ErrorKindUnavailable
	}
}

// IsAuthError reports a missing, invalid or unauthorised API key.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMissingAPIKey) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") ||
		strings.Contains(errStr, "PERMISSION_DENIED") ||
		strings.Contains(errStr, "UNAUTHENTICATED") ||
		strings.Contains(errStr, "API key not valid") ||
		strings.Contains(errStr, "authentication_error")
}

// IsQuotaError reports an exhausted billing or daily quota, which a short wait will not fix.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "exceeded your current quota") ||
		strings.Contains(errStr, "quota exceeded") ||
		strings.Contains(errStr, "billing")
}

// IsRateLimitError checks for 429 status codes and RESOURCE_EXHAUSTED errors.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "rate_limit_error") ||
		strings.Contains(strings.ToLower(errStr), "rate limit")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the provider-suggested retry delay from an error. Returns 0 if none is present.
//
// Example error message:
// "Error 429, Message: ... Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}
