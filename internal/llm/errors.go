package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFatalAPI indicates an API error that will not succeed on retry
// (quota, billing, or authentication problems). Callers should stop
// issuing further requests when they see this error.
var ErrFatalAPI = errors.New("fatal API error")

// fatalPatterns are substrings that identify non-recoverable API errors.
var fatalPatterns = []string{
	"credit balance",
	"rate limit",
	"quota",
	"billing",
	"invalid api key",
	"authentication",
	"unauthorized",
	"401",
	"403",
}

// isFatalAPIError reports whether err describes a quota/billing/auth failure.
// Timeouts and transient network errors are not fatal.
func isFatalAPIError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range fatalPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// wrapFatalError wraps fatal API errors with ErrFatalAPI so callers can use
// errors.Is. Non-fatal errors are returned unchanged.
func wrapFatalError(err error) error {
	if err == nil {
		return nil
	}
	if isFatalAPIError(err) {
		return fmt.Errorf("%w: %w", ErrFatalAPI, err)
	}
	return err
}
