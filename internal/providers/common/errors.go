package common

import (
	"errors"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
)

var (
	// ErrQuotaExceeded marks a provider rate-limit or quota failure.
	ErrQuotaExceeded = errors.New("provider quota exceeded")
	// ErrEmptyCompletion is returned when a provider answers with no text.
	ErrEmptyCompletion = errors.New("provider returned an empty completion")
)

var quotaIndicators = []string{
	"rate limit",
	"ratelimit",
	"too many requests",
	"quota exceeded",
	"insufficient_quota",
	"exceeded your current quota",
}

// IsQuotaError reports whether err means the provider refuses further calls for now.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrQuotaExceeded) {
		return true
	}

	var oaiErr *openai.Error
	if errors.As(err, &oaiErr) {
		if oaiErr.StatusCode == http.StatusTooManyRequests || oaiErr.Code == "insufficient_quota" {
			return true
		}
	}

	var antErr *anthropic.Error
	if errors.As(err, &antErr) && antErr.StatusCode == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, indicator := range quotaIndicators {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}
