package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"ytq/internal/retry"
)

// Sentinel errors for Data API calls.
var (
	// ErrMissingAPIKey means no key was found in the environment or config.
	ErrMissingAPIKey = errors.New("youtube: no API key configured (set YTQ_API_KEY or run `ytq config youtube_api_key <key>`)")
	// ErrForbidden means the key was rejected or the API is not enabled for it.
	ErrForbidden = errors.New("youtube: request forbidden, check the API key and that the YouTube Data API v3 is enabled for it")
	// ErrQuotaExceeded means the project's daily quota is used up.
	ErrQuotaExceeded = errors.New("youtube: daily API quota exhausted, try again tomorrow")
	// ErrNetwork means the API could not be reached.
	ErrNetwork = errors.New("youtube: network failure")
)

// APIError is an error response from the Data API that is not covered by
// one of the sentinels.
type APIError struct {
	StatusCode int
	Reason     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("youtube: API returned HTTP %d (%s): %s", e.StatusCode, e.Reason, e.Message)
	}
	return fmt.Sprintf("youtube: API returned HTTP %d: %s", e.StatusCode, e.Message)
}

// classify maps a raw client error onto the package errors. Errors that
// should not be retried are marked with retry.Permanent.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}

	reason := ""
	if len(gerr.Errors) > 0 {
		reason = gerr.Errors[0].Reason
	}

	switch {
	case reason == "quotaExceeded" || reason == "dailyLimitExceeded":
		return retry.Permanent(ErrQuotaExceeded)
	case gerr.Code == http.StatusForbidden, reason == "keyInvalid", gerr.Code == http.StatusUnauthorized:
		return retry.Permanent(fmt.Errorf("%w: %s", ErrForbidden, gerr.Message))
	case gerr.Code == http.StatusTooManyRequests || gerr.Code >= 500:
		return &APIError{StatusCode: gerr.Code, Reason: reason, Message: gerr.Message}
	default:
		return retry.Permanent(&APIError{StatusCode: gerr.Code, Reason: reason, Message: gerr.Message})
	}
}
