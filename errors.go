package ytq

import (
	"errors"

	"ytq/internal/config"
	"ytq/internal/fetch"
	"ytq/internal/retry"
	"ytq/internal/stats"
	"ytq/internal/storage"
	"ytq/internal/videoid"
	"ytq/internal/youtube"
)

// Type aliases for convenient error handling.
type (
	// RejectionError describes why an input is not a single video.
	RejectionError = videoid.RejectionError
	// StorageError wraps errors during storage operations.
	StorageError = storage.StorageError
	// BatchError reports a fetch that stopped after some batches committed.
	BatchError = fetch.BatchError
	// APIError is an unclassified YouTube Data API error response.
	APIError = youtube.APIError
	// RetryableError wraps errors that occurred after retries were exhausted.
	RetryableError = retry.RetryableError
)

// Sentinel errors exported from sub-packages.
var (
	// ErrInvalidInput indicates input that is not a single YouTube video.
	ErrInvalidInput = videoid.ErrInvalidInput

	// Storage errors
	// ErrNotFound indicates the video is not in the queue.
	ErrNotFound = storage.ErrNotFound
	// ErrAlreadyExists indicates the video is already queued.
	ErrAlreadyExists = storage.ErrAlreadyExists
	// ErrEmptyQueue indicates a pop on an empty queue.
	ErrEmptyQueue = storage.ErrEmptyQueue
	// ErrStorageCorrupt indicates a data file could not be decoded.
	ErrStorageCorrupt = storage.ErrStorageCorrupt
	// ErrLockTimeout indicates another ytq process held the lock too long.
	ErrLockTimeout = storage.ErrLockTimeout

	// ErrConfig indicates an unknown config key or an invalid value.
	ErrConfig = config.ErrConfig
	// ErrConflictingFlags indicates more than one stats period was chosen.
	ErrConflictingFlags = stats.ErrConflictingFlags

	// API errors
	// ErrMissingAPIKey indicates fetch was run without an API key.
	ErrMissingAPIKey = youtube.ErrMissingAPIKey
	// ErrForbidden indicates the API key was rejected.
	ErrForbidden = youtube.ErrForbidden
	// ErrQuotaExceeded indicates the daily API quota is used up.
	ErrQuotaExceeded = youtube.ErrQuotaExceeded
	// ErrNetwork indicates the API could not be reached.
	ErrNetwork = youtube.ErrNetwork
)

// ExtractVideoID returns the 11-character video ID in raw, which may be a
// bare ID or any supported YouTube URL.
func ExtractVideoID(raw string) (string, error) {
	return videoid.Extract(raw)
}

// IsRetryable reports whether running the same command again could
// succeed. Rejected keys, exhausted quota, bad input and corrupt data are
// final; a lock timeout or a network failure is not.
func IsRetryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrQuotaExceeded),
		errors.Is(err, ErrMissingAPIKey), errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrStorageCorrupt), errors.Is(err, ErrConfig):
		return false
	}
	return retry.IsRetryable(err)
}
