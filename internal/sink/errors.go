package sink

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("search endpoint not configured")
	ErrTransport     = errors.New("search endpoint unreachable")
	ErrRejected      = errors.New("search endpoint rejected delivery")
	ErrArchive       = errors.New("archive write failed")
)

// ConfigError reports a required search setting missing at delivery time.
type ConfigError struct {
	Setting string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %v", e.Setting, e.Err)
	}
	return fmt.Sprintf("missing %s", e.Setting)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// TransportError wraps a connection-level failure of the POST.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("send logs: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// RejectedError is returned when the endpoint answered with status >= 400.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP code %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP code %d: %s", e.StatusCode, e.Body)
}

func (e *RejectedError) Is(target error) bool { return target == ErrRejected }

// ArchiveError wraps a failed object write.
type ArchiveError struct {
	Bucket string
	Key    string
	Err    error
}

func (e *ArchiveError) Error() string {
	return fmt.Sprintf("put s3://%s/%s: %v", e.Bucket, e.Key, e.Err)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

func (e *ArchiveError) Is(target error) bool { return target == ErrArchive }

// failureReason classifies a delivery error for logs and metrics. An empty
// result means the error is not a delivery failure and must not trigger the
// fallback.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrRejected):
		return "rejected"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return ""
	}
}
