package llm

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrRefused indicates the model declined to answer a structured request.
var ErrRefused = errors.New("model refused")

// maxErrorBody caps how much of an error response is kept in messages.
const maxErrorBody = 200

// TransientError marks a failure the client retries, such as a dropped
// connection, a rate limit or a 5xx reply.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string { return e.err.Error() }

func (e *TransientError) Unwrap() error { return e.err }

// NewTransientError marks err as retryable.
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError marks a failure retrying cannot fix, such as bad credentials
// or a schema the endpoint rejects. The crawl stops on it.
type FatalError struct {
	err error
}

func (e *FatalError) Error() string { return e.err.Error() }

func (e *FatalError) Unwrap() error { return e.err }

// NewFatalError marks err as permanent.
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal reports whether err is permanent.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}

// StatusError is a non-200 reply from an oracle endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("oracle endpoint returned status %d: %s", e.StatusCode, e.Body)
}

// RetryableStatus reports whether an HTTP status code is worth retrying.
func RetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// ClassifyStatus wraps a non-200 reply as transient or fatal. The body is
// truncated so provider error pages do not flood the logs.
func ClassifyStatus(statusCode int, body []byte) error {
	text := string(body)
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	err := &StatusError{StatusCode: statusCode, Body: text}
	if RetryableStatus(statusCode) {
		return NewTransientError(err)
	}
	return NewFatalError(err)
}

// Refusal wraps a model's refusal text as a fatal ErrRefused.
func Refusal(reason string) error {
	return NewFatalError(fmt.Errorf("%w: %s", ErrRefused, reason))
}
