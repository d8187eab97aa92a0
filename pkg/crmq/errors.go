package crmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
)

// APIError represents a single error from the CRM API.
type APIError struct {
	ErrorCode string   `json:"errorCode"        yaml:"errorCode"`
	Message   string   `json:"message"          yaml:"message"`
	Fields    []string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Message)
}

// ResponseError represents the error response body from the API.
type ResponseError struct {
	StatusCode int        `json:"-"      yaml:"-"`
	Errors     []APIError `json:"errors" yaml:"errors"`
}

// Error implements the error interface for ResponseError.
func (e *ResponseError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("unknown error (status %d)", e.StatusCode)
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	return fmt.Sprintf("multiple errors: %v", e.Errors)
}

// FirstError returns the first error or nil.
func (e *ResponseError) FirstError() *APIError {
	if len(e.Errors) > 0 {
		return &e.Errors[0]
	}

	return nil
}

// Common provider error codes.
const (
	ErrorCodeNotFound       = "NOT_FOUND"
	ErrorCodeInvalidSession = "INVALID_SESSION_ID"
	ErrorCodeInvalidQuery   = "MALFORMED_QUERY"
	ErrorCodeQueryTimeout   = "QUERY_TIMEOUT"
	ErrorCodeRequestLimit   = "REQUEST_LIMIT_EXCEEDED"
)

// timeoutMarker is the transport-level timeout text some providers surface
// verbatim in error messages.
const timeoutMarker = "ETIMEDOUT"

// Common static errors that can be wrapped with context.
var (
	ErrConfigRequired        = errors.New("config is required")
	ErrAPIEndpointRequired   = errors.New("API endpoint is required")
	ErrNoAuthURL             = errors.New("no auth URL found in API root response")
	ErrRootInfoRequestFailed = errors.New("root info request failed")
	ErrSkipTLSOnlyInDev      = errors.New("skipping TLS verification is only allowed in development mode")
	ErrJobTimeout            = errors.New("timed out waiting for job to complete")
	ErrJobFailed             = errors.New("job failed")
	ErrJobAborted            = errors.New("job aborted")
	ErrNoRecordsProvided     = errors.New("no records provided")
	ErrNoIDsProvided         = errors.New("no record ids provided")
	ErrNoMoreRecords         = errors.New("no more records to fetch")
)

// BulkQueryError is the fatal outcome of a bulk query: the retry budget was
// exhausted or the failure was not timeout-flagged. It replaces the
// process-wide fatal flag of earlier designs; callers short-circuit on it
// explicitly.
type BulkQueryError struct {
	Query    string
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *BulkQueryError) Error() string {
	return fmt.Sprintf("bulk query failed after %d attempt(s): %v", e.Attempts, e.Err)
}

// Unwrap returns the underlying error.
func (e *BulkQueryError) Unwrap() error {
	return e.Err
}

// BulkMutationError is a batch-level bulk mutation failure. Mutations are
// never retried automatically; retry policy belongs to the caller.
type BulkMutationError struct {
	Object    string
	Operation string
	JobID     string
	Err       error
}

// Error implements the error interface.
func (e *BulkMutationError) Error() string {
	return fmt.Sprintf("bulk %s of %s (job %s) failed: %v", e.Operation, e.Object, e.JobID, e.Err)
}

// Unwrap returns the underlying error.
func (e *BulkMutationError) Unwrap() error {
	return e.Err
}

// ToolingDeleteError is a job-level tooling delete failure. Partial failure
// of individual records is not an error; it is carried in the envelope.
type ToolingDeleteError struct {
	Object string
	Err    error
}

// Error implements the error interface.
func (e *ToolingDeleteError) Error() string {
	return fmt.Sprintf("tooling delete of %s failed: %v", e.Object, e.Err)
}

// Unwrap returns the underlying error.
func (e *ToolingDeleteError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is timeout-flagged. Timeout is the sole
// retryable condition for bulk queries.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrJobTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	apiErr := &APIError{}
	if errors.As(err, &apiErr) && apiErr.ErrorCode == ErrorCodeQueryTimeout {
		return true
	}

	errResp := &ResponseError{}
	if errors.As(err, &errResp) {
		first := errResp.FirstError()
		if first != nil && first.ErrorCode == ErrorCodeQueryTimeout {
			return true
		}
	}

	return strings.Contains(err.Error(), timeoutMarker)
}

// IsNotFound checks if the error is a not found error.
func IsNotFound(err error) bool {
	return hasErrorCode(err, ErrorCodeNotFound)
}

// IsUnauthorized checks if the error is an invalid/expired session error.
func IsUnauthorized(err error) bool {
	return hasErrorCode(err, ErrorCodeInvalidSession)
}

func hasErrorCode(err error, code string) bool {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode == code
	}

	errResp := &ResponseError{}
	if errors.As(err, &errResp) {
		first := errResp.FirstError()
		if first != nil {
			return first.ErrorCode == code
		}
	}

	return false
}

// ParseResponseError parses an error response body from JSON.
func ParseResponseError(data []byte) (*ResponseError, error) {
	var errResp ResponseError

	err := json.Unmarshal(data, &errResp)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal response error: %w", err)
	}

	return &errResp, nil
}
