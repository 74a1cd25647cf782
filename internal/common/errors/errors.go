package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	// Request-level business errors. The caller's process branches on these.
	ErrCodeInvalidInput            ErrorCode = "INVALID_INPUT"
	ErrCodeRequestNotFound         ErrorCode = "REQUEST_NOT_FOUND"
	ErrCodeRequestLocationMissing  ErrorCode = "REQUEST_LOCATION_MISSING"
	ErrCodeRequestAlreadyAssigned  ErrorCode = "REQUEST_ALREADY_ASSIGNED"
	ErrCodeTechnicianUnavailable   ErrorCode = "TECHNICIAN_UNAVAILABLE"
	ErrCodeNoTechniciansAvailable  ErrorCode = "NO_TECHNICIANS_AVAILABLE"
	ErrCodeInvalidCoordinates      ErrorCode = "INVALID_COORDINATES"

	// Infrastructure errors. Retried by the job runtime.
	ErrCodeDirectoryUnavailable     ErrorCode = "DIRECTORY_UNAVAILABLE"
	ErrCodeRequestStoreUnavailable  ErrorCode = "REQUEST_STORE_UNAVAILABLE"
	ErrCodeMatchTimeout             ErrorCode = "MATCH_TIMEOUT"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeCacheUnavailable         ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeAuditIndexFailed         ErrorCode = "AUDIT_INDEX_FAILED"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the error the StandardError was built from, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithCause attaches the underlying error so errors.Is keeps working
// through the conversion.
func (e *StandardError) WithCause(err error) *StandardError {
	e.cause = err
	return e
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false)
}

func NewRequestNotFoundError(requestID string) *StandardError {
	return newError(ErrCodeRequestNotFound, "Maintenance request not found",
		fmt.Sprintf("requestId: %s", requestID), false)
}

func NewRequestLocationMissingError(requestID string) *StandardError {
	return newError(ErrCodeRequestLocationMissing, "Request location not available",
		fmt.Sprintf("requestId: %s", requestID), false)
}

func NewRequestAlreadyAssignedError(requestID string) *StandardError {
	return newError(ErrCodeRequestAlreadyAssigned, "Request is already assigned",
		fmt.Sprintf("requestId: %s", requestID), false)
}

func NewTechnicianUnavailableError(technicianID string) *StandardError {
	return newError(ErrCodeTechnicianUnavailable, "Technician is no longer available",
		fmt.Sprintf("technicianId: %s", technicianID), false)
}

func NewInvalidCoordinatesError(details string) *StandardError {
	return newError(ErrCodeInvalidCoordinates, "Invalid coordinates", details, false)
}

func NewDirectoryUnavailableError(err error) *StandardError {
	return newError(ErrCodeDirectoryUnavailable, "Technician directory unavailable", err.Error(), true)
}

func NewRequestStoreUnavailableError(err error) *StandardError {
	return newError(ErrCodeRequestStoreUnavailable, "Request store unavailable", err.Error(), true)
}

func NewMatchTimeoutError(details string) *StandardError {
	return newError(ErrCodeMatchTimeout, "Match run exceeded its deadline", details, true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Contact cache unavailable", err.Error(), true)
}

func NewAuditIndexFailedError(index string, err error) *StandardError {
	return newError(ErrCodeAuditIndexFailed, "Decision audit indexing failed",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodeRequestNotFound:          "REQUEST_NOT_FOUND",
	ErrCodeRequestLocationMissing:   "REQUEST_LOCATION_MISSING",
	ErrCodeRequestAlreadyAssigned:   "REQUEST_ALREADY_ASSIGNED",
	ErrCodeTechnicianUnavailable:    "TECHNICIAN_UNAVAILABLE",
	ErrCodeNoTechniciansAvailable:   "NO_TECHNICIANS_AVAILABLE",
	ErrCodeInvalidCoordinates:       "INVALID_COORDINATES",
	ErrCodeDirectoryUnavailable:     "DIRECTORY_UNAVAILABLE",
	ErrCodeRequestStoreUnavailable:  "REQUEST_STORE_UNAVAILABLE",
	ErrCodeMatchTimeout:             "MATCH_TIMEOUT",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDirectoryUnavailable,
		ErrCodeRequestStoreUnavailable,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeNotificationSendFailed:
		return 3

	case ErrCodeMatchTimeout,
		ErrCodeCacheUnavailable,
		ErrCodeAuditIndexFailed:
		return 2

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// AsStandardError unwraps err to a *StandardError when one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "REQUEST_"):
		return "REQUEST"
	case strings.Contains(codeStr, "TECHNICIAN") || strings.Contains(codeStr, "DIRECTORY"):
		return "DIRECTORY"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "CACHE"):
		return "DATABASE"
	case strings.Contains(codeStr, "AUDIT"):
		return "AUDIT"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "TIMEOUT"):
		return "TIMEOUT"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
