package dispatch

import (
	"errors"

	apperrors "technician-dispatch/internal/common/errors"
)

var (
	ErrRequestNotFound         = errors.New("REQUEST_NOT_FOUND")
	ErrMissingLocation         = errors.New("REQUEST_LOCATION_MISSING")
	ErrAlreadyAssigned         = errors.New("REQUEST_ALREADY_ASSIGNED")
	ErrTechnicianUnavailable   = errors.New("TECHNICIAN_UNAVAILABLE")
	ErrDirectoryUnavailable    = errors.New("DIRECTORY_UNAVAILABLE")
	ErrRequestStoreUnavailable = errors.New("REQUEST_STORE_UNAVAILABLE")
	ErrMatchTimeout            = errors.New("MATCH_TIMEOUT")
)

// IsConflict reports whether err means another writer got there first.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyAssigned) || errors.Is(err, ErrTechnicianUnavailable)
}

// IsRetryable reports whether retrying the same run later may succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrDirectoryUnavailable) ||
		errors.Is(err, ErrRequestStoreUnavailable) ||
		errors.Is(err, ErrMatchTimeout)
}

// ToStandardError converts an engine error into the shared error model used
// by the job worker and the HTTP API.
func ToStandardError(err error, requestID string) *apperrors.StandardError {
	var std *apperrors.StandardError
	switch {
	case errors.Is(err, ErrRequestNotFound):
		std = apperrors.NewRequestNotFoundError(requestID)
	case errors.Is(err, ErrMissingLocation):
		std = apperrors.NewRequestLocationMissingError(requestID)
	case errors.Is(err, ErrAlreadyAssigned):
		std = apperrors.NewRequestAlreadyAssignedError(requestID)
	case errors.Is(err, ErrTechnicianUnavailable):
		std = apperrors.NewTechnicianUnavailableError(err.Error())
	case errors.Is(err, ErrMatchTimeout):
		std = apperrors.NewMatchTimeoutError(err.Error())
	case errors.Is(err, ErrDirectoryUnavailable):
		std = apperrors.NewDirectoryUnavailableError(err)
	case errors.Is(err, ErrRequestStoreUnavailable):
		std = apperrors.NewRequestStoreUnavailableError(err)
	default:
		return apperrors.Normalize(err)
	}
	return std.WithCause(err)
}
