package loan

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDuration   = errors.New("duration must be between 1 and 15 days")
	ErrUserNotActive     = errors.New("user is not active")
	ErrLoanLimitExceeded = errors.New("user has too many active loans")
	ErrBookNotAvailable  = errors.New("book is not available")
	ErrLoanNotFound      = errors.New("loan not found")
	ErrLoanNotActive     = errors.New("loan is not active")

	ErrRemoteUnavailable = errors.New("remote service unavailable")
)

// RemoteUnavailableError is returned by the remote clients once every attempt
// of a call has failed. Err holds the cause of the last attempt.
type RemoteUnavailableError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s after %d attempt(s): %v", e.Op, ErrRemoteUnavailable, e.Attempts, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error { return e.Err }

func (e *RemoteUnavailableError) Is(target error) bool { return target == ErrRemoteUnavailable }

// IsValidation reports whether err is one of the eligibility failures of a create.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrUserNotActive) ||
		errors.Is(err, ErrLoanLimitExceeded) ||
		errors.Is(err, ErrBookNotAvailable)
}

// IsNotFound reports whether err means the loan cannot be acted on.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLoanNotFound) || errors.Is(err, ErrLoanNotActive)
}
