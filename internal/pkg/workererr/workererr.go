// Package workererr distinguishes user-caused failures (bad config,
// rejected input, wrong password — reported as USER_INPUT_INVALID)
// from everything else (reported as SERVICE_CAPACITY_TEMPORARY) with a
// single typed sentinel error the worker loop classifies with
// errors.As.
package workererr

import (
	"errors"
	"fmt"
)

// userError marks a failure as caused by the job's own input/config
// rather than by the worker's environment or the queue service.
type userError struct {
	msg string
}

func (e *userError) Error() string { return e.msg }

// User wraps msg as a user error.
func User(msg string) error {
	return &userError{msg: msg}
}

// Userf is the fmt.Errorf-style equivalent of User.
func Userf(format string, args ...interface{}) error {
	return &userError{msg: fmt.Sprintf(format, args...)}
}

// IsUser reports whether err (or something it wraps) is a user error.
func IsUser(err error) bool {
	var ue *userError
	return errors.As(err, &ue)
}
