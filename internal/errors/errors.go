package errors

import (
	"errors"
	"fmt"
)

// Wrapf wraps err with context. A nil err stays nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Join returns sentinel wrapped together with the detail error, so that errors.Is
// matches both.
func Join(sentinel error, detail error) error {
	if detail == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, detail)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
