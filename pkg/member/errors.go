package member

import (
	"errors"
	"fmt"
)

// Reasons a member can be rejected for a wrapper shape. ValidationError
// wraps one of these, so callers can match with errors.Is.
var (
	ErrNotPublicDeclaringType = errors.New("its declaring type is not public")
	ErrNotPublicMember        = errors.New("it is not public")
	ErrArityMismatch          = errors.New("its parameter count does not match the wrapper shape")
	ErrReturnTypeMismatch     = errors.New("its return type does not match the wrapper shape")
)

// ValidationError reports that a member cannot back a given wrapper shape.
type ValidationError struct {
	Shape  Shape
	Member string
	Reason error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("cannot create a %s wrapper for %s, as %s", e.Shape, e.Member, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.Reason }
