package wrapper

import (
	"fmt"
	"reflect"
)

// BindingModeError reports a wrapper used against its member's binding
// mode: invoking an instance-member wrapper without a target, or binding
// a static-member wrapper to one.
type BindingModeError struct {
	Member string
	Static bool
}

func (e *BindingModeError) Error() string {
	if e.Static {
		return fmt.Sprintf("wrapper for %s is static and cannot be bound to a target", e.Member)
	}
	return fmt.Sprintf("wrapper for %s wraps an instance member and requires a target", e.Member)
}

// TargetTypeError reports a bind target incompatible with the wrapped
// member's owner type.
type TargetTypeError struct {
	Member string
	Want   reflect.Type
	Got    reflect.Type
}

func (e *TargetTypeError) Error() string {
	return fmt.Sprintf("cannot bind wrapper for %s to a target of type %s, requires %s", e.Member, e.Got, e.Want)
}
