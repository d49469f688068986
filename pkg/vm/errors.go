// Package vm executes shim class artifacts. A Loader defines each class
// at most once, a Registry binds symbolic member references to host
// members, and a small interpreter runs the straight-line trampoline
// bodies the emitter produces.
package vm

import "fmt"

// CastError reports a checkcast failure: a value that does not conform
// to the class named in the instruction.
type CastError struct {
	Value any
	Want  string
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cannot cast value of type %T to %s", e.Value, e.Want)
}

// OutOfRangeError reports an argument array access past its end.
type OutOfRangeError struct {
	Index int
	Len   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("argument index %d out of range for %d arguments", e.Index, e.Len)
}
