package vm

// Object is an instance of a class known to the runtime. Instances of
// generated shim classes keep their state in Fields; instances standing
// in for host values carry the backing value in Host.
type Object struct {
	Class  string
	Fields map[string]any
	Host   any
}

// NewObject allocates an uninitialized instance of the named class.
func NewObject(class string) *Object {
	return &Object{Class: class, Fields: make(map[string]any)}
}

// Unwrap converts an interpreter value to its host form: host-backed
// objects yield their backing value, everything else passes through.
func Unwrap(v any) any {
	if o, ok := v.(*Object); ok && o.Host != nil {
		return o.Host
	}
	return v
}

func unwrapAll(vals []any) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = Unwrap(v)
	}
	return out
}
