package member

// Shape identifies the wrapper form a member is validated against.
type Shape int

const (
	ShapeConsumer Shape = iota
	ShapeSupplierMethod
	ShapeSupplierField
	ShapeConstructor
)

func (s Shape) String() string {
	switch s {
	case ShapeConsumer:
		return "consumer"
	case ShapeSupplierMethod, ShapeSupplierField:
		return "supplier"
	case ShapeConstructor:
		return "constructor invoker"
	default:
		return "unknown"
	}
}

// Validate checks every rule a member must satisfy before generation
// starts; nothing is emitted or cached for a member that fails here.
// Accessibility is checked before the shape rules so the reported reason
// is stable.
func Validate(d Descriptor, shape Shape) error {
	reject := func(reason error) error {
		return &ValidationError{Shape: shape, Member: d.String(), Reason: reason}
	}

	if d.owner != nil && !exportedOwner(d.owner) {
		return reject(ErrNotPublicDeclaringType)
	}
	if d.kind == KindField && !d.static && d.field.PkgPath != "" {
		return reject(ErrNotPublicMember)
	}
	if !exportedName(d.name) {
		return reject(ErrNotPublicMember)
	}

	switch shape {
	case ShapeConsumer:
		if len(d.params) != 1 {
			return reject(ErrArityMismatch)
		}
		if d.outs != 0 {
			return reject(ErrReturnTypeMismatch)
		}
	case ShapeSupplierMethod:
		if len(d.params) != 0 {
			return reject(ErrArityMismatch)
		}
		if d.outs != 1 {
			return reject(ErrReturnTypeMismatch)
		}
	case ShapeSupplierField, ShapeConstructor:
		// Field reads always produce exactly one value, and constructor
		// arity is whatever the constructor declares.
	}

	return nil
}
