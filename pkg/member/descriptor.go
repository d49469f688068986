// Package member describes the methods, fields, functions and constructors
// that wrappers are generated for. A Descriptor is an immutable snapshot of
// one member, captured from the runtime's reflection facilities; it carries
// both the symbolic identity used inside emitted artifacts and the
// reflective handle used to dispatch to the member at execution time.
package member

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind discriminates what sort of member a Descriptor wraps.
type Kind int

const (
	KindMethod Kind = iota + 1
	KindField
	KindConstructor
)

func (k Kind) String() string {
	switch k {
	case KindMethod:
		return "method"
	case KindField:
		return "field"
	case KindConstructor:
		return "constructor"
	default:
		return "unknown"
	}
}

// Descriptor is an immutable description of a wrappable member. Build one
// with ForMethod, ForFunc, ForField, ForVar or ForConstructor; never
// construct it directly.
type Descriptor struct {
	kind   Kind
	static bool
	owner  reflect.Type // nil for package-level members
	pkg    string       // owning package path for package-level members
	name   string
	params []reflect.Type
	result reflect.Type // nil when the member yields no value
	outs   int          // raw result count, for shape validation

	method reflect.Method
	field  reflect.StructField
	fn     reflect.Value
	varPtr reflect.Value
}

// Key is the comparable identity of a member, used to memoize wrappers.
type Key struct {
	Kind   Kind
	Owner  reflect.Type
	Name   string
	Addr   uintptr
	Static bool
}

// ForMethod describes the exported method named name on the type of owner.
// owner may be a sample value or a reflect.Type; pointer-receiver methods
// require a pointer type.
func ForMethod(owner any, name string) (Descriptor, error) {
	t := typeOf(owner)
	if t == nil {
		return Descriptor{}, fmt.Errorf("member: nil owner for method %q", name)
	}
	m, ok := t.MethodByName(name)
	if !ok {
		return Descriptor{}, fmt.Errorf("member: method %s not found on %s", name, t)
	}
	// Interface methods carry no Func value; dispatch needs a concrete
	// receiver type.
	if !m.Func.IsValid() {
		return Descriptor{}, fmt.Errorf("member: %s is an interface; method %s needs a concrete owner type", t, name)
	}

	mt := m.Func.Type()
	params := make([]reflect.Type, 0, mt.NumIn()-1)
	for i := 1; i < mt.NumIn(); i++ {
		params = append(params, mt.In(i))
	}

	d := Descriptor{
		kind:   KindMethod,
		owner:  t,
		name:   name,
		params: params,
		outs:   mt.NumOut(),
		method: m,
	}
	if mt.NumOut() > 0 {
		d.result = mt.Out(0)
	}
	return d, nil
}

// ForFunc describes a package-level function ("static method"). The
// function's package and name are recovered through the runtime; anonymous
// functions therefore surface as non-public members and are rejected by
// validation.
func ForFunc(fn any) (Descriptor, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return Descriptor{}, fmt.Errorf("member: %T is not a function", fn)
	}

	pkg, name := splitFuncName(runtime.FuncForPC(v.Pointer()).Name())

	ft := v.Type()
	params := make([]reflect.Type, 0, ft.NumIn())
	for i := 0; i < ft.NumIn(); i++ {
		params = append(params, ft.In(i))
	}

	d := Descriptor{
		kind:   KindMethod,
		static: true,
		pkg:    pkg,
		name:   name,
		params: params,
		outs:   ft.NumOut(),
		fn:     v,
	}
	if ft.NumOut() > 0 {
		d.result = ft.Out(0)
	}
	return d, nil
}

// ForField describes the struct field named name on the type of owner.
// owner may be a sample value, a pointer to one, or a reflect.Type.
func ForField(owner any, name string) (Descriptor, error) {
	t := typeOf(owner)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return Descriptor{}, fmt.Errorf("member: owner %v is not a struct type", typeOf(owner))
	}
	f, ok := t.FieldByName(name)
	if !ok {
		return Descriptor{}, fmt.Errorf("member: field %s not found on %s", name, t)
	}

	return Descriptor{
		kind:   KindField,
		owner:  t,
		name:   name,
		result: f.Type,
		outs:   1,
		field:  f,
	}, nil
}

// ForVar describes a package-level variable ("static field"). The name may
// be qualified ("pkg.Answer"); ptr must be a non-nil pointer to the
// variable, and reads always observe its current value.
func ForVar(name string, ptr any) (Descriptor, error) {
	v := reflect.ValueOf(ptr)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return Descriptor{}, fmt.Errorf("member: var %q requires a non-nil pointer, got %T", name, ptr)
	}

	pkg := "go.pkg"
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		pkg, name = name[:i], name[i+1:]
	}

	return Descriptor{
		kind:   KindField,
		static: true,
		pkg:    pkg,
		name:   name,
		result: v.Type().Elem(),
		outs:   1,
		varPtr: v,
	}, nil
}

// ForConstructor describes a constructor: a function with exactly one
// result, owned by that result type.
func ForConstructor(fn any) (Descriptor, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return Descriptor{}, fmt.Errorf("member: %T is not a function", fn)
	}
	ft := v.Type()
	if ft.NumOut() != 1 {
		return Descriptor{}, fmt.Errorf("member: constructor must return exactly one value, %s returns %d", ft, ft.NumOut())
	}

	_, name := splitFuncName(runtime.FuncForPC(v.Pointer()).Name())

	params := make([]reflect.Type, 0, ft.NumIn())
	for i := 0; i < ft.NumIn(); i++ {
		params = append(params, ft.In(i))
	}

	return Descriptor{
		kind:   KindConstructor,
		static: true,
		owner:  ft.Out(0),
		name:   name,
		params: params,
		result: ft.Out(0),
		outs:   1,
		fn:     v,
	}, nil
}

// Kind returns the member kind.
func (d Descriptor) Kind() Kind { return d.kind }

// IsStatic reports whether the member is package-level (no instance
// binding required). Constructors are always static.
func (d Descriptor) IsStatic() bool { return d.static }

// Owner returns the owning type, or nil for package-level members.
func (d Descriptor) Owner() reflect.Type { return d.owner }

// Name returns the member's name.
func (d Descriptor) Name() string { return d.name }

// ParameterTypes returns a copy of the ordered parameter types.
func (d Descriptor) ParameterTypes() []reflect.Type {
	out := make([]reflect.Type, len(d.params))
	copy(out, d.params)
	return out
}

// ResultType returns the value type produced by the member, or nil when
// it yields no value.
func (d Descriptor) ResultType() reflect.Type { return d.result }

// Key returns the comparable identity used to memoize wrappers.
func (d Descriptor) Key() Key {
	k := Key{Kind: d.kind, Owner: d.owner, Name: d.name, Static: d.static}
	if d.fn.IsValid() {
		k.Addr = d.fn.Pointer()
	} else if d.varPtr.IsValid() {
		k.Addr = d.varPtr.Pointer()
	}
	return k
}

// String renders the member for diagnostics; every wrapper failure message
// embeds it.
func (d Descriptor) String() string {
	var b strings.Builder
	b.WriteString(d.kind.String())
	b.WriteByte(' ')
	b.WriteString(d.ownerLabel())
	b.WriteByte('.')
	b.WriteString(d.name)
	switch d.kind {
	case KindMethod, KindConstructor:
		b.WriteByte('(')
		for i, p := range d.params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.String())
		}
		b.WriteByte(')')
		if d.result != nil {
			b.WriteByte(' ')
			b.WriteString(d.result.String())
		}
	case KindField:
		b.WriteByte(' ')
		b.WriteString(d.result.String())
	}
	return b.String()
}

func (d Descriptor) ownerLabel() string {
	if d.owner != nil {
		return d.owner.String()
	}
	return d.pkg
}

func typeOf(owner any) reflect.Type {
	if t, ok := owner.(reflect.Type); ok {
		return t
	}
	return reflect.TypeOf(owner)
}

// splitFuncName splits a runtime symbol name ("path/to/pkg.Name",
// possibly with ".funcN" or "-fm" decorations) into package and name.
func splitFuncName(full string) (pkg, name string) {
	tail := full
	if i := strings.LastIndexByte(full, '/'); i >= 0 {
		tail = full[i+1:]
	}
	dot := strings.IndexByte(tail, '.')
	if dot < 0 {
		return "go.pkg", strings.TrimSuffix(tail, "-fm")
	}
	pkg = full[:len(full)-len(tail)+dot]
	name = strings.TrimSuffix(tail[dot+1:], "-fm")
	return pkg, name
}

// exportedName reports whether the last dot-separated segment of name is
// an exported identifier. Closure symbols like "Parent.func1" are not.
func exportedName(name string) bool {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// exportedOwner reports whether t is a named, exported type. Pointers are
// followed to their element type.
func exportedOwner(t reflect.Type) bool {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(t.Name())
	return unicode.IsUpper(r)
}
