package member

import (
	"fmt"
	"reflect"
)

// CallStatic invokes a package-level function or constructor with the
// given boxed arguments and returns its boxed result, or nil for a void
// function.
func (d Descriptor) CallStatic(args []any) (any, error) {
	if !d.fn.IsValid() {
		return nil, fmt.Errorf("member: %s is not statically callable", d)
	}
	in, err := d.convertArgs(d.fn.Type(), 0, args)
	if err != nil {
		return nil, err
	}
	return firstResult(d.fn.Call(in)), nil
}

// CallOn invokes an instance method on recv with the given boxed
// arguments.
func (d Descriptor) CallOn(recv any, args []any) (any, error) {
	if d.kind != KindMethod || d.static {
		return nil, fmt.Errorf("member: %s is not an instance method", d)
	}
	ft := d.method.Func.Type()
	rv, err := convert(ft.In(0), recv)
	if err != nil {
		return nil, fmt.Errorf("member: receiver for %s: %w", d, err)
	}
	in, err := d.convertArgs(ft, 1, args)
	if err != nil {
		return nil, err
	}
	return firstResult(d.method.Func.Call(append([]reflect.Value{rv}, in...))), nil
}

// ReadField reads the described struct field from recv, following
// pointers to the struct value.
func (d Descriptor) ReadField(recv any) (any, error) {
	if d.kind != KindField || d.static {
		return nil, fmt.Errorf("member: %s is not an instance field", d)
	}
	v := reflect.ValueOf(recv)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("member: nil receiver reading %s", d)
		}
		v = v.Elem()
	}
	if !v.IsValid() || v.Type() != d.owner {
		return nil, fmt.Errorf("member: receiver %T does not own %s", recv, d)
	}
	return v.FieldByIndex(d.field.Index).Interface(), nil
}

// ReadVar reads the current value of the described package-level
// variable. Every read observes the live value, never a snapshot.
func (d Descriptor) ReadVar() (any, error) {
	if !d.varPtr.IsValid() {
		return nil, fmt.Errorf("member: %s is not a package-level variable", d)
	}
	return d.varPtr.Elem().Interface(), nil
}

func (d Descriptor) convertArgs(ft reflect.Type, offset int, args []any) ([]reflect.Value, error) {
	if len(args) != ft.NumIn()-offset {
		return nil, fmt.Errorf("member: %s takes %d arguments, got %d", d, ft.NumIn()-offset, len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		v, err := convert(ft.In(i+offset), a)
		if err != nil {
			return nil, fmt.Errorf("member: argument %d for %s: %w", i, d, err)
		}
		in[i] = v
	}
	return in, nil
}

func convert(t reflect.Type, a any) (reflect.Value, error) {
	if a == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map,
			reflect.Chan, reflect.Func:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("nil is not assignable to %s", t)
	}
	v := reflect.ValueOf(a)
	if !v.Type().AssignableTo(t) {
		return reflect.Value{}, fmt.Errorf("%s is not assignable to %s", v.Type(), t)
	}
	return v, nil
}

func firstResult(rets []reflect.Value) any {
	if len(rets) == 0 {
		return nil
	}
	return rets[0].Interface()
}
