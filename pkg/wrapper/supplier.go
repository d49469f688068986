package wrapper

import (
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/shimforge/shimforge/pkg/emit"
	"github.com/shimforge/shimforge/pkg/member"
	"github.com/shimforge/shimforge/pkg/vm"
)

const erasedGetDesc = "()" + emit.ObjectDesc

// Supplier is a generated zero-argument wrapper producing the value of a
// member: the result of a niladic method or function, or the current
// value of a field or package-level variable. Field-backed suppliers
// re-read the member on every Get.
type Supplier struct {
	d    member.Descriptor
	lt   *vm.LoadedType
	name string

	instOnce sync.Once
	inst     *vm.Object
	instErr  error
}

// SupplierOf wraps the named zero-argument method of owner's type.
func (r *Runtime) SupplierOf(owner any, method string) (*Supplier, error) {
	d, err := member.ForMethod(owner, method)
	if err != nil {
		return nil, err
	}
	return r.wrapSupplier(d, member.ShapeSupplierMethod)
}

// SupplierOfFunc wraps a package-level zero-argument function.
func (r *Runtime) SupplierOfFunc(fn any) (*Supplier, error) {
	d, err := member.ForFunc(fn)
	if err != nil {
		return nil, err
	}
	return r.wrapSupplier(d, member.ShapeSupplierMethod)
}

// SupplierOfField wraps the named struct field of owner's type.
func (r *Runtime) SupplierOfField(owner any, field string) (*Supplier, error) {
	d, err := member.ForField(owner, field)
	if err != nil {
		return nil, err
	}
	return r.wrapSupplier(d, member.ShapeSupplierField)
}

// SupplierOfVar wraps a package-level variable through a pointer to it.
// The name may carry a package qualifier ("config.PoolSize").
func (r *Runtime) SupplierOfVar(name string, ptr any) (*Supplier, error) {
	d, err := member.ForVar(name, ptr)
	if err != nil {
		return nil, err
	}
	return r.wrapSupplier(d, member.ShapeSupplierField)
}

func (r *Runtime) wrapSupplier(d member.Descriptor, shape member.Shape) (*Supplier, error) {
	if r.verErr != nil {
		return nil, r.verErr
	}
	if err := member.Validate(d, shape); err != nil {
		return nil, err
	}
	return r.suppliers.get(d.Key(), func() (*Supplier, error) {
		name := r.names.wrapperName("Supplier", d)
		r.bindReferenced(d)
		m := emit.DescribeMember(d)

		r.log.Debug("generating supplier wrapper",
			zap.String("member", d.String()),
			zap.String("class", name),
			zap.Bool("field", d.Kind() == member.KindField))

		lt, err := r.define(name, func() emit.Artifact {
			if d.Kind() == member.KindField {
				return r.emitter.SupplierField(name, m)
			}
			return r.emitter.SupplierMethod(name, m)
		})
		if err != nil {
			return nil, err
		}
		return &Supplier{d: d, lt: lt, name: name}, nil
	})
}

// Get produces the member's value through a static wrapper.
func (s *Supplier) Get() (any, error) {
	if !s.d.IsStatic() {
		return nil, &BindingModeError{Member: s.d.String()}
	}
	inst, err := s.staticInstance()
	if err != nil {
		return nil, err
	}
	out, err := s.lt.Call(inst, emit.MethodGet, erasedGetDesc)
	if err != nil {
		return nil, err
	}
	return vm.Unwrap(out), nil
}

// OnTarget binds an instance-member wrapper to a target, returning a
// fresh adapter backed by its own generated instance.
func (s *Supplier) OnTarget(target any) (*BoundSupplier, error) {
	if s.d.IsStatic() {
		return nil, &BindingModeError{Member: s.d.String(), Static: true}
	}
	bound, err := normalizeTarget(s.d, target)
	if err != nil {
		return nil, err
	}
	obj, err := s.lt.NewInstance(bound)
	if err != nil {
		return nil, err
	}
	return &BoundSupplier{s: s, obj: obj}, nil
}

// IsStatic reports the wrapper's binding mode.
func (s *Supplier) IsStatic() bool { return s.d.IsStatic() }

// WrapsField reports whether the supplier reads a field or variable
// rather than calling a method.
func (s *Supplier) WrapsField() bool { return s.d.Kind() == member.KindField }

// ResultType returns the type of the produced value.
func (s *Supplier) ResultType() reflect.Type { return s.d.ResultType() }

// GeneratedName returns the generated class name backing this wrapper.
func (s *Supplier) GeneratedName() string { return s.name }

// ArtifactBytes returns a copy of the generated class bytes.
func (s *Supplier) ArtifactBytes() []byte {
	return append([]byte(nil), s.lt.Bytes...)
}

func (s *Supplier) staticInstance() (*vm.Object, error) {
	s.instOnce.Do(func() {
		s.inst, s.instErr = s.lt.NewInstance()
	})
	return s.inst, s.instErr
}

// BoundSupplier is a supplier bound to one target.
type BoundSupplier struct {
	s   *Supplier
	obj *vm.Object
}

// Get produces the member's value from the bound target.
func (b *BoundSupplier) Get() (any, error) {
	out, err := b.s.lt.Call(b.obj, emit.MethodGet, erasedGetDesc)
	if err != nil {
		return nil, err
	}
	return vm.Unwrap(out), nil
}

// SupplierOf wraps a zero-argument method using the default runtime.
func SupplierOf(owner any, method string) (*Supplier, error) {
	return Default().SupplierOf(owner, method)
}

// SupplierOfFunc wraps a package-level function using the default
// runtime.
func SupplierOfFunc(fn any) (*Supplier, error) {
	return Default().SupplierOfFunc(fn)
}

// SupplierOfField wraps a struct field using the default runtime.
func SupplierOfField(owner any, field string) (*Supplier, error) {
	return Default().SupplierOfField(owner, field)
}

// SupplierOfVar wraps a package-level variable using the default
// runtime.
func SupplierOfVar(name string, ptr any) (*Supplier, error) {
	return Default().SupplierOfVar(name, ptr)
}
