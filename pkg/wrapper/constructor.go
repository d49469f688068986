package wrapper

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/shimforge/shimforge/pkg/emit"
	"github.com/shimforge/shimforge/pkg/member"
	"github.com/shimforge/shimforge/pkg/vm"
)

const erasedInvokeDesc = "(" + emit.ObjectArrayDesc + ")" + emit.ObjectDesc

// ConstructorInvoker is a generated adapter around a constructor: a
// function returning exactly one value. Invoke unpacks its boxed
// arguments, checks each against the declared parameter type and runs
// the constructor.
type ConstructorInvoker struct {
	d    member.Descriptor
	lt   *vm.LoadedType
	name string
	inst *vm.Object
}

// ConstructorOf wraps a constructor function.
func (r *Runtime) ConstructorOf(fn any) (*ConstructorInvoker, error) {
	d, err := member.ForConstructor(fn)
	if err != nil {
		return nil, err
	}
	return r.wrapConstructor(d)
}

func (r *Runtime) wrapConstructor(d member.Descriptor) (*ConstructorInvoker, error) {
	if r.verErr != nil {
		return nil, r.verErr
	}
	if err := member.Validate(d, member.ShapeConstructor); err != nil {
		return nil, err
	}
	return r.constructors.get(d.Key(), func() (*ConstructorInvoker, error) {
		name := r.names.constructorName(d)
		r.bindReferenced(d)
		m := emit.DescribeMember(d)

		r.log.Debug("generating constructor invoker",
			zap.String("member", d.String()),
			zap.String("class", name),
			zap.Int("parameters", len(m.Params)))

		lt, err := r.define(name, func() emit.Artifact {
			return r.emitter.Constructor(name, m)
		})
		if err != nil {
			return nil, err
		}

		// Class initialization installed the singleton at define time.
		v, ok := lt.Static(emit.SingletonField)
		if !ok {
			return nil, fmt.Errorf("wrapper: %s did not initialize its singleton", name)
		}
		inst, ok := v.(*vm.Object)
		if !ok {
			return nil, fmt.Errorf("wrapper: %s singleton has unexpected type %T", name, v)
		}
		return &ConstructorInvoker{d: d, lt: lt, name: name, inst: inst}, nil
	})
}

// Invoke runs the constructor with the given arguments, in declaration
// order, and returns the constructed value. Argument type mismatches
// surface as cast errors; missing arguments as out-of-range errors.
func (ci *ConstructorInvoker) Invoke(args ...any) (any, error) {
	out, err := ci.lt.Call(ci.inst, emit.MethodInvoke, erasedInvokeDesc, args)
	if err != nil {
		return nil, err
	}
	return vm.Unwrap(out), nil
}

// ParameterTypes returns the constructor's parameter types in order.
func (ci *ConstructorInvoker) ParameterTypes() []reflect.Type {
	return ci.d.ParameterTypes()
}

// ResultType returns the constructed type.
func (ci *ConstructorInvoker) ResultType() reflect.Type { return ci.d.ResultType() }

// GeneratedName returns the generated class name backing this invoker.
func (ci *ConstructorInvoker) GeneratedName() string { return ci.name }

// ArtifactBytes returns a copy of the generated class bytes.
func (ci *ConstructorInvoker) ArtifactBytes() []byte {
	return append([]byte(nil), ci.lt.Bytes...)
}

// ConstructorOf wraps a constructor function using the default runtime.
func ConstructorOf(fn any) (*ConstructorInvoker, error) {
	return Default().ConstructorOf(fn)
}
