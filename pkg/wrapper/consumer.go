package wrapper

import (
	"reflect"
	"sync"

	"go.uber.org/zap"

	"github.com/shimforge/shimforge/pkg/emit"
	"github.com/shimforge/shimforge/pkg/member"
	"github.com/shimforge/shimforge/pkg/vm"
)

const erasedAcceptDesc = "(" + emit.ObjectDesc + ")V"

// Consumer is a generated unary wrapper around a void member taking one
// parameter. Static wrappers are invoked directly with Accept;
// instance-member wrappers must be bound with OnTarget first.
type Consumer struct {
	d    member.Descriptor
	lt   *vm.LoadedType
	name string

	instOnce sync.Once
	inst     *vm.Object
	instErr  error
}

// ConsumerOf wraps the named instance method of owner's type.
func (r *Runtime) ConsumerOf(owner any, method string) (*Consumer, error) {
	d, err := member.ForMethod(owner, method)
	if err != nil {
		return nil, err
	}
	return r.wrapConsumer(d)
}

// ConsumerOfFunc wraps a package-level function.
func (r *Runtime) ConsumerOfFunc(fn any) (*Consumer, error) {
	d, err := member.ForFunc(fn)
	if err != nil {
		return nil, err
	}
	return r.wrapConsumer(d)
}

func (r *Runtime) wrapConsumer(d member.Descriptor) (*Consumer, error) {
	if r.verErr != nil {
		return nil, r.verErr
	}
	if err := member.Validate(d, member.ShapeConsumer); err != nil {
		return nil, err
	}
	return r.consumers.get(d.Key(), func() (*Consumer, error) {
		name := r.names.wrapperName("Consumer", d)
		r.bindReferenced(d)
		m := emit.DescribeMember(d)

		r.log.Debug("generating consumer wrapper",
			zap.String("member", d.String()),
			zap.String("class", name))

		lt, err := r.define(name, func() emit.Artifact {
			return r.emitter.Consumer(name, m)
		})
		if err != nil {
			return nil, err
		}
		return &Consumer{d: d, lt: lt, name: name}, nil
	})
}

// Accept feeds a value to a static wrapper. The generated bridge checks
// the value against the member's parameter type before forwarding.
func (c *Consumer) Accept(v any) error {
	if !c.d.IsStatic() {
		return &BindingModeError{Member: c.d.String()}
	}
	inst, err := c.staticInstance()
	if err != nil {
		return err
	}
	_, err = c.lt.Call(inst, emit.MethodAccept, erasedAcceptDesc, v)
	return err
}

// OnTarget binds an instance-member wrapper to a target, returning a
// fresh adapter backed by its own generated instance.
func (c *Consumer) OnTarget(target any) (*BoundConsumer, error) {
	if c.d.IsStatic() {
		return nil, &BindingModeError{Member: c.d.String(), Static: true}
	}
	bound, err := normalizeTarget(c.d, target)
	if err != nil {
		return nil, err
	}
	obj, err := c.lt.NewInstance(bound)
	if err != nil {
		return nil, err
	}
	return &BoundConsumer{c: c, obj: obj}, nil
}

// IsStatic reports the wrapper's binding mode.
func (c *Consumer) IsStatic() bool { return c.d.IsStatic() }

// InputType returns the member's parameter type.
func (c *Consumer) InputType() reflect.Type { return c.d.ParameterTypes()[0] }

// GeneratedName returns the generated class name backing this wrapper.
func (c *Consumer) GeneratedName() string { return c.name }

// ArtifactBytes returns a copy of the generated class bytes.
func (c *Consumer) ArtifactBytes() []byte {
	return append([]byte(nil), c.lt.Bytes...)
}

func (c *Consumer) staticInstance() (*vm.Object, error) {
	c.instOnce.Do(func() {
		c.inst, c.instErr = c.lt.NewInstance()
	})
	return c.inst, c.instErr
}

// BoundConsumer is a consumer bound to one target.
type BoundConsumer struct {
	c   *Consumer
	obj *vm.Object
}

// Accept feeds a value to the member on the bound target.
func (b *BoundConsumer) Accept(v any) error {
	_, err := b.c.lt.Call(b.obj, emit.MethodAccept, erasedAcceptDesc, v)
	return err
}

// normalizeTarget checks a bind target against the member's owner type.
// A pointer to the owner type is accepted for both member kinds: field
// wrappers keep the pointer so later reads observe the target's current
// state, while method wrappers dereference it to match the receiver.
func normalizeTarget(d member.Descriptor, target any) (any, error) {
	want := d.Owner()
	if target == nil {
		return nil, &TargetTypeError{Member: d.String(), Want: want}
	}
	got := reflect.TypeOf(target)
	if got.AssignableTo(want) {
		return target, nil
	}
	if got.Kind() == reflect.Pointer && got.Elem().AssignableTo(want) {
		if d.Kind() == member.KindField {
			return target, nil
		}
		v := reflect.ValueOf(target)
		if !v.IsNil() {
			return v.Elem().Interface(), nil
		}
	}
	return nil, &TargetTypeError{Member: d.String(), Want: want, Got: got}
}

// ConsumerOf wraps an instance method using the default runtime.
func ConsumerOf(owner any, method string) (*Consumer, error) {
	return Default().ConsumerOf(owner, method)
}

// ConsumerOfFunc wraps a package-level function using the default
// runtime.
func ConsumerOfFunc(fn any) (*Consumer, error) {
	return Default().ConsumerOfFunc(fn)
}
