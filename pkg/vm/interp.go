package vm

import (
	"fmt"
	"reflect"

	"github.com/shimforge/shimforge/pkg/classfile"
	"github.com/shimforge/shimforge/pkg/emit"
)

// exec interprets one method body. Structural verification already
// bounded the stack and locals, so the loop only has to produce semantic
// errors: failed casts, out-of-range argument access, and unresolved
// references.
func (t *LoadedType) exec(m *classfile.MethodInfo, locals []any) (any, error) {
	f := NewFrame(m.Code.Code, m.Code.MaxStack, m.Code.MaxLocals, locals)
	pool := t.File.ConstantPool

	for !f.End() {
		op := f.ReadU8()
		switch op {
		case classfile.OpAconstNull:
			f.Push(nil)

		case classfile.OpIconst0, classfile.OpIconst1, classfile.OpIconst2,
			classfile.OpIconst3, classfile.OpIconst4, classfile.OpIconst5:
			f.Push(int(op - classfile.OpIconst0))

		case classfile.OpBipush:
			f.Push(int(int8(f.ReadU8())))

		case classfile.OpAload:
			f.Push(f.Local(int(f.ReadU8())))

		case classfile.OpAload0, classfile.OpAload1, classfile.OpAload2, classfile.OpAload3:
			f.Push(f.Local(int(op - classfile.OpAload0)))

		case classfile.OpAaload:
			idxv := f.Pop()
			arrv := f.Pop()
			idx, ok := idxv.(int)
			if !ok {
				return nil, fmt.Errorf("aaload index is %T, not int", idxv)
			}
			arr, ok := arrv.([]any)
			if !ok {
				return nil, fmt.Errorf("aaload target is %T, not an argument array", arrv)
			}
			if idx < 0 || idx >= len(arr) {
				return nil, &OutOfRangeError{Index: idx, Len: len(arr)}
			}
			f.Push(arr[idx])

		case classfile.OpDup:
			f.Push(f.Peek())

		case classfile.OpNew:
			name, err := classfile.GetClassName(pool, f.ReadU16())
			if err != nil {
				return nil, err
			}
			f.Push(NewObject(name))

		case classfile.OpCheckcast:
			name, err := classfile.GetClassName(pool, f.ReadU16())
			if err != nil {
				return nil, err
			}
			if err := t.checkCast(f.Peek(), name); err != nil {
				return nil, err
			}

		case classfile.OpGetfield:
			ref, err := classfile.ResolveMemberRef(pool, f.ReadU16())
			if err != nil {
				return nil, err
			}
			v, err := t.getField(f.Pop(), ref)
			if err != nil {
				return nil, err
			}
			f.Push(v)

		case classfile.OpPutfield:
			ref, err := classfile.ResolveMemberRef(pool, f.ReadU16())
			if err != nil {
				return nil, err
			}
			val := f.Pop()
			recv := f.Pop()
			obj, ok := recv.(*Object)
			if !ok {
				return nil, fmt.Errorf("putfield %s.%s on non-object receiver %T", ref.ClassName, ref.Name, recv)
			}
			obj.Fields[ref.Name] = val

		case classfile.OpGetstatic:
			ref, err := classfile.ResolveMemberRef(pool, f.ReadU16())
			if err != nil {
				return nil, err
			}
			if lt, ok := t.sibling(ref.ClassName); ok {
				v, _ := lt.Static(ref.Name)
				f.Push(v)
				break
			}
			d, ok := t.loader.reg.Member(ref.ClassName, ref.Name, ref.Descriptor)
			if !ok {
				return nil, unresolved(ref)
			}
			v, err := d.ReadVar()
			if err != nil {
				return nil, err
			}
			f.Push(v)

		case classfile.OpPutstatic:
			ref, err := classfile.ResolveMemberRef(pool, f.ReadU16())
			if err != nil {
				return nil, err
			}
			lt, ok := t.sibling(ref.ClassName)
			if !ok {
				return nil, fmt.Errorf("putstatic into foreign class %s", ref.ClassName)
			}
			lt.setStatic(ref.Name, f.Pop())

		case classfile.OpInvokevirtual:
			ref, argc, returns, err := t.invocation(pool, f.ReadU16())
			if err != nil {
				return nil, err
			}
			args := f.popArgs(argc)
			recv := f.Pop()

			var ret any
			if lt, ok := t.sibling(ref.ClassName); ok {
				callee := lt.File.FindMethod(ref.Name, ref.Descriptor)
				if callee == nil {
					return nil, fmt.Errorf("%s has no method %s%s", ref.ClassName, ref.Name, ref.Descriptor)
				}
				ret, err = lt.exec(callee, append([]any{recv}, args...))
			} else {
				d, ok := t.loader.reg.Member(ref.ClassName, ref.Name, ref.Descriptor)
				if !ok {
					return nil, unresolved(ref)
				}
				ret, err = d.CallOn(Unwrap(recv), unwrapAll(args))
			}
			if err != nil {
				return nil, err
			}
			if returns {
				f.Push(ret)
			}

		case classfile.OpInvokespecial:
			ref, argc, _, err := t.invocation(pool, f.ReadU16())
			if err != nil {
				return nil, err
			}
			args := f.popArgs(argc)
			recv := f.Pop()

			switch {
			case ref.ClassName == emit.ObjectClass && ref.Name == "<init>":
				// Root constructor; nothing to initialize.

			default:
				if lt, ok := t.sibling(ref.ClassName); ok {
					callee := lt.File.FindMethod(ref.Name, ref.Descriptor)
					if callee == nil {
						return nil, fmt.Errorf("%s has no method %s%s", ref.ClassName, ref.Name, ref.Descriptor)
					}
					if _, err := lt.exec(callee, append([]any{recv}, args...)); err != nil {
						return nil, err
					}
					break
				}
				// Host constructor: run it and back the fresh object
				// with the constructed value.
				d, ok := t.loader.reg.Member(ref.ClassName, ref.Name, ref.Descriptor)
				if !ok {
					return nil, unresolved(ref)
				}
				out, err := d.CallStatic(unwrapAll(args))
				if err != nil {
					return nil, err
				}
				obj, ok := recv.(*Object)
				if !ok {
					return nil, fmt.Errorf("invokespecial %s.<init> on non-object receiver %T", ref.ClassName, recv)
				}
				obj.Host = out
			}

		case classfile.OpInvokestatic:
			ref, argc, returns, err := t.invocation(pool, f.ReadU16())
			if err != nil {
				return nil, err
			}
			args := f.popArgs(argc)

			d, ok := t.loader.reg.Member(ref.ClassName, ref.Name, ref.Descriptor)
			if !ok {
				return nil, unresolved(ref)
			}
			ret, err := d.CallStatic(unwrapAll(args))
			if err != nil {
				return nil, err
			}
			if returns {
				f.Push(ret)
			}

		case classfile.OpAreturn:
			return f.Pop(), nil

		case classfile.OpReturn:
			return nil, nil

		default:
			return nil, fmt.Errorf("unknown opcode 0x%02X", op)
		}
	}
	return nil, fmt.Errorf("%s.%s fell off the end of its body", t.Name, m.Name)
}

// sibling resolves a class name against this type and the loader. The
// defining class resolves to itself so <clinit> and constructors can
// reference it before the definition is published.
func (t *LoadedType) sibling(name string) (*LoadedType, bool) {
	if name == t.Name {
		return t, true
	}
	return t.loader.Lookup(name)
}

func (t *LoadedType) invocation(pool []classfile.ConstantPoolEntry, idx uint16) (*classfile.MemberRefInfo, int, bool, error) {
	ref, err := classfile.ResolveMemberRef(pool, idx)
	if err != nil {
		return nil, 0, false, err
	}
	desc, err := classfile.ParseMethodDescriptor(ref.Descriptor)
	if err != nil {
		return nil, 0, false, err
	}
	return ref, len(desc.Params), desc.Returns(), nil
}

func (t *LoadedType) checkCast(v any, name string) error {
	if v == nil || name == emit.ObjectClass {
		return nil
	}
	if obj, ok := v.(*Object); ok && obj.Host == nil {
		if obj.Class == name {
			return nil
		}
		return &CastError{Value: obj, Want: name}
	}

	host := Unwrap(v)
	rt, ok := t.loader.reg.ResolveClass(name)
	if !ok {
		return fmt.Errorf("checkcast against unregistered class %s", name)
	}
	if !reflect.TypeOf(host).AssignableTo(rt) {
		return &CastError{Value: host, Want: name}
	}
	return nil
}

func (t *LoadedType) getField(recv any, ref *classfile.MemberRefInfo) (any, error) {
	if _, ok := t.sibling(ref.ClassName); ok {
		obj, isObj := recv.(*Object)
		if !isObj {
			return nil, fmt.Errorf("getfield %s.%s on non-object receiver %T", ref.ClassName, ref.Name, recv)
		}
		return obj.Fields[ref.Name], nil
	}

	d, ok := t.loader.reg.Member(ref.ClassName, ref.Name, ref.Descriptor)
	if !ok {
		return nil, unresolved(ref)
	}
	return d.ReadField(Unwrap(recv))
}

func unresolved(ref *classfile.MemberRefInfo) error {
	return fmt.Errorf("unresolved member reference %s.%s:%s", ref.ClassName, ref.Name, ref.Descriptor)
}
