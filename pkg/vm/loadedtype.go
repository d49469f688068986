package vm

import (
	"fmt"
	"sync"

	"github.com/shimforge/shimforge/pkg/classfile"
)

// LoadedType is a defined shim class: its parsed form, the raw bytes it
// was defined from, and the values of its static fields.
type LoadedType struct {
	Name  string
	File  *classfile.ClassFile
	Bytes []byte

	loader *Loader

	mu      sync.RWMutex
	statics map[string]any
}

// NewInstance allocates an instance and runs the constructor matching the
// argument count. Generated classes declare exactly one constructor per
// arity.
func (t *LoadedType) NewInstance(args ...any) (*Object, error) {
	init, err := t.findInit(len(args))
	if err != nil {
		return nil, err
	}

	obj := NewObject(t.Name)
	locals := append([]any{obj}, args...)
	if _, err := t.exec(init, locals); err != nil {
		return nil, fmt.Errorf("constructing %s: %w", t.Name, err)
	}
	return obj, nil
}

// Call invokes the method with the given name and descriptor on recv.
// recv is ignored for class initialization bodies; instance methods
// receive it in local slot zero.
func (t *LoadedType) Call(recv *Object, name, desc string, args ...any) (any, error) {
	m := t.File.FindMethod(name, desc)
	if m == nil {
		return nil, fmt.Errorf("%s has no method %s%s", t.Name, name, desc)
	}
	locals := append([]any{recv}, args...)
	return t.exec(m, locals)
}

// Static reads the value of a static field.
func (t *LoadedType) Static(name string) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.statics[name]
	return v, ok
}

func (t *LoadedType) setStatic(name string, v any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statics[name] = v
}

func (t *LoadedType) findInit(argc int) (*classfile.MethodInfo, error) {
	for i := range t.File.Methods {
		m := &t.File.Methods[i]
		if m.Name != "<init>" {
			continue
		}
		desc, err := classfile.ParseMethodDescriptor(m.Descriptor)
		if err != nil {
			return nil, err
		}
		if len(desc.Params) == argc {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%s has no %d-argument constructor", t.Name, argc)
}
