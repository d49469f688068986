package vm

import (
	"reflect"
	"sync"

	"github.com/shimforge/shimforge/pkg/member"
)

type memberKey struct {
	owner string
	name  string
	desc  string
}

// Registry maps the symbolic names inside artifacts to host types and
// members. Wrappers bind everything their artifacts reference before the
// artifact is defined, so resolution during execution never misses.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]reflect.Type
	members map[memberKey]member.Descriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		classes: make(map[string]reflect.Type),
		members: make(map[memberKey]member.Descriptor),
	}
}

// RegisterClass binds an internal class name to a host type. Rebinding
// the same name is idempotent; names are derived from the type, so two
// distinct types never share one.
func (r *Registry) RegisterClass(name string, t reflect.Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[name] = t
}

// RegisterType registers a host type under its derived internal name and
// returns that name.
func (r *Registry) RegisterType(t reflect.Type) string {
	name := member.InternalName(t)
	r.RegisterClass(name, t)
	return name
}

// ResolveClass looks up the host type behind an internal class name.
func (r *Registry) ResolveClass(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.classes[name]
	return t, ok
}

// Bind associates a symbolic member reference with the host member that
// backs it.
func (r *Registry) Bind(owner, name, desc string, d member.Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[memberKey{owner, name, desc}] = d
}

// BindMember binds a member descriptor under its own symbolic
// coordinates.
func (r *Registry) BindMember(d member.Descriptor) {
	name := d.Name()
	if d.Kind() == member.KindConstructor {
		name = "<init>"
	}
	r.Bind(d.OwnerInternalName(), name, d.MemberDescriptor(), d)
}

// Member resolves a symbolic member reference.
func (r *Registry) Member(owner, name, desc string) (member.Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.members[memberKey{owner, name, desc}]
	return d, ok
}
