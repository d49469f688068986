package wrapper

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/shimforge/shimforge/pkg/member"
)

// ctorNameParams caps how many parameter type names a constructor
// invoker's class name spells out.
const ctorNameParams = 5

// nameGen produces unique class names for generated wrappers. The
// counter guarantees uniqueness; the rest of the name exists for humans
// reading logs and disassemblies.
type nameGen struct {
	base    string
	counter atomic.Uint64
}

func newNameGen(base string) *nameGen {
	return &nameGen{base: base}
}

// wrapperName names a consumer or supplier wrapper:
// base.Tag$n_Owner_member$s, where s marks the binding mode (1 static,
// 0 instance).
func (g *nameGen) wrapperName(tag string, d member.Descriptor) string {
	n := g.counter.Add(1) - 1
	s := 0
	if d.IsStatic() {
		s = 1
	}
	return fmt.Sprintf("%s.%s$%d_%s_%s$%d",
		g.base, tag, n, ownerShort(d), member.SanitizeName(d.Name()), s)
}

// constructorName names a constructor invoker, spelling out up to
// ctorNameParams parameter type names.
func (g *nameGen) constructorName(d member.Descriptor) string {
	n := g.counter.Add(1) - 1

	params := d.ParameterTypes()
	var parts []string
	for i, p := range params {
		if i == ctorNameParams {
			parts = append(parts, fmt.Sprintf("and%dMore", len(params)-ctorNameParams))
			break
		}
		parts = append(parts, member.SanitizeName(typeShort(p.String())))
	}
	suffix := "noParameters"
	if len(parts) > 0 {
		suffix = strings.Join(parts, "_")
	}

	return fmt.Sprintf("%s.ConstructorInvoker$%d_%s_%s", g.base, n, ownerShort(d), suffix)
}

func ownerShort(d member.Descriptor) string {
	if t := d.Owner(); t != nil {
		return member.SanitizeName(typeShort(t.String()))
	}
	return member.SanitizeName(pkgShort(d.OwnerInternalName()))
}

// typeShort reduces "*pkg.Name" to "Name" keeping a pointer marker out
// of the class name.
func typeShort(s string) string {
	s = strings.TrimPrefix(s, "*")
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	return s
}

func pkgShort(s string) string {
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		s = s[i+1:]
	}
	return s
}
