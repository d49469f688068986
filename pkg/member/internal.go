package member

import (
	"reflect"
	"strings"
)

// Class names embedded in artifacts must stay free of the descriptor
// metacharacters, so the characters Go type strings can contain are
// rewritten to harmless stand-ins.
var nameSanitizer = strings.NewReplacer(
	"[", "{",
	"]", "}",
	";", ",",
	"(", "{",
	")", "}",
)

// InternalName derives the artifact-internal class name for a Go type.
// Named types use their full package path ("path/to/pkg.Name"); builtins
// and unnamed types are placed under the reserved "go." namespace.
func InternalName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	if t.Kind() == reflect.Pointer {
		return "*" + InternalName(t.Elem())
	}
	if t.Name() != "" {
		if t.PkgPath() != "" {
			return nameSanitizer.Replace(t.PkgPath() + "." + t.Name())
		}
		return "go." + t.Name()
	}
	return nameSanitizer.Replace("go." + t.String())
}

// DescriptorOf returns the field descriptor for a Go type.
func DescriptorOf(t reflect.Type) string {
	return "L" + InternalName(t) + ";"
}

// SanitizeName rewrites descriptor metacharacters in an arbitrary name.
func SanitizeName(name string) string {
	return nameSanitizer.Replace(name)
}

// OwnerInternalName returns the internal class name the member is
// resolved against inside artifacts: the owning type's internal name, or
// the sanitized package path for package-level members.
func (d Descriptor) OwnerInternalName() string {
	if d.owner != nil {
		return InternalName(d.owner)
	}
	return nameSanitizer.Replace(d.pkg)
}

// MemberDescriptor returns the symbolic descriptor recorded in artifact
// member references: a method descriptor for methods and constructors, a
// field descriptor for fields and variables.
func (d Descriptor) MemberDescriptor() string {
	switch d.kind {
	case KindField:
		return DescriptorOf(d.result)
	case KindConstructor:
		var b strings.Builder
		b.WriteByte('(')
		for _, p := range d.params {
			b.WriteString(DescriptorOf(p))
		}
		b.WriteString(")V")
		return b.String()
	default:
		var b strings.Builder
		b.WriteByte('(')
		for _, p := range d.params {
			b.WriteString(DescriptorOf(p))
		}
		b.WriteByte(')')
		if d.result != nil {
			b.WriteString(DescriptorOf(d.result))
		} else {
			b.WriteByte('V')
		}
		return b.String()
	}
}
