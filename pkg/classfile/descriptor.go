package classfile

import (
	"fmt"
	"strings"
)

// Descriptor grammar (reference types only; shim trampolines pass every
// value boxed):
//
//	field:  Lname; | [Lname;
//	method: ( field* ) field | ( field* ) V
//
// name is any class name free of the metacharacters ';', '(' and ')'.

// MethodDescriptor holds the decomposed parts of a method descriptor.
type MethodDescriptor struct {
	Params []string // field descriptors
	Return string   // field descriptor, or "V"
}

// Returns reports whether the descriptor declares a return value.
func (d *MethodDescriptor) Returns() bool { return d.Return != "V" }

// ParseMethodDescriptor decomposes a method descriptor.
func ParseMethodDescriptor(desc string) (*MethodDescriptor, error) {
	if len(desc) < 3 || desc[0] != '(' {
		return nil, fmt.Errorf("malformed method descriptor %q", desc)
	}
	end := strings.IndexByte(desc, ')')
	if end < 0 {
		return nil, fmt.Errorf("malformed method descriptor %q: missing ')'", desc)
	}

	params, err := splitFieldDescriptors(desc[1:end])
	if err != nil {
		return nil, fmt.Errorf("malformed method descriptor %q: %w", desc, err)
	}

	ret := desc[end+1:]
	if ret != "V" {
		if _, err := ClassNameOf(ret); err != nil {
			return nil, fmt.Errorf("malformed method descriptor %q: %w", desc, err)
		}
	}

	return &MethodDescriptor{Params: params, Return: ret}, nil
}

func splitFieldDescriptors(s string) ([]string, error) {
	var out []string
	for len(s) > 0 {
		n := 0
		for n < len(s) && s[n] == '[' {
			n++
		}
		if n >= len(s) || s[n] != 'L' {
			return nil, fmt.Errorf("unexpected descriptor character %q", s[n:])
		}
		semi := strings.IndexByte(s[n:], ';')
		if semi < 0 {
			return nil, fmt.Errorf("unterminated reference descriptor %q", s)
		}
		out = append(out, s[:n+semi+1])
		s = s[n+semi+1:]
	}
	return out, nil
}

// ClassNameOf extracts the class name from a reference field descriptor,
// stripping array markers: "[Lfoo;" and "Lfoo;" both yield "foo".
func ClassNameOf(fieldDesc string) (string, error) {
	s := strings.TrimLeft(fieldDesc, "[")
	if len(s) < 3 || s[0] != 'L' || s[len(s)-1] != ';' {
		return "", fmt.Errorf("malformed field descriptor %q", fieldDesc)
	}
	return s[1 : len(s)-1], nil
}
