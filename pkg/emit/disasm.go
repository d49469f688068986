package emit

import (
	"fmt"
	"strings"

	"github.com/shimforge/shimforge/pkg/classfile"
)

// Disassemble renders a parsed shim class as a readable listing: the
// class header, fields, and each method body with resolved operands.
func Disassemble(cf *classfile.ClassFile) string {
	var b strings.Builder

	name, err := cf.ClassName()
	if err != nil {
		name = fmt.Sprintf("<unresolvable: %v>", err)
	}
	fmt.Fprintf(&b, "class %s (version %d.%d)\n", name, cf.MajorVersion, cf.MinorVersion)
	fmt.Fprintf(&b, "  extends %s\n", cf.SuperClassName())
	if ifaces, err := cf.InterfaceNames(); err == nil && len(ifaces) > 0 {
		fmt.Fprintf(&b, "  implements %s\n", strings.Join(ifaces, ", "))
	}
	if cf.Generator != "" {
		fmt.Fprintf(&b, "  generated by %s\n", cf.Generator)
	}
	if cf.Source != "" {
		fmt.Fprintf(&b, "  source %s\n", cf.Source)
	}

	for _, f := range cf.Fields {
		fmt.Fprintf(&b, "\n  field %s %s%s\n", f.Name, f.Descriptor, flagSuffix(f.AccessFlags))
	}

	for _, m := range cf.Methods {
		fmt.Fprintf(&b, "\n  method %s%s%s\n", m.Name, m.Descriptor, flagSuffix(m.AccessFlags))
		if m.Code == nil {
			fmt.Fprintf(&b, "    <no code>\n")
			continue
		}
		fmt.Fprintf(&b, "    stack=%d, locals=%d\n", m.Code.MaxStack, m.Code.MaxLocals)
		disasmCode(&b, cf.ConstantPool, m.Code.Code)
	}

	return b.String()
}

func disasmCode(b *strings.Builder, pool []classfile.ConstantPoolEntry, code []byte) {
	for pc := 0; pc < len(code); {
		op := code[pc]
		width := classfile.OperandWidth(op)
		mnemonic := classfile.OpcodeName(op)
		if mnemonic == "" || (width > 0 && pc+width >= len(code)) {
			// Unknown or truncated instruction; dump the byte raw.
			fmt.Fprintf(b, "    %4d: .byte 0x%02X\n", pc, op)
			pc++
			continue
		}

		switch width {
		case 0:
			fmt.Fprintf(b, "    %4d: %s\n", pc, mnemonic)
		case 1:
			fmt.Fprintf(b, "    %4d: %-14s %d\n", pc, mnemonic, code[pc+1])
		case 2:
			idx := uint16(code[pc+1])<<8 | uint16(code[pc+2])
			fmt.Fprintf(b, "    %4d: %-14s #%d%s\n", pc, mnemonic, idx, operandComment(pool, op, idx))
		}
		pc += 1 + width
	}
}

func operandComment(pool []classfile.ConstantPoolEntry, op byte, idx uint16) string {
	switch op {
	case classfile.OpNew, classfile.OpCheckcast:
		if name, err := classfile.GetClassName(pool, idx); err == nil {
			return " // " + name
		}
	case classfile.OpGetstatic, classfile.OpPutstatic, classfile.OpGetfield,
		classfile.OpPutfield, classfile.OpInvokevirtual,
		classfile.OpInvokespecial, classfile.OpInvokestatic:
		if ref, err := classfile.ResolveMemberRef(pool, idx); err == nil {
			return fmt.Sprintf(" // %s.%s:%s", ref.ClassName, ref.Name, ref.Descriptor)
		}
	}
	return ""
}

func flagSuffix(flags uint16) string {
	var parts []string
	if flags&classfile.AccPublic != 0 {
		parts = append(parts, "public")
	}
	if flags&classfile.AccPrivate != 0 {
		parts = append(parts, "private")
	}
	if flags&classfile.AccStatic != 0 {
		parts = append(parts, "static")
	}
	if flags&classfile.AccFinal != 0 {
		parts = append(parts, "final")
	}
	if flags&classfile.AccBridge != 0 {
		parts = append(parts, "bridge")
	}
	if flags&classfile.AccVarargs != 0 {
		parts = append(parts, "varargs")
	}
	if flags&classfile.AccSynthetic != 0 {
		parts = append(parts, "synthetic")
	}
	if len(parts) == 0 {
		return ""
	}
	return "  [" + strings.Join(parts, " ") + "]"
}
