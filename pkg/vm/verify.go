package vm

import (
	"fmt"

	"github.com/shimforge/shimforge/pkg/classfile"
)

// verifyClass structurally checks every method body before a class is
// defined: operand effects must stay within the declared MaxStack, local
// loads within MaxLocals, member references must resolve to pool entries
// of the right kind, and every body must end in a return. Bodies are
// straight-line, so a single linear pass models the stack exactly.
func verifyClass(cf *classfile.ClassFile) error {
	for i := range cf.Methods {
		m := &cf.Methods[i]
		if m.Code == nil {
			return fmt.Errorf("method %s%s has no Code attribute", m.Name, m.Descriptor)
		}
		if err := verifyCode(cf.ConstantPool, m.Code); err != nil {
			return fmt.Errorf("method %s%s: %w", m.Name, m.Descriptor, err)
		}
	}
	return nil
}

func verifyCode(pool []classfile.ConstantPoolEntry, code *classfile.CodeAttribute) error {
	body := code.Code
	if len(body) == 0 {
		return fmt.Errorf("empty body")
	}

	depth := 0
	lastOp := byte(0)

	adjust := func(pc, delta int) error {
		depth += delta
		if depth < 0 {
			return fmt.Errorf("operand stack underflow at offset %d", pc)
		}
		if depth > int(code.MaxStack) {
			return fmt.Errorf("operand stack depth %d exceeds declared max %d at offset %d", depth, code.MaxStack, pc)
		}
		return nil
	}

	for pc := 0; pc < len(body); {
		op := body[pc]
		width := classfile.OperandWidth(op)
		if width < 0 {
			return fmt.Errorf("unknown opcode 0x%02X at offset %d", op, pc)
		}
		if pc+width >= len(body) {
			return fmt.Errorf("truncated instruction at offset %d", pc)
		}
		lastOp = op

		var delta int
		switch op {
		case classfile.OpAconstNull, classfile.OpIconst0, classfile.OpIconst1,
			classfile.OpIconst2, classfile.OpIconst3, classfile.OpIconst4,
			classfile.OpIconst5, classfile.OpBipush, classfile.OpDup,
			classfile.OpNew:
			delta = 1
			if op == classfile.OpNew {
				if err := checkRef(pool, body, pc, refClass); err != nil {
					return err
				}
			}

		case classfile.OpAload, classfile.OpAload0, classfile.OpAload1,
			classfile.OpAload2, classfile.OpAload3:
			slot := int(op - classfile.OpAload0)
			if op == classfile.OpAload {
				slot = int(body[pc+1])
			}
			if slot >= int(code.MaxLocals) {
				return fmt.Errorf("local slot %d exceeds declared max %d at offset %d", slot, code.MaxLocals, pc)
			}
			delta = 1

		case classfile.OpAaload:
			delta = -1

		case classfile.OpCheckcast:
			if err := checkRef(pool, body, pc, refClass); err != nil {
				return err
			}

		case classfile.OpGetfield:
			if err := checkRef(pool, body, pc, refField); err != nil {
				return err
			}

		case classfile.OpGetstatic:
			if err := checkRef(pool, body, pc, refField); err != nil {
				return err
			}
			delta = 1

		case classfile.OpPutfield:
			if err := checkRef(pool, body, pc, refField); err != nil {
				return err
			}
			delta = -2

		case classfile.OpPutstatic:
			if err := checkRef(pool, body, pc, refField); err != nil {
				return err
			}
			delta = -1

		case classfile.OpInvokevirtual, classfile.OpInvokespecial, classfile.OpInvokestatic:
			if err := checkRef(pool, body, pc, refMethod); err != nil {
				return err
			}
			argc, returns, err := invocationEffect(pool, body, pc)
			if err != nil {
				return err
			}
			delta = -argc
			if op != classfile.OpInvokestatic {
				delta-- // receiver
			}
			if returns {
				delta++
			}

		case classfile.OpAreturn:
			delta = -1
		case classfile.OpReturn:
			// no effect
		}

		if err := adjust(pc, delta); err != nil {
			return err
		}
		pc += 1 + width
	}

	if lastOp != classfile.OpReturn && lastOp != classfile.OpAreturn {
		return fmt.Errorf("body does not end in a return instruction")
	}
	return nil
}

type refKind int

const (
	refClass refKind = iota
	refField
	refMethod
)

func checkRef(pool []classfile.ConstantPoolEntry, body []byte, pc int, kind refKind) error {
	idx := uint16(body[pc+1])<<8 | uint16(body[pc+2])
	switch kind {
	case refClass:
		if _, err := classfile.GetClassName(pool, idx); err != nil {
			return fmt.Errorf("offset %d: %w", pc, err)
		}
	case refField:
		ref, err := classfile.ResolveMemberRef(pool, idx)
		if err != nil {
			return fmt.Errorf("offset %d: %w", pc, err)
		}
		if !classfile.IsFieldRef(pool, idx) {
			return fmt.Errorf("offset %d: %s.%s is not a field reference", pc, ref.ClassName, ref.Name)
		}
	case refMethod:
		ref, err := classfile.ResolveMemberRef(pool, idx)
		if err != nil {
			return fmt.Errorf("offset %d: %w", pc, err)
		}
		if !classfile.IsMethodRef(pool, idx) {
			return fmt.Errorf("offset %d: %s.%s is not a method reference", pc, ref.ClassName, ref.Name)
		}
	}
	return nil
}

func invocationEffect(pool []classfile.ConstantPoolEntry, body []byte, pc int) (argc int, returns bool, err error) {
	idx := uint16(body[pc+1])<<8 | uint16(body[pc+2])
	ref, err := classfile.ResolveMemberRef(pool, idx)
	if err != nil {
		return 0, false, fmt.Errorf("offset %d: %w", pc, err)
	}
	desc, err := classfile.ParseMethodDescriptor(ref.Descriptor)
	if err != nil {
		return 0, false, fmt.Errorf("offset %d: %w", pc, err)
	}
	return len(desc.Params), desc.Returns(), nil
}
