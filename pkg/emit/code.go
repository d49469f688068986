package emit

import (
	"fmt"

	"github.com/shimforge/shimforge/pkg/classfile"
)

// CodeBuilder assembles a straight-line trampoline body while tracking the
// exact operand stack high-water mark. The declared MaxStack of every
// emitted method is the tight bound, never an over-approximation, so the
// loader's structural check holds generated code to the same standard as
// foreign artifacts.
type CodeBuilder struct {
	buf      []byte
	stack    int
	maxStack int
	locals   int
}

// NewCodeBuilder starts a body for a method with the given number of
// local slots (receiver plus parameters).
func NewCodeBuilder(locals int) *CodeBuilder {
	return &CodeBuilder{locals: locals}
}

func (b *CodeBuilder) op(code byte) { b.buf = append(b.buf, code) }
func (b *CodeBuilder) ref(code byte, idx uint16) {
	b.buf = append(b.buf, code, byte(idx>>8), byte(idx))
}

func (b *CodeBuilder) push(n int) {
	b.stack += n
	if b.stack > b.maxStack {
		b.maxStack = b.stack
	}
}

func (b *CodeBuilder) pop(n int) {
	b.stack -= n
	if b.stack < 0 {
		panic(fmt.Sprintf("emit: operand stack underflow at offset %d", len(b.buf)))
	}
}

// ALoad loads the reference in the given local slot.
func (b *CodeBuilder) ALoad(slot int) {
	switch slot {
	case 0:
		b.op(classfile.OpAload0)
	case 1:
		b.op(classfile.OpAload1)
	case 2:
		b.op(classfile.OpAload2)
	case 3:
		b.op(classfile.OpAload3)
	default:
		b.buf = append(b.buf, classfile.OpAload, byte(slot))
	}
	b.push(1)
}

// IConst pushes a small non-negative integer constant.
func (b *CodeBuilder) IConst(n int) {
	if n >= 0 && n <= 5 {
		b.op(classfile.OpIconst0 + byte(n))
	} else {
		b.buf = append(b.buf, classfile.OpBipush, byte(n))
	}
	b.push(1)
}

// AALoad pops an array reference and index and pushes the element.
func (b *CodeBuilder) AALoad() {
	b.op(classfile.OpAaload)
	b.pop(2)
	b.push(1)
}

// Dup duplicates the top of the stack.
func (b *CodeBuilder) Dup() {
	b.op(classfile.OpDup)
	b.push(1)
}

// New allocates an uninitialized instance of the referenced class.
func (b *CodeBuilder) New(classIdx uint16) {
	b.ref(classfile.OpNew, classIdx)
	b.push(1)
}

// Checkcast asserts the top of stack is of the referenced class.
func (b *CodeBuilder) Checkcast(classIdx uint16) {
	b.ref(classfile.OpCheckcast, classIdx)
}

// GetField replaces the receiver on the stack with the referenced field's
// value.
func (b *CodeBuilder) GetField(fieldIdx uint16) {
	b.ref(classfile.OpGetfield, fieldIdx)
	b.pop(1)
	b.push(1)
}

// PutField pops a value and receiver and stores the value.
func (b *CodeBuilder) PutField(fieldIdx uint16) {
	b.ref(classfile.OpPutfield, fieldIdx)
	b.pop(2)
}

// GetStatic pushes the referenced static member's value.
func (b *CodeBuilder) GetStatic(fieldIdx uint16) {
	b.ref(classfile.OpGetstatic, fieldIdx)
	b.push(1)
}

// PutStatic pops a value into the referenced static member.
func (b *CodeBuilder) PutStatic(fieldIdx uint16) {
	b.ref(classfile.OpPutstatic, fieldIdx)
	b.pop(1)
}

// InvokeVirtual calls the referenced instance method, popping the receiver
// and argc arguments and pushing the result when the callee returns one.
func (b *CodeBuilder) InvokeVirtual(methodIdx uint16, argc int, returns bool) {
	b.ref(classfile.OpInvokevirtual, methodIdx)
	b.pop(1 + argc)
	if returns {
		b.push(1)
	}
}

// InvokeSpecial calls the referenced constructor, popping the receiver and
// argc arguments.
func (b *CodeBuilder) InvokeSpecial(methodIdx uint16, argc int) {
	b.ref(classfile.OpInvokespecial, methodIdx)
	b.pop(1 + argc)
}

// InvokeStatic calls the referenced static method.
func (b *CodeBuilder) InvokeStatic(methodIdx uint16, argc int, returns bool) {
	b.ref(classfile.OpInvokestatic, methodIdx)
	b.pop(argc)
	if returns {
		b.push(1)
	}
}

// AReturn returns the reference on top of the stack.
func (b *CodeBuilder) AReturn() {
	b.op(classfile.OpAreturn)
	b.pop(1)
}

// Return returns from a void method.
func (b *CodeBuilder) Return() {
	b.op(classfile.OpReturn)
}

// Build finalizes the body.
func (b *CodeBuilder) Build() *classfile.CodeAttribute {
	return &classfile.CodeAttribute{
		MaxStack:  uint16(b.maxStack),
		MaxLocals: uint16(b.locals),
		Code:      b.buf,
	}
}
