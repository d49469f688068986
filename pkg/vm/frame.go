package vm

// Frame is the execution state of one method invocation: a program
// counter over the body, local slots and an operand stack. Structural
// verification at define time bounds both the stack and the locals, so
// frame operations treat violations as programming errors.
type Frame struct {
	code   []byte
	pc     int
	locals []any
	stack  []any
}

// NewFrame builds a frame for a body with the given budgets, seeding the
// leading local slots from args.
func NewFrame(code []byte, maxStack, maxLocals uint16, args []any) *Frame {
	locals := make([]any, maxLocals)
	copy(locals, args)
	return &Frame{
		code:   code,
		locals: locals,
		stack:  make([]any, 0, maxStack),
	}
}

// End reports whether the program counter ran off the body.
func (f *Frame) End() bool { return f.pc >= len(f.code) }

// ReadU8 consumes the next code byte.
func (f *Frame) ReadU8() byte {
	b := f.code[f.pc]
	f.pc++
	return b
}

// ReadU16 consumes the next two code bytes as a big-endian index.
func (f *Frame) ReadU16() uint16 {
	v := uint16(f.code[f.pc])<<8 | uint16(f.code[f.pc+1])
	f.pc += 2
	return v
}

// Push puts a value on the operand stack.
func (f *Frame) Push(v any) {
	f.stack = append(f.stack, v)
}

// Pop removes and returns the top of the operand stack.
func (f *Frame) Pop() any {
	if len(f.stack) == 0 {
		panic("vm: operand stack underflow")
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v
}

// Peek returns the top of the operand stack without removing it.
func (f *Frame) Peek() any {
	if len(f.stack) == 0 {
		panic("vm: operand stack underflow")
	}
	return f.stack[len(f.stack)-1]
}

// Local returns the value in local slot i.
func (f *Frame) Local(i int) any { return f.locals[i] }

// SetLocal stores a value in local slot i.
func (f *Frame) SetLocal(i int, v any) { f.locals[i] = v }

// popArgs removes n arguments pushed left to right, restoring their
// declaration order.
func (f *Frame) popArgs(n int) []any {
	args := make([]any, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = f.Pop()
	}
	return args
}
