package classfile

// Opcodes used in synthesized trampoline bodies. Values follow the JVM
// instruction set the format is derived from; only the straight-line
// subset the emitter produces is defined.
const (
	OpAconstNull    = 0x01
	OpIconst0       = 0x03
	OpIconst1       = 0x04
	OpIconst2       = 0x05
	OpIconst3       = 0x06
	OpIconst4       = 0x07
	OpIconst5       = 0x08
	OpBipush        = 0x10
	OpAload         = 0x19
	OpAload0        = 0x2A
	OpAload1        = 0x2B
	OpAload2        = 0x2C
	OpAload3        = 0x2D
	OpAaload        = 0x32
	OpDup           = 0x59
	OpAreturn       = 0xB0
	OpReturn        = 0xB1
	OpGetstatic     = 0xB2
	OpPutstatic     = 0xB3
	OpGetfield      = 0xB4
	OpPutfield      = 0xB5
	OpInvokevirtual = 0xB6
	OpInvokespecial = 0xB7
	OpInvokestatic  = 0xB8
	OpNew           = 0xBB
	OpCheckcast     = 0xC0
)

// OpcodeName returns the mnemonic for an opcode, or "" if unknown.
func OpcodeName(op byte) string {
	switch op {
	case OpAconstNull:
		return "aconst_null"
	case OpIconst0:
		return "iconst_0"
	case OpIconst1:
		return "iconst_1"
	case OpIconst2:
		return "iconst_2"
	case OpIconst3:
		return "iconst_3"
	case OpIconst4:
		return "iconst_4"
	case OpIconst5:
		return "iconst_5"
	case OpBipush:
		return "bipush"
	case OpAload:
		return "aload"
	case OpAload0:
		return "aload_0"
	case OpAload1:
		return "aload_1"
	case OpAload2:
		return "aload_2"
	case OpAload3:
		return "aload_3"
	case OpAaload:
		return "aaload"
	case OpDup:
		return "dup"
	case OpAreturn:
		return "areturn"
	case OpReturn:
		return "return"
	case OpGetstatic:
		return "getstatic"
	case OpPutstatic:
		return "putstatic"
	case OpGetfield:
		return "getfield"
	case OpPutfield:
		return "putfield"
	case OpInvokevirtual:
		return "invokevirtual"
	case OpInvokespecial:
		return "invokespecial"
	case OpInvokestatic:
		return "invokestatic"
	case OpNew:
		return "new"
	case OpCheckcast:
		return "checkcast"
	default:
		return ""
	}
}

// OperandWidth returns the number of operand bytes following an opcode,
// or -1 if the opcode is unknown.
func OperandWidth(op byte) int {
	switch op {
	case OpAconstNull, OpIconst0, OpIconst1, OpIconst2, OpIconst3,
		OpIconst4, OpIconst5, OpAload0, OpAload1, OpAload2, OpAload3,
		OpAaload, OpDup, OpAreturn, OpReturn:
		return 0
	case OpBipush, OpAload:
		return 1
	case OpGetstatic, OpPutstatic, OpGetfield, OpPutfield,
		OpInvokevirtual, OpInvokespecial, OpInvokestatic,
		OpNew, OpCheckcast:
		return 2
	default:
		return -1
	}
}
