package classfile

import "fmt"

// PoolBuilder assembles a deduplicated constant pool. Adding the same
// constant twice returns the index of the existing entry, so emitted
// artifacts never carry duplicate pool entries.
type PoolBuilder struct {
	entries []ConstantPoolEntry
	utf8    map[string]uint16
	classes map[string]uint16
	nats    map[string]uint16
	fields  map[string]uint16
	methods map[string]uint16
}

// NewPoolBuilder creates an empty builder. Index 0 is reserved (the pool
// is 1-indexed).
func NewPoolBuilder() *PoolBuilder {
	return &PoolBuilder{
		entries: []ConstantPoolEntry{nil},
		utf8:    make(map[string]uint16),
		classes: make(map[string]uint16),
		nats:    make(map[string]uint16),
		fields:  make(map[string]uint16),
		methods: make(map[string]uint16),
	}
}

func (b *PoolBuilder) add(e ConstantPoolEntry) uint16 {
	b.entries = append(b.entries, e)
	return uint16(len(b.entries) - 1)
}

// Utf8 interns a string constant and returns its pool index.
func (b *PoolBuilder) Utf8(s string) uint16 {
	if idx, ok := b.utf8[s]; ok {
		return idx
	}
	idx := b.add(&ConstantUtf8{Value: s})
	b.utf8[s] = idx
	return idx
}

// Class interns a class reference for the given class name.
func (b *PoolBuilder) Class(name string) uint16 {
	if idx, ok := b.classes[name]; ok {
		return idx
	}
	nameIdx := b.Utf8(name)
	idx := b.add(&ConstantClass{NameIndex: nameIdx})
	b.classes[name] = idx
	return idx
}

// NameAndType interns a name-and-descriptor pair.
func (b *PoolBuilder) NameAndType(name, descriptor string) uint16 {
	key := name + ":" + descriptor
	if idx, ok := b.nats[key]; ok {
		return idx
	}
	nameIdx := b.Utf8(name)
	descIdx := b.Utf8(descriptor)
	idx := b.add(&ConstantNameAndType{NameIndex: nameIdx, DescriptorIndex: descIdx})
	b.nats[key] = idx
	return idx
}

// Fieldref interns a field reference.
func (b *PoolBuilder) Fieldref(class, name, descriptor string) uint16 {
	key := class + "." + name + ":" + descriptor
	if idx, ok := b.fields[key]; ok {
		return idx
	}
	classIdx := b.Class(class)
	natIdx := b.NameAndType(name, descriptor)
	idx := b.add(&ConstantFieldref{ClassIndex: classIdx, NameAndTypeIndex: natIdx})
	b.fields[key] = idx
	return idx
}

// Methodref interns a method reference.
func (b *PoolBuilder) Methodref(class, name, descriptor string) uint16 {
	key := class + "." + name + ":" + descriptor
	if idx, ok := b.methods[key]; ok {
		return idx
	}
	classIdx := b.Class(class)
	natIdx := b.NameAndType(name, descriptor)
	idx := b.add(&ConstantMethodref{ClassIndex: classIdx, NameAndTypeIndex: natIdx})
	b.methods[key] = idx
	return idx
}

// Pool returns the assembled 1-indexed constant pool.
func (b *PoolBuilder) Pool() []ConstantPoolEntry {
	return b.entries
}

// Utf8Attribute builds an attribute whose payload is a single u2 index of
// an interned Utf8 constant. Used for the Source and ShimGenerated class
// attributes.
func (b *PoolBuilder) Utf8Attribute(attrName, value string) AttributeInfo {
	valIdx := b.Utf8(value)
	return AttributeInfo{
		NameIndex: b.Utf8(attrName),
		Name:      attrName,
		Data:      []byte{byte(valIdx >> 8), byte(valIdx)},
	}
}

// CodeAttribute builds the raw attribute carrying an encoded method body.
func (b *PoolBuilder) CodeAttribute(code *CodeAttribute) AttributeInfo {
	return AttributeInfo{
		NameIndex: b.Utf8(AttrCode),
		Name:      AttrCode,
		Data:      EncodeCode(code),
	}
}

// EncodeCode serializes a Code attribute payload: max_stack u2,
// max_locals u2, code_length u4, code bytes.
func EncodeCode(code *CodeAttribute) []byte {
	n := len(code.Code)
	data := make([]byte, 8+n)
	data[0] = byte(code.MaxStack >> 8)
	data[1] = byte(code.MaxStack)
	data[2] = byte(code.MaxLocals >> 8)
	data[3] = byte(code.MaxLocals)
	data[4] = byte(n >> 24)
	data[5] = byte(n >> 16)
	data[6] = byte(n >> 8)
	data[7] = byte(n)
	copy(data[8:], code.Code)
	return data
}

// DecodeCode parses a Code attribute payload.
func DecodeCode(data []byte) (*CodeAttribute, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("Code attribute too short: %d bytes", len(data))
	}
	maxStack := uint16(data[0])<<8 | uint16(data[1])
	maxLocals := uint16(data[2])<<8 | uint16(data[3])
	codeLength := uint32(data[4])<<24 | uint32(data[5])<<16 | uint32(data[6])<<8 | uint32(data[7])
	if len(data) < 8+int(codeLength) {
		return nil, fmt.Errorf("Code attribute data too short for code_length %d", codeLength)
	}
	code := make([]byte, codeLength)
	copy(code, data[8:8+codeLength])
	return &CodeAttribute{
		MaxStack:  maxStack,
		MaxLocals: maxLocals,
		Code:      code,
	}, nil
}
