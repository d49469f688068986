package classfile

import (
	"bytes"
	"encoding/binary"
)

// Write serializes a shim class into its binary form. The inverse of Parse.
//
// The class must have been assembled against a PoolBuilder pool: every
// NameIndex/DescriptorIndex and attribute NameIndex must reference a valid
// pool entry. Write does not validate references; Parse is the checkpoint.
func Write(cf *ClassFile) []byte {
	var buf bytes.Buffer
	w := func(v any) {
		// binary.Write to a bytes.Buffer cannot fail for fixed-size values.
		_ = binary.Write(&buf, binary.BigEndian, v)
	}

	w(uint32(Magic))
	w(cf.MinorVersion)
	w(cf.MajorVersion)

	w(uint16(len(cf.ConstantPool)))
	for _, entry := range cf.ConstantPool[1:] {
		w(entry.Tag())
		switch e := entry.(type) {
		case *ConstantUtf8:
			w(uint16(len(e.Value)))
			buf.WriteString(e.Value)
		case *ConstantClass:
			w(e.NameIndex)
		case *ConstantFieldref:
			w(e.ClassIndex)
			w(e.NameAndTypeIndex)
		case *ConstantMethodref:
			w(e.ClassIndex)
			w(e.NameAndTypeIndex)
		case *ConstantNameAndType:
			w(e.NameIndex)
			w(e.DescriptorIndex)
		}
	}

	w(cf.AccessFlags)
	w(cf.ThisClass)
	w(cf.SuperClass)

	w(uint16(len(cf.Interfaces)))
	for _, iface := range cf.Interfaces {
		w(iface)
	}

	w(uint16(len(cf.Fields)))
	for i := range cf.Fields {
		f := &cf.Fields[i]
		w(f.AccessFlags)
		w(f.NameIndex)
		w(f.DescriptorIndex)
		writeAttributes(w, &buf, f.Attributes)
	}

	w(uint16(len(cf.Methods)))
	for i := range cf.Methods {
		m := &cf.Methods[i]
		w(m.AccessFlags)
		w(m.NameIndex)
		w(m.DescriptorIndex)
		writeAttributes(w, &buf, m.Attributes)
	}

	writeAttributes(w, &buf, cf.Attributes)

	return buf.Bytes()
}

func writeAttributes(w func(any), buf *bytes.Buffer, attrs []AttributeInfo) {
	w(uint16(len(attrs)))
	for _, attr := range attrs {
		w(attr.NameIndex)
		w(uint32(len(attr.Data)))
		buf.Write(attr.Data)
	}
}
