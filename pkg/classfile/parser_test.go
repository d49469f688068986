package classfile

import (
	"strings"
	"testing"
)

// buildSample assembles a small but complete shim class by hand: one
// instance field, a constructor and a typed method with a Code attribute,
// plus Source and ShimGenerated class attributes.
func buildSample() *ClassFile {
	pool := NewPoolBuilder()

	this := pool.Class("test.generated.Sample$0")
	super := pool.Class("shimforge.Object")
	iface := pool.Class("shimforge.Supplier")

	field := FieldInfo{
		AccessFlags:     AccPrivate | AccFinal,
		NameIndex:       pool.Utf8("instance"),
		DescriptorIndex: pool.Utf8("Ltest.Owner;"),
		Name:            "instance",
		Descriptor:      "Ltest.Owner;",
	}

	initCode := &CodeAttribute{
		MaxStack:  2,
		MaxLocals: 2,
		Code: []byte{
			OpAload0,
			OpInvokespecial, 0x00, byte(pool.Methodref("shimforge.Object", "<init>", "()V")),
			OpAload0,
			OpAload1,
			OpPutfield, 0x00, byte(pool.Fieldref("test.generated.Sample$0", "instance", "Ltest.Owner;")),
			OpReturn,
		},
	}
	init := MethodInfo{
		AccessFlags:     AccPublic,
		NameIndex:       pool.Utf8("<init>"),
		DescriptorIndex: pool.Utf8("(Ltest.Owner;)V"),
		Name:            "<init>",
		Descriptor:      "(Ltest.Owner;)V",
		Attributes:      []AttributeInfo{pool.CodeAttribute(initCode)},
		Code:            initCode,
	}

	getCode := &CodeAttribute{
		MaxStack:  1,
		MaxLocals: 1,
		Code: []byte{
			OpAload0,
			OpGetfield, 0x00, byte(pool.Fieldref("test.generated.Sample$0", "instance", "Ltest.Owner;")),
			OpGetfield, 0x00, byte(pool.Fieldref("test.Owner", "thing", "Lgo.string;")),
			OpAreturn,
		},
	}
	get := MethodInfo{
		AccessFlags:     AccPublic,
		NameIndex:       pool.Utf8("get"),
		DescriptorIndex: pool.Utf8("()Lgo.string;"),
		Name:            "get",
		Descriptor:      "()Lgo.string;",
		Attributes:      []AttributeInfo{pool.CodeAttribute(getCode)},
		Code:            getCode,
	}

	attrs := []AttributeInfo{
		pool.Utf8Attribute(AttrSource, ".dynamic"),
		pool.Utf8Attribute(AttrGenerated, "SupplierWrapper"),
	}

	return &ClassFile{
		MajorVersion: 24,
		ConstantPool: pool.Pool(),
		AccessFlags:  AccPublic | AccSuper | AccFinal,
		ThisClass:    this,
		SuperClass:   super,
		Interfaces:   []uint16{iface},
		Fields:       []FieldInfo{field},
		Methods:      []MethodInfo{init, get},
		Attributes:   attrs,
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	data := Write(buildSample())

	cf, err := ParseBytes(data)
	if err != nil {
		t.Fatalf("parsing written class: %v", err)
	}

	name, err := cf.ClassName()
	if err != nil {
		t.Fatalf("resolving this_class: %v", err)
	}
	if name != "test.generated.Sample$0" {
		t.Errorf("this_class: got %q, want %q", name, "test.generated.Sample$0")
	}

	if cf.SuperClassName() != "shimforge.Object" {
		t.Errorf("super_class: got %q, want %q", cf.SuperClassName(), "shimforge.Object")
	}

	ifaces, err := cf.InterfaceNames()
	if err != nil {
		t.Fatalf("resolving interfaces: %v", err)
	}
	if len(ifaces) != 1 || ifaces[0] != "shimforge.Supplier" {
		t.Errorf("interfaces: got %v", ifaces)
	}

	if cf.MajorVersion != 24 {
		t.Errorf("major version: got %d, want 24", cf.MajorVersion)
	}
	if cf.Source != ".dynamic" {
		t.Errorf("Source attribute: got %q, want %q", cf.Source, ".dynamic")
	}
	if cf.Generator != "SupplierWrapper" {
		t.Errorf("ShimGenerated attribute: got %q, want %q", cf.Generator, "SupplierWrapper")
	}

	if f := cf.FindField("instance"); f == nil {
		t.Fatal("instance field not found")
	} else if f.Descriptor != "Ltest.Owner;" {
		t.Errorf("field descriptor: got %q", f.Descriptor)
	}

	get := cf.FindMethod("get", "()Lgo.string;")
	if get == nil {
		t.Fatal("get method not found")
	}
	if get.Code == nil {
		t.Fatal("get method has no Code attribute")
	}
	if get.Code.MaxStack != 1 {
		t.Errorf("get MaxStack: got %d, want 1", get.Code.MaxStack)
	}
	if len(get.Code.Code) == 0 {
		t.Error("Code attribute has empty bytecode")
	}

	init := cf.FindMethod("<init>", "(Ltest.Owner;)V")
	if init == nil {
		t.Fatal("<init> method not found")
	}
	if init.Code.MaxLocals != 2 {
		t.Errorf("<init> MaxLocals: got %d, want 2", init.Code.MaxLocals)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	valid := Write(buildSample())

	t.Run("bad magic", func(t *testing.T) {
		data := append([]byte{}, valid...)
		data[0] = 0xDE
		if _, err := ParseBytes(data); err == nil {
			t.Fatal("expected error for corrupted magic")
		} else if !strings.Contains(err.Error(), "magic") {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		if _, err := ParseBytes(valid[:len(valid)/2]); err == nil {
			t.Fatal("expected error for truncated input")
		}
	})

	t.Run("empty", func(t *testing.T) {
		if _, err := ParseBytes(nil); err == nil {
			t.Fatal("expected error for empty input")
		}
	})
}

func TestPoolBuilderDeduplicates(t *testing.T) {
	pool := NewPoolBuilder()

	a := pool.Utf8("hello")
	b := pool.Utf8("hello")
	if a != b {
		t.Errorf("Utf8 not deduplicated: %d != %d", a, b)
	}

	c1 := pool.Class("some.Class")
	c2 := pool.Class("some.Class")
	if c1 != c2 {
		t.Errorf("Class not deduplicated: %d != %d", c1, c2)
	}

	m1 := pool.Methodref("some.Class", "run", "()V")
	m2 := pool.Methodref("some.Class", "run", "()V")
	if m1 != m2 {
		t.Errorf("Methodref not deduplicated: %d != %d", m1, m2)
	}

	f1 := pool.Fieldref("some.Class", "run", "()V")
	if f1 == m1 {
		t.Error("Fieldref and Methodref with same parts must be distinct entries")
	}

	// The NameAndType behind the two refs must be shared.
	entries := pool.Pool()
	fref := entries[f1].(*ConstantFieldref)
	mref := entries[m1].(*ConstantMethodref)
	if fref.NameAndTypeIndex != mref.NameAndTypeIndex {
		t.Error("NameAndType not shared between field and method refs")
	}
}

func TestParseMethodDescriptor(t *testing.T) {
	t.Run("no params void", func(t *testing.T) {
		d, err := ParseMethodDescriptor("()V")
		if err != nil {
			t.Fatal(err)
		}
		if len(d.Params) != 0 || d.Returns() {
			t.Errorf("got params=%v return=%q", d.Params, d.Return)
		}
	})

	t.Run("params and return", func(t *testing.T) {
		d, err := ParseMethodDescriptor("(Lgo.string;[Lshimforge.Object;)Ltest.Owner;")
		if err != nil {
			t.Fatal(err)
		}
		if len(d.Params) != 2 {
			t.Fatalf("params: got %v", d.Params)
		}
		if d.Params[0] != "Lgo.string;" || d.Params[1] != "[Lshimforge.Object;" {
			t.Errorf("params: got %v", d.Params)
		}
		if !d.Returns() || d.Return != "Ltest.Owner;" {
			t.Errorf("return: got %q", d.Return)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		for _, desc := range []string{"", "()", "(V", "(Lfoo)V", "(X)V"} {
			if _, err := ParseMethodDescriptor(desc); err == nil {
				t.Errorf("expected error for %q", desc)
			}
		}
	})

	t.Run("class name of", func(t *testing.T) {
		name, err := ClassNameOf("[Lshimforge.Object;")
		if err != nil {
			t.Fatal(err)
		}
		if name != "shimforge.Object" {
			t.Errorf("got %q", name)
		}
	})
}
