package emit

import (
	"fmt"

	"github.com/shimforge/shimforge/pkg/classfile"
	"github.com/shimforge/shimforge/pkg/member"
)

// Well-known names shared between the emitter and the runtime that
// executes its artifacts.
const (
	ObjectClass   = "shimforge.Object"
	ConsumerClass = "shimforge.Consumer"
	SupplierClass = "shimforge.Supplier"
	InvokerClass  = "shimforge.ConstructorInvoker"

	ObjectDesc      = "L" + ObjectClass + ";"
	ObjectArrayDesc = "[" + ObjectDesc

	SourceName     = ".dynamic"
	InstanceField  = "instance"
	SingletonField = "INSTANCE"

	MethodInit   = "<init>"
	MethodClinit = "<clinit>"
	MethodAccept = "accept"
	MethodGet    = "get"
	MethodInvoke = "invoke"

	GenConsumer    = "ConsumerWrapper"
	GenSupplier    = "SupplierWrapper"
	GenConstructor = "ConstructorWrapper"
)

// Member is the emitter's view of a wrapped member: symbolic names and
// descriptors only, no reflection.
type Member struct {
	Owner      string // internal class name the member is resolved against
	Name       string
	Descriptor string
	Static     bool
	Params     []string // parameter field descriptors
	Result     string   // result field descriptor, "" for void
}

// DescribeMember projects a member descriptor into the symbolic form the
// emitter consumes. Constructors surface under the "<init>" name of their
// result type.
func DescribeMember(d member.Descriptor) Member {
	m := Member{
		Owner:      d.OwnerInternalName(),
		Name:       d.Name(),
		Descriptor: d.MemberDescriptor(),
		Static:     d.IsStatic(),
	}
	if d.Kind() == member.KindConstructor {
		m.Name = MethodInit
	}
	for _, p := range d.ParameterTypes() {
		m.Params = append(m.Params, member.DescriptorOf(p))
	}
	if rt := d.ResultType(); rt != nil {
		m.Result = member.DescriptorOf(rt)
	}
	return m
}

// Artifact is a finished shim class, ready to hand to a loader.
type Artifact struct {
	Name  string
	Bytes []byte
}

// Emitter synthesizes shim classes stamped with the given class file
// major version.
type Emitter struct {
	Version uint16
}

// Consumer emits a final class implementing shimforge.Consumer whose
// typed accept forwards its single argument to the member, plus the
// erased bridge. Instance members get a private final "instance" field
// and a binding constructor.
func (e *Emitter) Consumer(name string, m Member) Artifact {
	c := e.newClass(name, ConsumerClass, GenConsumer)
	ownerDesc := "L" + m.Owner + ";"

	if m.Static {
		c.addDefaultInit(classfile.AccPublic)
	} else {
		c.addInstanceField(ownerDesc)
		c.addBindingInit(ownerDesc)
	}

	param := m.Params[0]
	typedDesc := "(" + param + ")V"

	b := NewCodeBuilder(2)
	if m.Static {
		b.ALoad(1)
		b.InvokeStatic(c.pool.Methodref(m.Owner, m.Name, m.Descriptor), 1, false)
	} else {
		b.ALoad(0)
		b.GetField(c.pool.Fieldref(name, InstanceField, ownerDesc))
		b.ALoad(1)
		b.InvokeVirtual(c.pool.Methodref(m.Owner, m.Name, m.Descriptor), 1, false)
	}
	b.Return()
	c.addMethod(classfile.AccPublic, MethodAccept, typedDesc, b.Build())

	br := NewCodeBuilder(2)
	br.ALoad(0)
	br.ALoad(1)
	br.Checkcast(c.pool.Class(mustClassName(param)))
	br.InvokeVirtual(c.pool.Methodref(name, MethodAccept, typedDesc), 1, false)
	br.Return()
	c.addMethod(bridgeFlags, MethodAccept, "("+ObjectDesc+")V", br.Build())

	return c.finish()
}

// SupplierMethod emits a final class implementing shimforge.Supplier
// whose typed get calls a zero-argument value-returning member.
func (e *Emitter) SupplierMethod(name string, m Member) Artifact {
	c := e.newClass(name, SupplierClass, GenSupplier)
	ownerDesc := "L" + m.Owner + ";"

	if m.Static {
		c.addDefaultInit(classfile.AccPublic)
	} else {
		c.addInstanceField(ownerDesc)
		c.addBindingInit(ownerDesc)
	}

	typedDesc := "()" + m.Result

	b := NewCodeBuilder(1)
	if m.Static {
		b.InvokeStatic(c.pool.Methodref(m.Owner, m.Name, m.Descriptor), 0, true)
	} else {
		b.ALoad(0)
		b.GetField(c.pool.Fieldref(name, InstanceField, ownerDesc))
		b.InvokeVirtual(c.pool.Methodref(m.Owner, m.Name, m.Descriptor), 0, true)
	}
	b.AReturn()
	c.addMethod(classfile.AccPublic, MethodGet, typedDesc, b.Build())

	c.addSupplierBridge(name, typedDesc)
	return c.finish()
}

// SupplierField emits a final class implementing shimforge.Supplier whose
// typed get reads a field. Every call re-reads the member; the artifact
// never captures a snapshot of the value.
func (e *Emitter) SupplierField(name string, m Member) Artifact {
	c := e.newClass(name, SupplierClass, GenSupplier)
	ownerDesc := "L" + m.Owner + ";"

	if m.Static {
		c.addDefaultInit(classfile.AccPublic)
	} else {
		c.addInstanceField(ownerDesc)
		c.addBindingInit(ownerDesc)
	}

	typedDesc := "()" + m.Result

	b := NewCodeBuilder(1)
	if m.Static {
		b.GetStatic(c.pool.Fieldref(m.Owner, m.Name, m.Descriptor))
	} else {
		b.ALoad(0)
		b.GetField(c.pool.Fieldref(name, InstanceField, ownerDesc))
		b.GetField(c.pool.Fieldref(m.Owner, m.Name, m.Descriptor))
	}
	b.AReturn()
	c.addMethod(classfile.AccPublic, MethodGet, typedDesc, b.Build())

	c.addSupplierBridge(name, typedDesc)
	return c.finish()
}

// Constructor emits a final class implementing
// shimforge.ConstructorInvoker. The class carries a static INSTANCE
// singleton initialized by <clinit>; its typed invoke unpacks the boxed
// argument array, checks each element against the declared parameter
// class and runs the constructor.
func (e *Emitter) Constructor(name string, m Member) Artifact {
	c := e.newClass(name, InvokerClass, GenConstructor)
	selfDesc := "L" + name + ";"

	c.addField(classfile.AccPublic|classfile.AccStatic|classfile.AccFinal, SingletonField, selfDesc)

	cl := NewCodeBuilder(0)
	cl.New(c.pool.Class(name))
	cl.Dup()
	cl.InvokeSpecial(c.pool.Methodref(name, MethodInit, "()V"), 0)
	cl.PutStatic(c.pool.Fieldref(name, SingletonField, selfDesc))
	cl.Return()
	c.addMethod(classfile.AccStatic, MethodClinit, "()V", cl.Build())

	c.addDefaultInit(classfile.AccPrivate)

	typedDesc := "(" + ObjectArrayDesc + ")L" + m.Owner + ";"

	b := NewCodeBuilder(2)
	b.New(c.pool.Class(m.Owner))
	b.Dup()
	for i, p := range m.Params {
		b.ALoad(1)
		b.IConst(i)
		b.AALoad()
		b.Checkcast(c.pool.Class(mustClassName(p)))
	}
	b.InvokeSpecial(c.pool.Methodref(m.Owner, MethodInit, m.Descriptor), len(m.Params))
	b.AReturn()
	c.addMethod(classfile.AccPublic|classfile.AccVarargs, MethodInvoke, typedDesc, b.Build())

	br := NewCodeBuilder(2)
	br.ALoad(0)
	br.ALoad(1)
	br.InvokeVirtual(c.pool.Methodref(name, MethodInvoke, typedDesc), 1, true)
	br.AReturn()
	c.addMethod(bridgeFlags|classfile.AccVarargs, MethodInvoke, "("+ObjectArrayDesc+")"+ObjectDesc, br.Build())

	return c.finish()
}

const bridgeFlags = classfile.AccPublic | classfile.AccBridge | classfile.AccSynthetic

// classBuilder accumulates one shim class.
type classBuilder struct {
	pool    *classfile.PoolBuilder
	name    string
	version uint16
	iface   string
	gen     string
	fields  []classfile.FieldInfo
	methods []classfile.MethodInfo
}

func (e *Emitter) newClass(name, iface, gen string) *classBuilder {
	return &classBuilder{
		pool:    classfile.NewPoolBuilder(),
		name:    name,
		version: e.Version,
		iface:   iface,
		gen:     gen,
	}
}

func (c *classBuilder) addField(flags uint16, name, desc string) {
	c.fields = append(c.fields, classfile.FieldInfo{
		AccessFlags:     flags,
		NameIndex:       c.pool.Utf8(name),
		DescriptorIndex: c.pool.Utf8(desc),
		Name:            name,
		Descriptor:      desc,
	})
}

func (c *classBuilder) addMethod(flags uint16, name, desc string, code *classfile.CodeAttribute) {
	c.methods = append(c.methods, classfile.MethodInfo{
		AccessFlags:     flags,
		NameIndex:       c.pool.Utf8(name),
		DescriptorIndex: c.pool.Utf8(desc),
		Name:            name,
		Descriptor:      desc,
		Attributes:      []classfile.AttributeInfo{c.pool.CodeAttribute(code)},
		Code:            code,
	})
}

func (c *classBuilder) addInstanceField(ownerDesc string) {
	c.addField(classfile.AccPrivate|classfile.AccFinal, InstanceField, ownerDesc)
}

// addBindingInit emits <init>(owner) storing the bound target in the
// instance field.
func (c *classBuilder) addBindingInit(ownerDesc string) {
	b := NewCodeBuilder(2)
	b.ALoad(0)
	b.InvokeSpecial(c.pool.Methodref(ObjectClass, MethodInit, "()V"), 0)
	b.ALoad(0)
	b.ALoad(1)
	b.PutField(c.pool.Fieldref(c.name, InstanceField, ownerDesc))
	b.Return()
	c.addMethod(classfile.AccPublic, MethodInit, "("+ownerDesc+")V", b.Build())
}

func (c *classBuilder) addDefaultInit(flags uint16) {
	b := NewCodeBuilder(1)
	b.ALoad(0)
	b.InvokeSpecial(c.pool.Methodref(ObjectClass, MethodInit, "()V"), 0)
	b.Return()
	c.addMethod(flags, MethodInit, "()V", b.Build())
}

func (c *classBuilder) addSupplierBridge(name, typedDesc string) {
	b := NewCodeBuilder(1)
	b.ALoad(0)
	b.InvokeVirtual(c.pool.Methodref(name, MethodGet, typedDesc), 0, true)
	b.AReturn()
	c.addMethod(bridgeFlags, MethodGet, "()"+ObjectDesc, b.Build())
}

func (c *classBuilder) finish() Artifact {
	this := c.pool.Class(c.name)
	super := c.pool.Class(ObjectClass)
	iface := c.pool.Class(c.iface)
	attrs := []classfile.AttributeInfo{
		c.pool.Utf8Attribute(classfile.AttrSource, SourceName),
		c.pool.Utf8Attribute(classfile.AttrGenerated, c.gen),
	}

	cf := &classfile.ClassFile{
		MajorVersion: c.version,
		ConstantPool: c.pool.Pool(),
		AccessFlags:  classfile.AccPublic | classfile.AccFinal | classfile.AccSuper,
		ThisClass:    this,
		SuperClass:   super,
		Interfaces:   []uint16{iface},
		Fields:       c.fields,
		Methods:      c.methods,
		Attributes:   attrs,
		Source:       SourceName,
		Generator:    c.gen,
	}
	return Artifact{Name: c.name, Bytes: classfile.Write(cf)}
}

// mustClassName extracts the class behind a field descriptor the emitter
// produced itself; a failure is a bug, not an input error.
func mustClassName(fieldDesc string) string {
	name, err := classfile.ClassNameOf(fieldDesc)
	if err != nil {
		panic(fmt.Sprintf("emit: %v", err))
	}
	return name
}
