package vm_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shimforge/shimforge/pkg/classfile"
	"github.com/shimforge/shimforge/pkg/emit"
	"github.com/shimforge/shimforge/pkg/vm"
)

func supplierArtifact(name string) emit.Artifact {
	e := &emit.Emitter{Version: 24}
	return e.SupplierMethod(name, emit.Member{
		Owner:      "demo.Gadget",
		Name:       "Describe",
		Descriptor: "()Lgo.string;",
		Result:     "Lgo.string;",
	})
}

func TestDefineOnce(t *testing.T) {
	l := vm.NewLoader(vm.NewRegistry(), nil)
	a := supplierArtifact("gen.Once$0")

	first, err := l.Define(a.Name, a.Bytes)
	require.NoError(t, err)
	second, err := l.Define(a.Name, a.Bytes)
	require.NoError(t, err)
	assert.Same(t, first, second, "a name must define exactly one type")

	got, ok := l.Lookup(a.Name)
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestDefineLazySkipsSupplierOnHit(t *testing.T) {
	l := vm.NewLoader(vm.NewRegistry(), nil)
	a := supplierArtifact("gen.Lazy$0")

	var calls atomic.Int32
	supplier := func() []byte {
		calls.Add(1)
		return a.Bytes
	}

	_, err := l.DefineLazy(a.Name, supplier)
	require.NoError(t, err)
	_, err = l.DefineLazy(a.Name, supplier)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "supplier must run only for the defining call")
}

func TestDefineConcurrent(t *testing.T) {
	l := vm.NewLoader(vm.NewRegistry(), nil)
	a := supplierArtifact("gen.Concurrent$0")

	var calls atomic.Int32
	results := make([]*vm.LoadedType, 16)

	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			lt, err := l.DefineLazy(a.Name, func() []byte {
				calls.Add(1)
				return a.Bytes
			})
			assert.NoError(t, err)
			results[i] = lt
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, lt := range results[1:] {
		assert.Same(t, results[0], lt)
	}
}

func TestLookupDuringDefine(t *testing.T) {
	l := vm.NewLoader(vm.NewRegistry(), nil)
	a := supplierArtifact("gen.Inflight$0")

	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := l.DefineLazy(a.Name, func() []byte {
			<-release
			return a.Bytes
		})
		assert.NoError(t, err)
	}()

	// Readers run while the definition is still in flight; they must
	// either miss or observe the fully defined type, never partial state.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if lt, ok := l.Lookup(a.Name); ok {
					assert.NotNil(t, lt)
				}
				for _, name := range l.Defined() {
					assert.Equal(t, a.Name, name)
				}
			}
		}()
	}
	close(release)
	wg.Wait()
	<-done

	lt, ok := l.Lookup(a.Name)
	require.True(t, ok)
	assert.Equal(t, a.Name, lt.Name)
}

func TestDefineErrorIsSticky(t *testing.T) {
	l := vm.NewLoader(vm.NewRegistry(), nil)
	a := supplierArtifact("gen.Sticky$0")

	_, err := l.Define(a.Name, []byte{0xDE, 0xAD})
	require.Error(t, err)

	// A later attempt with valid bytes observes the original failure.
	_, err2 := l.Define(a.Name, a.Bytes)
	require.Error(t, err2)
	assert.EqualError(t, err2, err.Error())

	_, ok := l.Lookup(a.Name)
	assert.False(t, ok)
}

func TestDefineRejectsNameMismatch(t *testing.T) {
	l := vm.NewLoader(vm.NewRegistry(), nil)
	a := supplierArtifact("gen.Declared$0")

	_, err := l.Define("gen.Other$0", a.Bytes)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declares class gen.Declared$0")
}

func TestDefineRejectsUnderstatedStackBudget(t *testing.T) {
	a := supplierArtifact("gen.Corrupt$0")
	cf, err := classfile.ParseBytes(a.Bytes)
	require.NoError(t, err)

	// Shrink the declared budget below what the body needs and rebuild
	// the attribute from the tampered Code.
	m := cf.FindMethod("<init>", "(Ldemo.Gadget;)V")
	require.NotNil(t, m)
	m.Code.MaxStack = 0
	for i := range m.Attributes {
		if m.Attributes[i].Name == classfile.AttrCode {
			m.Attributes[i].Data = classfile.EncodeCode(m.Code)
		}
	}

	l := vm.NewLoader(vm.NewRegistry(), nil)
	_, err = l.Define(a.Name, classfile.Write(cf))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds declared max")
}

func TestDefineRejectsMissingReturn(t *testing.T) {
	a := supplierArtifact("gen.NoRet$0")
	cf, err := classfile.ParseBytes(a.Bytes)
	require.NoError(t, err)

	m := cf.FindMethod("<init>", "(Ldemo.Gadget;)V")
	require.NotNil(t, m)
	m.Code.Code = m.Code.Code[:len(m.Code.Code)-1]
	for i := range m.Attributes {
		if m.Attributes[i].Name == classfile.AttrCode {
			m.Attributes[i].Data = classfile.EncodeCode(m.Code)
		}
	}

	l := vm.NewLoader(vm.NewRegistry(), nil)
	_, err = l.Define(a.Name, classfile.Write(cf))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "return")
}
