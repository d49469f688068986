package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameStackIsLIFO(t *testing.T) {
	f := NewFrame(nil, 3, 0, nil)
	f.Push("a")
	f.Push("b")
	f.Push("c")

	assert.Equal(t, "c", f.Peek())
	assert.Equal(t, "c", f.Pop())
	assert.Equal(t, "b", f.Pop())
	assert.Equal(t, "a", f.Pop())
	assert.Panics(t, func() { f.Pop() })
}

func TestFrameLocals(t *testing.T) {
	f := NewFrame(nil, 0, 3, []any{"recv", 42})

	assert.Equal(t, "recv", f.Local(0))
	assert.Equal(t, 42, f.Local(1))
	assert.Nil(t, f.Local(2))

	f.SetLocal(2, "late")
	assert.Equal(t, "late", f.Local(2))
}

func TestFramePopArgsRestoresOrder(t *testing.T) {
	f := NewFrame(nil, 4, 0, nil)
	f.Push("recv")
	f.Push("first")
	f.Push("second")
	f.Push("third")

	assert.Equal(t, []any{"first", "second", "third"}, f.popArgs(3))
	assert.Equal(t, "recv", f.Pop())
}

func TestFrameReadsCode(t *testing.T) {
	f := NewFrame([]byte{0x2A, 0xB6, 0x01, 0x02}, 1, 1, nil)

	assert.False(t, f.End())
	assert.Equal(t, byte(0x2A), f.ReadU8())
	assert.Equal(t, byte(0xB6), f.ReadU8())
	assert.Equal(t, uint16(0x0102), f.ReadU16())
	assert.True(t, f.End())
}
