package wrapper_test

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shimforge/shimforge/pkg/member"
	"github.com/shimforge/shimforge/pkg/vm"
	"github.com/shimforge/shimforge/pkg/wrapper"
)

type Gizmo struct {
	Label  string
	hidden int
}

func (g Gizmo) Describe() string { return "gizmo " + g.Label }

func (g *Gizmo) SetLabel(label string) { g.Label = label }

type sealed struct{ Value string }

func (s sealed) Value2() string { return s.Value }

var recorded []string

func Record(s string) { recorded = append(recorded, s) }

func Greeting() string { return "hello" }

var Capacity = 10

func NewPair(left, right string) string { return left + "|" + right }

func NewGizmo(label string) *Gizmo { return &Gizmo{Label: label} }

func TestWrapMemoization(t *testing.T) {
	rt := wrapper.New()

	c1, err := rt.ConsumerOfFunc(Record)
	require.NoError(t, err)
	c2, err := rt.ConsumerOfFunc(Record)
	require.NoError(t, err)
	assert.Same(t, c1, c2, "wrapping the same member twice must return the same wrapper")

	s1, err := rt.SupplierOf(Gizmo{}, "Describe")
	require.NoError(t, err)
	s2, err := rt.SupplierOf(Gizmo{}, "Describe")
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	// A method supplier and a field supplier over the same type are
	// distinct wrappers.
	f1, err := rt.SupplierOfField(Gizmo{}, "Label")
	require.NoError(t, err)
	assert.NotSame(t, s1, f1)

	i1, err := rt.ConstructorOf(NewGizmo)
	require.NoError(t, err)
	i2, err := rt.ConstructorOf(NewGizmo)
	require.NoError(t, err)
	assert.Same(t, i1, i2)

	// Independent runtimes share nothing.
	other := wrapper.New()
	c3, err := other.ConsumerOfFunc(Record)
	require.NoError(t, err)
	assert.NotSame(t, c1, c3)
}

func TestWrapConcurrent(t *testing.T) {
	rt := wrapper.New()

	results := make([]*wrapper.Supplier, 16)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := rt.SupplierOfFunc(Greeting)
			assert.NoError(t, err)
			results[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range results[1:] {
		assert.Same(t, results[0], s)
	}
}

func TestStaticConsumer(t *testing.T) {
	rt := wrapper.New()
	c, err := rt.ConsumerOfFunc(Record)
	require.NoError(t, err)
	require.True(t, c.IsStatic())

	recorded = nil
	require.NoError(t, c.Accept("one"))
	require.NoError(t, c.Accept("two"))
	assert.Equal(t, []string{"one", "two"}, recorded)

	t.Run("rejects mistyped value", func(t *testing.T) {
		err := c.Accept(42)
		require.Error(t, err)
		var cast *vm.CastError
		assert.ErrorAs(t, err, &cast)
	})

	t.Run("cannot be bound", func(t *testing.T) {
		_, err := c.OnTarget(&Gizmo{})
		var mode *wrapper.BindingModeError
		require.ErrorAs(t, err, &mode)
		assert.True(t, mode.Static)
	})
}

func TestInstanceConsumer(t *testing.T) {
	rt := wrapper.New()
	c, err := rt.ConsumerOf(&Gizmo{}, "SetLabel")
	require.NoError(t, err)
	require.False(t, c.IsStatic())

	t.Run("requires a target", func(t *testing.T) {
		err := c.Accept("x")
		var mode *wrapper.BindingModeError
		require.ErrorAs(t, err, &mode)
		assert.False(t, mode.Static)
	})

	t.Run("bound accept mutates the target", func(t *testing.T) {
		g := &Gizmo{Label: "old"}
		bound, err := c.OnTarget(g)
		require.NoError(t, err)
		require.NoError(t, bound.Accept("new"))
		assert.Equal(t, "new", g.Label)
	})

	t.Run("each binding is independent", func(t *testing.T) {
		a, b := &Gizmo{}, &Gizmo{}
		ba, err := c.OnTarget(a)
		require.NoError(t, err)
		bb, err := c.OnTarget(b)
		require.NoError(t, err)
		require.NoError(t, ba.Accept("left"))
		require.NoError(t, bb.Accept("right"))
		assert.Equal(t, "left", a.Label)
		assert.Equal(t, "right", b.Label)
	})

	t.Run("rejects foreign target", func(t *testing.T) {
		_, err := c.OnTarget("not a gizmo")
		var tt *wrapper.TargetTypeError
		assert.ErrorAs(t, err, &tt)
	})

	t.Run("rejects nil target", func(t *testing.T) {
		_, err := c.OnTarget(nil)
		var tt *wrapper.TargetTypeError
		assert.ErrorAs(t, err, &tt)
	})
}

func TestSupplierMethod(t *testing.T) {
	rt := wrapper.New()

	t.Run("static function", func(t *testing.T) {
		s, err := rt.SupplierOfFunc(Greeting)
		require.NoError(t, err)
		require.True(t, s.IsStatic())
		assert.False(t, s.WrapsField())

		got, err := s.Get()
		require.NoError(t, err)
		assert.Equal(t, "hello", got)
	})

	t.Run("instance method", func(t *testing.T) {
		s, err := rt.SupplierOf(Gizmo{}, "Describe")
		require.NoError(t, err)

		_, err = s.Get()
		var mode *wrapper.BindingModeError
		require.ErrorAs(t, err, &mode)

		bound, err := s.OnTarget(Gizmo{Label: "bound"})
		require.NoError(t, err)
		got, err := bound.Get()
		require.NoError(t, err)
		assert.Equal(t, "gizmo bound", got)
	})

	t.Run("pointer target for value receiver", func(t *testing.T) {
		s, err := rt.SupplierOf(Gizmo{}, "Describe")
		require.NoError(t, err)
		bound, err := s.OnTarget(&Gizmo{Label: "deref"})
		require.NoError(t, err)
		got, err := bound.Get()
		require.NoError(t, err)
		assert.Equal(t, "gizmo deref", got)
	})
}

func TestSupplierFieldReadsAreLive(t *testing.T) {
	rt := wrapper.New()

	t.Run("package variable", func(t *testing.T) {
		s, err := rt.SupplierOfVar("wrapper_test.Capacity", &Capacity)
		require.NoError(t, err)
		require.True(t, s.WrapsField())

		Capacity = 10
		got, err := s.Get()
		require.NoError(t, err)
		assert.Equal(t, 10, got)

		Capacity = 99
		got, err = s.Get()
		require.NoError(t, err)
		assert.Equal(t, 99, got, "variable reads must observe the current value")
	})

	t.Run("struct field through pointer target", func(t *testing.T) {
		s, err := rt.SupplierOfField(Gizmo{}, "Label")
		require.NoError(t, err)

		g := &Gizmo{Label: "before"}
		bound, err := s.OnTarget(g)
		require.NoError(t, err)

		got, err := bound.Get()
		require.NoError(t, err)
		assert.Equal(t, "before", got)

		g.Label = "after"
		got, err = bound.Get()
		require.NoError(t, err)
		assert.Equal(t, "after", got, "field reads must follow the bound target")
	})
}

func TestConstructorInvoker(t *testing.T) {
	rt := wrapper.New()
	ci, err := rt.ConstructorOf(NewPair)
	require.NoError(t, err)
	require.Len(t, ci.ParameterTypes(), 2)

	t.Run("arguments keep declaration order", func(t *testing.T) {
		got, err := ci.Invoke("left", "right")
		require.NoError(t, err)
		assert.Equal(t, "left|right", got)
	})

	t.Run("mistyped argument", func(t *testing.T) {
		_, err := ci.Invoke("left", 2)
		require.Error(t, err)
		var cast *vm.CastError
		assert.ErrorAs(t, err, &cast)
	})

	t.Run("missing argument", func(t *testing.T) {
		_, err := ci.Invoke("left")
		require.Error(t, err)
		var oor *vm.OutOfRangeError
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, 1, oor.Index)
	})

	t.Run("pointer result", func(t *testing.T) {
		gi, err := rt.ConstructorOf(NewGizmo)
		require.NoError(t, err)
		got, err := gi.Invoke("built")
		require.NoError(t, err)
		require.IsType(t, &Gizmo{}, got)
		assert.Equal(t, "built", got.(*Gizmo).Label)
	})
}

func TestValidationRejections(t *testing.T) {
	rt := wrapper.New()

	t.Run("consumer with return value", func(t *testing.T) {
		_, err := rt.ConsumerOf(Gizmo{}, "Describe")
		assert.ErrorIs(t, err, member.ErrArityMismatch)
	})

	t.Run("supplier with parameters", func(t *testing.T) {
		_, err := rt.SupplierOf(&Gizmo{}, "SetLabel")
		assert.ErrorIs(t, err, member.ErrArityMismatch)
	})

	t.Run("unexported declaring type", func(t *testing.T) {
		_, err := rt.SupplierOf(sealed{}, "Value2")
		assert.ErrorIs(t, err, member.ErrNotPublicDeclaringType)
	})

	t.Run("unexported field", func(t *testing.T) {
		_, err := rt.SupplierOfField(Gizmo{}, "hidden")
		assert.ErrorIs(t, err, member.ErrNotPublicMember)
	})

	t.Run("nothing is cached for rejected members", func(t *testing.T) {
		_, err := rt.ConsumerOf(Gizmo{}, "Describe")
		require.Error(t, err)
		assert.Empty(t, rt.Loader().Defined(), "rejected members must not define classes")
	})
}

func TestGeneratedNames(t *testing.T) {
	rt := wrapper.New(wrapper.WithBaseNamespace("test.gen"))

	c, err := rt.ConsumerOfFunc(Record)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(c.GeneratedName(), "test.gen.Consumer$"), "got %q", c.GeneratedName())
	assert.Contains(t, c.GeneratedName(), "Record")

	s, err := rt.SupplierOf(Gizmo{}, "Describe")
	require.NoError(t, err)
	assert.Contains(t, s.GeneratedName(), "Gizmo_Describe")

	ci, err := rt.ConstructorOf(NewPair)
	require.NoError(t, err)
	assert.Contains(t, ci.GeneratedName(), "ConstructorInvoker$")
	assert.Contains(t, ci.GeneratedName(), "string_string")

	t.Run("no-parameter constructor", func(t *testing.T) {
		gi, err := rt.ConstructorOf(NewClock)
		require.NoError(t, err)
		assert.Contains(t, gi.GeneratedName(), "noParameters")
	})

	t.Run("long parameter lists are capped", func(t *testing.T) {
		gi, err := rt.ConstructorOf(NewWide)
		require.NoError(t, err)
		assert.Contains(t, gi.GeneratedName(), "and2More")
	})

	t.Run("names are unique across wrappers", func(t *testing.T) {
		seen := map[string]bool{}
		for _, name := range []string{c.GeneratedName(), s.GeneratedName(), ci.GeneratedName()} {
			assert.False(t, seen[name], "duplicate generated name %q", name)
			seen[name] = true
		}
	})
}

type Clock struct{ TZ string }

func NewClock() Clock { return Clock{TZ: "UTC"} }

func NewWide(a, b, c, d, e, f, g string) string {
	return strings.Join([]string{a, b, c, d, e, f, g}, "")
}

func TestArtifactBytesAreDetached(t *testing.T) {
	rt := wrapper.New()
	s, err := rt.SupplierOfFunc(Greeting)
	require.NoError(t, err)

	b1 := s.ArtifactBytes()
	require.NotEmpty(t, b1)
	b1[0] = 0xFF
	b2 := s.ArtifactBytes()
	assert.NotEqual(t, b1[0], b2[0], "returned bytes must be a copy")
}

func TestMinPlatformVersionGate(t *testing.T) {
	rt := wrapper.New(wrapper.WithMinPlatformVersion(9000))

	_, err := rt.SupplierOfFunc(Greeting)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires go9000 or greater")

	// Every shape reports the same failure.
	_, cerr := rt.ConsumerOfFunc(Record)
	assert.EqualError(t, cerr, err.Error())
	_, ierr := rt.ConstructorOf(NewPair)
	assert.EqualError(t, ierr, err.Error())
}

func TestDefaultRuntimeConveniences(t *testing.T) {
	s, err := wrapper.SupplierOfFunc(Greeting)
	require.NoError(t, err)
	got, err := s.Get()
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	s2, err := wrapper.SupplierOfFunc(Greeting)
	require.NoError(t, err)
	assert.Same(t, s, s2)
}

func ExampleRuntime_ConstructorOf() {
	rt := wrapper.New()
	ci, _ := rt.ConstructorOf(NewGizmo)
	out, _ := ci.Invoke("example")
	fmt.Println(out.(*Gizmo).Label)
	// Output: example
}
