// Package wrapper is the public facade: it turns host members into
// generated shim wrappers. Every wrapper is backed by a synthesized class
// defined in the runtime's loader; wrapping the same member twice returns
// the same wrapper.
package wrapper

import (
	"sync"

	"go.uber.org/zap"

	"github.com/shimforge/shimforge/pkg/emit"
	"github.com/shimforge/shimforge/pkg/member"
	"github.com/shimforge/shimforge/pkg/vm"
)

// Runtime owns a registry, a loader and the wrapper caches. Independent
// runtimes share nothing: classes defined in one are invisible to
// another.
type Runtime struct {
	log     *zap.Logger
	reg     *vm.Registry
	loader  *vm.Loader
	emitter *emit.Emitter
	names   *nameGen

	// verErr records a failed platform version gate; every wrap attempt
	// surfaces it.
	verErr error

	consumers    cache[*Consumer]
	suppliers    cache[*Supplier]
	constructors cache[*ConstructorInvoker]
}

// New creates a runtime. The platform version is resolved once here;
// wrapping reports an UnsupportedPlatformError if the runtime is older
// than the configured minimum.
func New(opts ...Option) *Runtime {
	cfg := buildConfig(opts)

	reg := vm.NewRegistry()
	r := &Runtime{
		log:    cfg.log,
		reg:    reg,
		loader: vm.NewLoader(reg, cfg.log),
		names:  newNameGen(cfg.base),
	}

	version, err := emit.VersionFor(cfg.minPlatform, "shim class generation")
	if err != nil {
		r.verErr = err
		return r
	}
	r.emitter = &emit.Emitter{Version: version}
	return r
}

var defaultRuntime = sync.OnceValue(func() *Runtime { return New() })

// Default returns the shared process-wide runtime.
func Default() *Runtime { return defaultRuntime() }

// Loader exposes the runtime's loader, mainly so callers can inspect
// what has been defined.
func (r *Runtime) Loader() *vm.Loader { return r.loader }

// bindReferenced registers everything a member's trampoline will touch:
// the member itself plus the owner, parameter and result types its
// references and casts resolve against.
func (r *Runtime) bindReferenced(d member.Descriptor) {
	r.reg.BindMember(d)
	if t := d.Owner(); t != nil {
		r.reg.RegisterType(t)
	}
	for _, p := range d.ParameterTypes() {
		r.reg.RegisterType(p)
	}
	if rt := d.ResultType(); rt != nil {
		r.reg.RegisterType(rt)
	}
}

// define emits through the loader's lazy path, so a name that somehow
// already exists skips generation entirely.
func (r *Runtime) define(name string, generate func() emit.Artifact) (*vm.LoadedType, error) {
	return r.loader.DefineLazy(name, func() []byte {
		return generate().Bytes
	})
}
