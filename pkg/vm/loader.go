package vm

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/shimforge/shimforge/pkg/classfile"
)

// Loader defines shim classes, at most once per name. Every definition is
// parsed and structurally verified before it becomes visible; a name that
// failed definition stays failed, and later attempts under the same name
// observe the original error without running their suppliers.
type Loader struct {
	mu      sync.Mutex
	entries map[string]*loaderEntry
	loaded  map[string]*LoadedType
	reg     *Registry
	log     *zap.Logger
}

type loaderEntry struct {
	once sync.Once
	lt   *LoadedType
	err  error
}

// NewLoader returns a loader resolving host references through reg.
func NewLoader(reg *Registry, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		entries: make(map[string]*loaderEntry),
		loaded:  make(map[string]*LoadedType),
		reg:     reg,
		log:     log,
	}
}

// Define defines the named class from its binary form. The first call
// under a name wins; subsequent calls return the already-defined type.
func (l *Loader) Define(name string, data []byte) (*LoadedType, error) {
	return l.DefineLazy(name, func() []byte { return data })
}

// DefineLazy defines the named class, invoking supplier for the bytes
// only if the name has never been defined. Concurrent callers for the
// same name are serialized; exactly one runs the supplier.
func (l *Loader) DefineLazy(name string, supplier func() []byte) (*LoadedType, error) {
	e := l.entry(name)
	e.once.Do(func() {
		e.lt, e.err = l.define(name, supplier())
		if e.err != nil {
			e.lt = nil
			l.log.Debug("shim class rejected",
				zap.String("name", name),
				zap.Error(e.err))
			return
		}
		// Publish under the lock so Lookup and Defined never touch the
		// entry fields the once is still writing.
		l.mu.Lock()
		l.loaded[name] = e.lt
		l.mu.Unlock()
	})
	return e.lt, e.err
}

// Lookup returns the already-defined type for a name.
func (l *Loader) Lookup(name string) (*LoadedType, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lt, ok := l.loaded[name]
	return lt, ok
}

// Defined reports the names of every successfully defined class.
func (l *Loader) Defined() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, 0, len(l.loaded))
	for name := range l.loaded {
		names = append(names, name)
	}
	return names
}

func (l *Loader) entry(name string) *loaderEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[name]
	if !ok {
		e = &loaderEntry{}
		l.entries[name] = e
	}
	return e
}

func (l *Loader) define(name string, data []byte) (*LoadedType, error) {
	cf, err := classfile.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("defining %s: %w", name, err)
	}

	declared, err := cf.ClassName()
	if err != nil {
		return nil, fmt.Errorf("defining %s: %w", name, err)
	}
	if declared != name {
		return nil, fmt.Errorf("defining %s: artifact declares class %s", name, declared)
	}

	if err := verifyClass(cf); err != nil {
		return nil, fmt.Errorf("defining %s: %w", name, err)
	}

	lt := &LoadedType{
		Name:    name,
		File:    cf,
		Bytes:   data,
		loader:  l,
		statics: make(map[string]any),
	}

	if clinit := cf.FindMethod("<clinit>", "()V"); clinit != nil {
		if _, err := lt.exec(clinit, nil); err != nil {
			return nil, fmt.Errorf("initializing %s: %w", name, err)
		}
	}

	l.log.Debug("defined shim class",
		zap.String("name", name),
		zap.String("generator", cf.Generator),
		zap.Int("size", len(data)))
	return lt, nil
}
