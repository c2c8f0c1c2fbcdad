package loader

import (
	"sync"

	"go.uber.org/zap"

	"github.com/nativebind/native-runtime/errors"
)

// Spec is a logical library reference: a name or path, an optional version
// token, and an optional deferred resolver producing the name at first use.
type Spec struct {
	// Name is a logical library name ("m"), a file name ("libm.so.6"),
	// or a qualified path ("/usr/lib/libm.so.6").
	Name string

	// Version is an optional "major[.minor.patch]" token appended per the
	// platform convention.
	Version string

	// Resolver, when set, supplies the name/path lazily. It is invoked at
	// most once, on first use; Name and Version are ignored.
	Resolver func() (string, error)

	once       sync.Once
	resolved   string
	resolveErr error
}

// reference returns the Spec's effective name, running a deferred resolver
// exactly once.
func (s *Spec) reference() (string, string, error) {
	if s.Resolver == nil {
		return s.Name, s.Version, nil
	}
	s.once.Do(func() {
		s.resolved, s.resolveErr = s.Resolver()
	})
	if s.resolveErr != nil {
		return "", "", errors.Wrap(errors.PhaseResolve, errors.KindLibraryNotFound, s.resolveErr, "deferred resolver failed")
	}
	return s.resolved, "", nil
}

// Library is a loaded native library: a resolved path plus the OS handle.
// Handles live for the process lifetime and are never closed.
type Library struct {
	path   string
	handle uintptr
}

// Path returns the resolved path the handle was opened from.
func (l *Library) Path() string { return l.path }

// Handle returns the raw OS handle.
func (l *Library) Handle() uintptr { return l.handle }

// Symbol resolves an exported symbol to its address. The loader performs
// no caching here; call sites cache the address themselves (see package
// call). Fails with SymbolNotFound naming both symbol and library.
func (l *Library) Symbol(name string) (uintptr, error) {
	addr, err := dlSym(l.handle, name)
	if err != nil {
		return 0, errors.SymbolNotFound(l.path, name, err)
	}
	return addr, nil
}

// Loader opens libraries and caches one handle per distinct resolved path.
type Loader struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// entry serializes first-time opening of one resolved path. One loader
// wins the dlopen; every other caller observes the cached result.
type entry struct {
	once sync.Once
	lib  *Library
	err  error
}

// NewLoader creates an empty loader with its own cache.
func NewLoader() *Loader {
	return &Loader{entries: make(map[string]*entry)}
}

// defaultLoader is the process-wide cache used by Load.
var defaultLoader = NewLoader()

// Default returns the process-wide loader.
func Default() *Loader { return defaultLoader }

// Load resolves and opens a library through the process-wide cache.
func Load(spec *Spec) (*Library, error) {
	return defaultLoader.Load(spec)
}

// Load resolves spec to a path and returns the cached handle, opening the
// path on first use. Distinct specs resolving to the same path share one
// handle.
func (ld *Loader) Load(spec *Spec) (*Library, error) {
	if spec == nil || (spec.Name == "" && spec.Resolver == nil) {
		return nil, errors.InvalidInput(errors.PhaseResolve, "empty library spec")
	}

	name, version, err := spec.reference()
	if err != nil {
		return nil, err
	}

	path, candidates, err := resolvePath(name, version)
	if err != nil {
		return nil, err
	}

	ld.mu.Lock()
	e, ok := ld.entries[path]
	if !ok {
		e = &entry{}
		ld.entries[path] = e
	}
	ld.mu.Unlock()

	e.once.Do(func() {
		handle, openErr := dlOpen(path)
		if openErr != nil {
			e.err = errors.LibraryNotFound(name, candidates, openErr)
			Logger().Debug("library open failed",
				zap.String("name", name),
				zap.String("path", path),
				zap.Error(openErr))
			return
		}
		e.lib = &Library{path: path, handle: handle}
		Logger().Debug("library opened",
			zap.String("name", name),
			zap.String("path", path))
	})

	if e.err != nil {
		return nil, e.err
	}
	return e.lib, nil
}

// Cached returns the number of distinct opened paths, for diagnostics.
func (ld *Loader) Cached() int {
	ld.mu.Lock()
	defer ld.mu.Unlock()
	n := 0
	for _, e := range ld.entries {
		if e.lib != nil {
			n++
		}
	}
	return n
}
