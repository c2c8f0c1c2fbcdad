package types

import (
	"sync"

	"github.com/nativebind/native-runtime/errors"
)

// Registry holds named composite types and computes their layouts at
// registration time, not at call time. A registered Type is immutable.
type Registry struct {
	mu    sync.RWMutex
	types map[string]*Type
}

// NewRegistry creates an empty type registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*Type)}
}

// Register names a type, computes its concrete layout (field offsets,
// total size, alignment) and rejects any member with no known native
// representation. Registration of an already-registered descriptor under
// a second name is allowed; re-registering a name is not.
func (r *Registry) Register(name string, t *Type) (*Type, error) {
	if name == "" {
		return nil, errors.InvalidInput(errors.PhaseRegister, "type name must not be empty")
	}
	if err := completeAny(t); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.types[name]; exists {
		return nil, errors.InvalidInput(errors.PhaseRegister, "duplicate type name: "+name)
	}
	if t.name == "" {
		t.name = name
	}
	r.types[name] = t
	return t, nil
}

// Lookup returns the type registered under name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

// completeAny computes layout for aggregates and accepts already-laid
// scalar and pointer-like shapes as-is.
func completeAny(t *Type) error {
	if t == nil {
		return errors.UnsupportedType("nil", "missing type descriptor")
	}
	if t.laid {
		return nil
	}
	return Complete(t)
}
