package memory

import (
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/nativebind/native-runtime/errors"
)

// Ownership tags every native block the engine tracks.
type Ownership uint8

const (
	// RuntimeManaged memory is freed at an unspecified time at-or-after
	// the owning Block becomes unreachable.
	RuntimeManaged Ownership = iota
	// ExplicitlyManaged memory is never freed by the engine; release
	// happens exactly once, through Release or by native code.
	ExplicitlyManaged
	// Foreign memory was not allocated by the engine and is never freed
	// by it under any circumstance.
	Foreign
)

var ownershipNames = [...]string{
	RuntimeManaged:    "runtime-managed",
	ExplicitlyManaged: "explicitly-managed",
	Foreign:           "foreign",
}

func (o Ownership) String() string {
	if int(o) < len(ownershipNames) {
		return ownershipNames[o]
	}
	return "unknown"
}

// EventType identifies a lifecycle transition of a tracked block.
type EventType uint8

const (
	EventAlloc   EventType = iota
	EventRetain            // RuntimeManaged promoted to ExplicitlyManaged
	EventRelease           // explicit release
	EventReclaim           // automatic release after unreachability
)

// Event describes one lifecycle transition.
type Event struct {
	Addr  uintptr
	Size  uintptr
	Owner Ownership
	Type  EventType
}

// Observer receives block lifecycle notifications.
type Observer interface {
	OnMemoryEvent(Event)
}

var (
	obsMu     sync.RWMutex
	observers []Observer
)

// Subscribe adds a lifecycle observer.
func Subscribe(o Observer) {
	obsMu.Lock()
	defer obsMu.Unlock()
	observers = append(observers, o)
}

// Unsubscribe removes a lifecycle observer.
func Unsubscribe(o Observer) {
	obsMu.Lock()
	defer obsMu.Unlock()
	for i, obs := range observers {
		if obs == o {
			observers = append(observers[:i], observers[i+1:]...)
			return
		}
	}
}

func notify(ev Event) {
	obsMu.RLock()
	defer obsMu.RUnlock()
	for _, o := range observers {
		o.OnMemoryEvent(ev)
	}
}

// releaseEntry guards one allocation so the underlying free runs at most
// once no matter which path (cleanup or explicit release) reaches it first.
type releaseEntry struct {
	once sync.Once
	size uintptr
}

var releases sync.Map // addr -> *releaseEntry

func releaseOnce(addr uintptr, kind EventType) bool {
	v, ok := releases.Load(addr)
	if !ok {
		return false
	}
	e := v.(*releaseEntry)
	ran := false
	e.once.Do(func() {
		nativeFree(addr)
		releases.Delete(addr)
		notify(Event{Addr: addr, Size: e.size, Type: kind})
		ran = true
	})
	return ran
}

// Block is a tracked range of native memory interpreted through a declared
// type by the caller. The zero Block is a null Foreign block.
type Block struct {
	addr  uintptr
	size  uintptr
	mu    sync.Mutex
	owner Ownership
	freed bool
	clean runtime.Cleanup
}

// Addr returns the native base address.
func (b *Block) Addr() uintptr { return b.addr }

// Size returns the allocation size in bytes.
func (b *Block) Size() uintptr { return b.size }

// Owner returns the current ownership tag.
func (b *Block) Owner() Ownership {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.owner
}

// Alloc allocates size bytes of zeroed native memory, tagged RuntimeManaged.
func Alloc(size uintptr) (*Block, error) {
	addr := nativeAlloc(size)
	if addr == 0 {
		return nil, errors.AllocationFailed(size, 1)
	}
	b := &Block{addr: addr, size: size, owner: RuntimeManaged}
	releases.Store(addr, &releaseEntry{size: size})
	// The cleanup must not capture b, or b never becomes unreachable.
	b.clean = runtime.AddCleanup(b, func(a uintptr) {
		releaseOnce(a, EventReclaim)
	}, addr)
	notify(Event{Addr: addr, Size: size, Owner: RuntimeManaged, Type: EventAlloc})
	return b, nil
}

// AllocExplicit allocates size bytes tagged ExplicitlyManaged from the
// start: the engine will never free them behind the caller's back.
func AllocExplicit(size uintptr) (*Block, error) {
	addr := nativeAlloc(size)
	if addr == 0 {
		return nil, errors.AllocationFailed(size, 1)
	}
	releases.Store(addr, &releaseEntry{size: size})
	notify(Event{Addr: addr, Size: size, Owner: ExplicitlyManaged, Type: EventAlloc})
	return &Block{addr: addr, size: size, owner: ExplicitlyManaged}, nil
}

// WrapForeign wraps memory returned by native code. The engine tracks the
// address for typed access but will never free it.
func WrapForeign(addr, size uintptr) *Block {
	return &Block{addr: addr, size: size, owner: Foreign}
}

// Retain promotes a RuntimeManaged block to ExplicitlyManaged, detaching
// it from automatic reclamation. Responsibility for release shifts wholly
// to the caller (or to native code), exactly once. Retaining an already
// explicit or Foreign block is a no-op.
func (b *Block) Retain() *Block {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.owner != RuntimeManaged {
		return b
	}
	b.clean.Stop()
	b.owner = ExplicitlyManaged
	notify(Event{Addr: b.addr, Size: b.size, Owner: ExplicitlyManaged, Type: EventRetain})
	Logger().Debug("block retained", zap.Uintptr("addr", b.addr), zap.Uintptr("size", b.size))
	return b
}

// Release frees an ExplicitlyManaged block. The second release of the
// same block fails with DoubleRelease; releasing RuntimeManaged or
// Foreign memory is refused.
func (b *Block) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.owner {
	case RuntimeManaged:
		return errors.InvalidInput(errors.PhaseMemory, "runtime-managed memory is released by the runtime; call Retain first to take ownership")
	case Foreign:
		return errors.InvalidInput(errors.PhaseMemory, "foreign memory is never released by the engine")
	}
	if b.freed {
		return errors.DoubleRelease(b.addr)
	}
	b.freed = true
	releaseOnce(b.addr, EventRelease)
	return nil
}
