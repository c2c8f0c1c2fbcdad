package memory

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	nerrors "github.com/nativebind/native-runtime/errors"
)

// countingObserver records lifecycle events per address.
type countingObserver struct {
	mu     sync.Mutex
	events map[uintptr][]EventType
}

func newCountingObserver() *countingObserver {
	return &countingObserver{events: make(map[uintptr][]EventType)}
}

func (o *countingObserver) OnMemoryEvent(ev Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events[ev.Addr] = append(o.events[ev.Addr], ev.Type)
}

func (o *countingObserver) count(addr uintptr, t EventType) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, ev := range o.events[addr] {
		if ev == t {
			n++
		}
	}
	return n
}

func TestAllocDefaultsToRuntimeManaged(t *testing.T) {
	b, err := Alloc(32)
	if err != nil {
		t.Skipf("native allocation unavailable: %v", err)
	}
	if b.Owner() != RuntimeManaged {
		t.Errorf("owner: got %v, want runtime-managed", b.Owner())
	}
	if b.Addr() == 0 || b.Size() != 32 {
		t.Errorf("bad block: addr=%#x size=%d", b.Addr(), b.Size())
	}
	for _, v := range Bytes(b.Addr(), b.Size()) {
		if v != 0 {
			t.Fatal("allocation must be zeroed")
		}
	}
	runtime.KeepAlive(b)
}

// Forcing a collection cycle after dropping the only reference must fire
// the release hook exactly once, and never before unreachability.
func TestReclaimFiresExactlyOnce(t *testing.T) {
	obs := newCountingObserver()
	Subscribe(obs)
	defer Unsubscribe(obs)

	b, err := Alloc(64)
	if err != nil {
		t.Skipf("native allocation unavailable: %v", err)
	}
	addr := b.Addr()

	runtime.GC()
	if got := obs.count(addr, EventReclaim); got != 0 {
		t.Fatalf("block reclaimed while still reachable (%d events)", got)
	}
	runtime.KeepAlive(b)
	b = nil

	deadline := time.Now().Add(5 * time.Second)
	for obs.count(addr, EventReclaim) == 0 && time.Now().Before(deadline) {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	// Extra cycles must not fire the hook again.
	runtime.GC()
	runtime.GC()
	time.Sleep(50 * time.Millisecond)

	if got := obs.count(addr, EventReclaim); got != 1 {
		t.Errorf("release hook fired %d times, want exactly 1", got)
	}
}

func TestRetainExcludesFromReclamation(t *testing.T) {
	obs := newCountingObserver()
	Subscribe(obs)
	defer Unsubscribe(obs)

	b, err := Alloc(16)
	if err != nil {
		t.Skipf("native allocation unavailable: %v", err)
	}
	addr := b.Addr()
	b.Retain()
	if b.Owner() != ExplicitlyManaged {
		t.Fatalf("owner after retain: got %v", b.Owner())
	}
	b = nil

	for i := 0; i < 10; i++ {
		runtime.GC()
		time.Sleep(5 * time.Millisecond)
	}
	if got := obs.count(addr, EventReclaim); got != 0 {
		t.Errorf("retained block was reclaimed %d times", got)
	}
	// The address is deliberately leaked here: ownership moved to the test.
}

func TestExplicitReleaseExactlyOnce(t *testing.T) {
	b, err := AllocExplicit(16)
	if err != nil {
		t.Skipf("native allocation unavailable: %v", err)
	}
	if err := b.Release(); err != nil {
		t.Fatalf("first release: %v", err)
	}
	err = b.Release()
	if err == nil {
		t.Fatal("second release must fail")
	}
	target := &nerrors.Error{Phase: nerrors.PhaseMemory, Kind: nerrors.KindDoubleRelease}
	if !errors.Is(err, target) {
		t.Errorf("want DoubleRelease, got %v", err)
	}
}

func TestReleaseRefusals(t *testing.T) {
	t.Run("runtime_managed", func(t *testing.T) {
		b, err := Alloc(8)
		if err != nil {
			t.Skipf("native allocation unavailable: %v", err)
		}
		if err := b.Release(); err == nil {
			t.Error("releasing runtime-managed memory must be refused")
		}
		runtime.KeepAlive(b)
	})

	t.Run("foreign", func(t *testing.T) {
		var backing [8]byte
		b := WrapForeign(uintptr(addrOf(&backing[0])), 8)
		if err := b.Release(); err == nil {
			t.Error("foreign memory must never be released by the engine")
		}
	})
}

func TestRetainOnRetainedIsNoop(t *testing.T) {
	b, err := Alloc(8)
	if err != nil {
		t.Skipf("native allocation unavailable: %v", err)
	}
	b.Retain()
	b.Retain()
	if b.Owner() != ExplicitlyManaged {
		t.Errorf("owner: got %v", b.Owner())
	}
	if err := b.Release(); err != nil {
		t.Errorf("release after double retain: %v", err)
	}
}
