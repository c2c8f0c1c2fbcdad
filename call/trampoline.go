package call

import (
	"runtime"
	"runtime/cgo"
	"sync"
	"unsafe"

	"go.uber.org/zap"

	"github.com/nativebind/native-runtime/errors"
	"github.com/nativebind/native-runtime/memory"
	"github.com/nativebind/native-runtime/types"
)

// Closure is a managed function exposed to native code. Native callers
// may invoke it from any thread, at any time, concurrently with the
// registering goroutine and with other invocations; the closure must be
// safe under that contract. The returned value is marshalled as the
// callback type's declared result.
type Closure func(args []any) any

// trampolineState is what the native entry point reaches through its
// handle. Kept separate from Trampoline so the cleanup attached to the
// Trampoline can run: the handle must not pin the owner.
type trampolineState struct {
	params []*types.Type
	result *types.Type
	fn     Closure
}

// Trampoline is a native-callable code address bound to a managed
// closure. It stays valid while the Trampoline is reachable; Retain
// extends that to an explicit Release, for callbacks native code stores
// past the registering call.
type Trampoline struct {
	typ     *types.Type
	state   *trampolineState
	handle  cgo.Handle
	closure unsafe.Pointer
	code    uintptr

	mu       sync.Mutex
	retained bool
	freed    bool
	clean    runtime.Cleanup
}

// NewTrampoline builds a native entry point for fn with the given
// callback type. Callback signatures carry scalars and pointer-shaped
// values only; aggregates cross by address on the native side.
func NewTrampoline(t *types.Type, fn Closure) (*Trampoline, error) {
	if t == nil || t.Kind() != types.KindCallback {
		return nil, errors.InvalidInput(errors.PhaseCallback, "trampoline requires a callback type")
	}
	if fn == nil {
		return nil, errors.InvalidInput(errors.PhaseCallback, "nil closure")
	}
	for _, p := range t.Params() {
		if p.Kind().IsAggregate() {
			return nil, errors.UnsupportedType(p.Name(), "callbacks take aggregates by pointer, not by value")
		}
	}
	result := t.Result()
	if result == nil {
		result = types.Void()
	}
	if result.Kind().IsAggregate() {
		return nil, errors.UnsupportedType(result.Name(), "callbacks cannot return aggregates by value")
	}

	params := make([]Param, len(t.Params()))
	for i, p := range t.Params() {
		params[i] = Param{Type: p}
	}
	cif, err := prepareCIF(params, result)
	if err != nil {
		return nil, err
	}

	closure, code, err := closureAlloc()
	if err != nil {
		return nil, err
	}
	state := &trampolineState{params: t.Params(), result: result, fn: fn}
	handle := cgo.NewHandle(state)
	if err := closurePrep(cif, closure, uintptr(handle), code); err != nil {
		closureFree(closure)
		handle.Delete()
		return nil, err
	}

	tr := &Trampoline{typ: t, state: state, handle: handle, closure: closure, code: code}
	// The cleanup must not capture tr, or tr never becomes unreachable.
	tr.clean = runtime.AddCleanup(tr, func(p trampolinePin) {
		closureFree(p.closure)
		p.handle.Delete()
	}, trampolinePin{closure: closure, handle: handle})
	Logger().Debug("trampoline created", zap.Uintptr("code", code))
	return tr, nil
}

type trampolinePin struct {
	closure unsafe.Pointer
	handle  cgo.Handle
}

// Addr returns the native code address to hand to the callee.
func (t *Trampoline) Addr() uintptr { return t.code }

// Type returns the callback type descriptor.
func (t *Trampoline) Type() *types.Type { return t.typ }

// Retain detaches the trampoline from automatic reclamation. Use it when
// native code stores the code address beyond the call that registered it;
// release explicitly once native code can no longer invoke it.
func (t *Trampoline) Retain() *Trampoline {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.retained && !t.freed {
		t.clean.Stop()
		t.retained = true
	}
	return t
}

// Release frees a retained trampoline. The code address is invalid
// afterwards; a native invocation past this point is undefined behavior.
func (t *Trampoline) Release() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.retained {
		return errors.InvalidInput(errors.PhaseCallback, "trampoline is reclaimed automatically; call Retain first to take ownership")
	}
	if t.freed {
		return errors.DoubleRelease(t.code)
	}
	t.freed = true
	closureFree(t.closure)
	t.handle.Delete()
	return nil
}

// dispatch runs on whatever thread native code invoked the trampoline
// from. ret and argAddrs point at libffi-managed storage; argAddrs[i] is
// the address of the i-th argument value.
func (st *trampolineState) dispatch(ret uintptr, argAddrs []uintptr) {
	defer func() {
		if r := recover(); r != nil {
			Logger().Error("closure panicked", zap.Any("panic", r))
			st.writeResult(ret, nil)
		}
	}()

	args := make([]any, len(st.params))
	for i, p := range st.params {
		v, err := readCallbackArg(p, argAddrs[i])
		if err != nil {
			Logger().Error("callback argument unmarshal failed", zap.Error(err))
			st.writeResult(ret, nil)
			return
		}
		args[i] = v
	}

	st.writeResult(ret, st.fn(args))
}

func readCallbackArg(t *types.Type, addr uintptr) (any, error) {
	switch t.Kind() {
	case types.KindInt, types.KindUint, types.KindFloat:
		return memory.NewPointer(t, addr).ReadScalar()
	case types.KindPointer:
		return memory.NewPointer(t.Elem(), memory.ReadPtr(addr)), nil
	case types.KindOpaque, types.KindCallback:
		return memory.NewPointer(nil, memory.ReadPtr(addr)), nil
	case types.KindString:
		s, ok, err := decodeText(memory.ReadPtr(addr), t.Encoding())
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return s, nil
	}
	return nil, errors.UnsupportedType(t.Name(), "unsupported callback parameter")
}

// writeResult stores the closure's return value into the libffi return
// slot. Integer results fill the whole promoted slot, which is what the
// ABI expects for widths below a register.
func (st *trampolineState) writeResult(ret uintptr, v any) {
	switch st.result.Kind() {
	case types.KindVoid:
		return

	case types.KindInt, types.KindUint:
		word := uint64(0)
		if v != nil {
			w, err := marshalScalarWord(st.result, v)
			if err != nil {
				Logger().Error("callback result marshal failed", zap.Error(err))
			} else {
				word = w
			}
		}
		memory.WriteU64(ret, word)

	case types.KindFloat:
		word := uint64(0)
		if v != nil {
			w, err := marshalScalarWord(st.result, v)
			if err != nil {
				Logger().Error("callback result marshal failed", zap.Error(err))
			} else {
				word = w
			}
		}
		if st.result.Bits() == 32 {
			memory.WriteU32(ret, uint32(word))
		} else {
			memory.WriteU64(ret, word)
		}

	case types.KindPointer, types.KindOpaque, types.KindString, types.KindCallback:
		addr, ok := addressOf(st.result, v)
		if !ok {
			Logger().Error("callback result is not pointer-shaped",
				zap.String("type", st.result.Name()))
			addr = 0
		}
		memory.WritePtr(ret, addr)
	}
}
