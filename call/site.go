package call

import (
	"sync"

	"go.uber.org/zap"

	"github.com/nativebind/native-runtime/errors"
	"github.com/nativebind/native-runtime/loader"
	"github.com/nativebind/native-runtime/memory"
	"github.com/nativebind/native-runtime/types"
)

// Direction flags how a parameter's data moves across the boundary.
type Direction uint8

const (
	// In parameters flow into the callee only. The default.
	In Direction = iota
	// Out primitive parameters receive width-sized storage whose address
	// is passed; the result is written back after the call.
	Out
	// InOut parameters seed the storage from the caller's value and
	// write the result back.
	InOut
)

// Param is one declared parameter of a call site.
type Param struct {
	Type *types.Type
	Dir  Direction
}

// Mangler rewrites a logical call name into the native symbol name, for
// libraries that do not export plain C-ABI names.
type Mangler func(name string) string

// Option configures a Site at construction.
type Option func(*Site)

// WithSymbol overrides the native symbol looked up, keeping the logical
// call name for diagnostics.
func WithSymbol(symbol string) Option {
	return func(s *Site) { s.symbol = symbol }
}

// WithMangler installs a name-mangling policy applied at bind time.
func WithMangler(m Mangler) Option {
	return func(s *Site) { s.mangler = m }
}

// Site is a bound call site: the declared signature plus the lazily
// resolved native address. The address is resolved exactly once, on first
// invocation; concurrent first calls are serialized per site and all of
// them observe the single cached result.
type Site struct {
	lib    *loader.Library
	name   string
	symbol string
	params []Param
	ret    *types.Type

	mangler Mangler

	bindOnce sync.Once
	addr     uintptr
	bindErr  error
	cif      preparedCIF

	mu        sync.Mutex
	lastErrno int
}

// NewSite declares a call site against a loaded library. All parameter
// and return types are completed (and therefore validated) here, so type
// errors surface at declaration, not at call time.
func NewSite(lib *loader.Library, name string, params []Param, ret *types.Type, opts ...Option) (*Site, error) {
	if lib == nil {
		return nil, errors.InvalidInput(errors.PhaseBind, "nil library")
	}
	if name == "" {
		return nil, errors.InvalidInput(errors.PhaseBind, "empty call name")
	}
	if ret == nil {
		ret = types.Void()
	}
	for i, p := range params {
		if p.Type == nil {
			return nil, errors.New(errors.PhaseRegister, errors.KindUnsupportedType).
				Symbol(name).
				Detail("parameter %d has no type", i).
				Build()
		}
		if err := ensureLaid(p.Type); err != nil {
			return nil, err
		}
		if p.Dir != In && !p.Type.Kind().IsScalar() {
			return nil, errors.New(errors.PhaseRegister, errors.KindUnsupportedType).
				Symbol(name).
				Type(p.Type.Name()).
				Detail("out/inout is only supported for primitive parameters").
				Build()
		}
	}
	if ret.Kind() != types.KindVoid {
		if err := ensureLaid(ret); err != nil {
			return nil, err
		}
	}
	if ret.Kind() == types.KindArray {
		return nil, errors.UnsupportedType(ret.Name(), "C functions cannot return arrays by value")
	}
	if ret.Kind() == types.KindUnion {
		return nil, errors.UnsupportedType(ret.Name(), "unions cannot be returned by value")
	}

	s := &Site{lib: lib, name: name, params: params, ret: ret}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func ensureLaid(t *types.Type) error {
	if t.Registered() {
		return nil
	}
	return types.Complete(t)
}

// symbolName applies the override and mangling policy.
func (s *Site) symbolName() string {
	name := s.name
	if s.symbol != "" {
		name = s.symbol
	}
	if s.mangler != nil {
		name = s.mangler(name)
	}
	return name
}

// bind resolves the native address and prepares the dispatch descriptor,
// exactly once for the lifetime of the site.
func (s *Site) bind() error {
	s.bindOnce.Do(func() {
		sym := s.symbolName()
		addr, err := s.lib.Symbol(sym)
		if err != nil {
			s.bindErr = err
			return
		}
		cif, err := prepareCIF(s.params, s.ret)
		if err != nil {
			s.bindErr = err
			return
		}
		s.addr = addr
		s.cif = cif
		Logger().Debug("call site bound",
			zap.String("symbol", sym),
			zap.String("library", s.lib.Path()))
	})
	return s.bindErr
}

// Addr returns the resolved native address, binding on first use.
func (s *Site) Addr() (uintptr, error) {
	if err := s.bind(); err != nil {
		return 0, err
	}
	return s.addr, nil
}

// Errno returns the callee-visible errno captured immediately after the
// most recent call through this site.
func (s *Site) Errno() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErrno
}

// Call marshals args, invokes the native function synchronously on the
// calling goroutine, and converts the result back. Every argument is
// validated before the native call executes; a marshal error means native
// code never ran. The call itself cannot be cancelled and may block
// indefinitely.
func (s *Site) Call(args ...any) (any, error) {
	if err := s.bind(); err != nil {
		return nil, err
	}
	if len(args) != len(s.params) {
		return nil, errors.New(errors.PhaseMarshal, errors.KindMarshalType).
			Symbol(s.name).
			Detail("argument count %d does not match declared %d", len(args), len(s.params)).
			Build()
	}

	frame, err := s.prepareFrame(args)
	if err != nil {
		frame.discard()
		return nil, err
	}
	defer frame.discard()

	word, errno, err := invoke(s.cif, s.addr, frame)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.lastErrno = errno
	s.mu.Unlock()

	frame.writeback()
	return s.unmarshalResult(word, frame)
}

// frame is the per-call marshalling state: one word per argument, the
// out-parameter bindings, and the temporaries to drop when the call is
// over.
type frame struct {
	words []uint64      // slot contents, one per argument
	outs  []frameOut    // out/inout write-backs, resolved post-call
	temps []releaser    // call-scoped native buffers
	keep  []any         // managed values that must stay reachable through the call
	aux   []auxRecord   // width-sized out storage, allocated by the dispatcher
	ret   *memory.Block // return buffer for by-value composite results
}

type frameOut struct {
	arg    int
	target *outTarget
}

type auxRecord struct {
	arg  int
	seed uint64
}

type releaser interface{ Release() error }

func (f *frame) discard() {
	for _, t := range f.temps {
		if err := t.Release(); err != nil {
			Logger().Warn("temporary release failed", zap.Error(err))
		}
	}
	f.temps = nil
}

// prepareFrame validates and converts every argument. No native code has
// run when it fails: partial application cannot be observed.
func (s *Site) prepareFrame(args []any) (*frame, error) {
	f := &frame{words: make([]uint64, len(args))}

	for i, p := range s.params {
		arg := args[i]

		if p.Dir != In {
			target, err := outBinding(p.Type, arg)
			if err != nil {
				return f, err
			}
			seed := uint64(0)
			if p.Dir == InOut {
				seed = target.seed
			}
			f.aux = append(f.aux, auxRecord{arg: i, seed: seed})
			f.outs = append(f.outs, frameOut{arg: i, target: target})
			continue
		}

		word, err := s.marshalIn(i, p.Type, arg, f)
		if err != nil {
			return f, err
		}
		f.words[i] = word
	}
	return f, nil
}

func (s *Site) marshalIn(i int, t *types.Type, arg any, f *frame) (uint64, error) {
	switch t.Kind() {
	case types.KindInt, types.KindUint, types.KindFloat:
		return marshalScalarWord(t, arg)

	case types.KindString:
		switch v := arg.(type) {
		case nil:
			return 0, nil
		case string:
			buf, err := newTempText(v, t.Encoding())
			if err != nil {
				return 0, err
			}
			f.temps = append(f.temps, buf)
			return uint64(buf.Addr()), nil
		case *RetainedString:
			if v == nil {
				return 0, nil
			}
			f.keep = append(f.keep, v)
			return uint64(v.Addr()), nil
		}
		return 0, errors.MarshalType(t.Name(), arg, "string, *RetainedString or nil required")

	case types.KindCallback:
		switch v := arg.(type) {
		case nil:
			return 0, nil
		case *Trampoline:
			f.keep = append(f.keep, v)
			return uint64(v.Addr()), nil
		case Closure:
			tr, err := NewTrampoline(t, v)
			if err != nil {
				return 0, err
			}
			f.keep = append(f.keep, tr)
			return uint64(tr.Addr()), nil
		case func([]any) any:
			tr, err := NewTrampoline(t, v)
			if err != nil {
				return 0, err
			}
			f.keep = append(f.keep, tr)
			return uint64(tr.Addr()), nil
		}
		return 0, errors.MarshalType(t.Name(), arg, "callback requires a Closure or *Trampoline")

	case types.KindPointer, types.KindOpaque, types.KindStruct, types.KindUnion, types.KindArray:
		// Composites pass their already-laid-out address; nothing is
		// copied on the way in.
		addr, ok := addressOf(t, arg)
		if !ok {
			return 0, errors.MarshalType(t.Name(), arg, "native address required (Pointer, *Block or nil)")
		}
		f.keep = append(f.keep, arg)
		return uint64(addr), nil
	}
	return 0, errors.MarshalType(t.Name(), arg, "no marshalling rule for this parameter type")
}

func (f *frame) writeback() {
	for _, o := range f.outs {
		o.target.write(f.words[o.arg])
	}
}

// unmarshalResult converts the return word (or return buffer, for
// by-value composites) back into a managed value.
func (s *Site) unmarshalResult(word uint64, f *frame) (any, error) {
	switch s.ret.Kind() {
	case types.KindVoid:
		return nil, nil

	case types.KindInt, types.KindUint, types.KindFloat:
		return unmarshalScalarWord(s.ret, word), nil

	case types.KindString:
		str, ok, err := decodeText(uintptr(word), s.ret.Encoding())
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil // null pointer maps to the absent sentinel
		}
		return str, nil

	case types.KindPointer:
		// Returned pointers wrap without copying and are Foreign: the
		// engine will never free what the callee handed out.
		return memory.NewPointer(s.ret.Elem(), uintptr(word)), nil

	case types.KindOpaque, types.KindCallback:
		return memory.NewPointer(nil, uintptr(word)), nil

	case types.KindStruct, types.KindUnion:
		// The dispatcher pointed the native return slot at fresh
		// RuntimeManaged memory; the callee's copy landed there directly.
		return memory.WrapComposite(s.ret, f.ret), nil
	}
	return nil, errors.InvalidInput(errors.PhaseCall, "unhandled return kind "+s.ret.Kind().String())
}
