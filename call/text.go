package call

import (
	"github.com/nativebind/native-runtime/errors"
	"github.com/nativebind/native-runtime/memory"
	"github.com/nativebind/native-runtime/types"
)

// fillText allocates a native buffer and writes the encoded, terminated
// form of s into it.
func fillText(s string, enc types.Encoding) (*memory.Block, error) {
	raw, err := encodeText(s, enc)
	if err != nil {
		return nil, err
	}
	blk, err := memory.AllocExplicit(uintptr(len(raw)))
	if err != nil {
		return nil, err
	}
	copy(memory.Bytes(blk.Addr(), uintptr(len(raw))), raw)
	return blk, nil
}

// tempText is a call-scoped encoded string buffer. The dispatcher
// releases it as soon as the call returns; native code keeping the
// pointer past the call is the caller's bug to avoid (use RetainString).
type tempText struct {
	blk *memory.Block
}

func newTempText(s string, enc types.Encoding) (*tempText, error) {
	blk, err := fillText(s, enc)
	if err != nil {
		return nil, err
	}
	return &tempText{blk: blk}, nil
}

func (t *tempText) Addr() uintptr  { return t.blk.Addr() }
func (t *tempText) Release() error { return t.blk.Release() }

// RetainedString is an encoded native string whose buffer outlives the
// call it is passed to. It is ExplicitlyManaged: release it exactly once
// when native code is finished with it, or hand ownership to native code
// and never release it here.
type RetainedString struct {
	blk *memory.Block
	enc types.Encoding
	src string
}

// RetainString encodes s into a native buffer that persists until
// explicitly released.
func RetainString(s string, enc types.Encoding) (*RetainedString, error) {
	blk, err := fillText(s, enc)
	if err != nil {
		return nil, err
	}
	return &RetainedString{blk: blk, enc: enc, src: s}, nil
}

// Addr returns the native buffer address.
func (r *RetainedString) Addr() uintptr { return r.blk.Addr() }

// String returns the managed value the buffer was encoded from.
func (r *RetainedString) String() string { return r.src }

// Encoding returns the buffer's declared text encoding.
func (r *RetainedString) Encoding() types.Encoding { return r.enc }

// Release frees the buffer. A second release fails with DoubleRelease.
func (r *RetainedString) Release() error {
	if r.blk == nil {
		return errors.DoubleRelease(0)
	}
	return r.blk.Release()
}
