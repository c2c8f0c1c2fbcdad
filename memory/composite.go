package memory

import (
	"github.com/nativebind/native-runtime/errors"
	"github.com/nativebind/native-runtime/types"
)

// Composite is a typed instance of an aggregate (struct, union or array),
// backed by a tracked block. It pairs the typed view with the storage that
// keeps it alive: as long as the Composite is reachable, so is the memory
// behind its pointers.
type Composite struct {
	typ *types.Type
	blk *Block
}

// NewComposite allocates a zeroed RuntimeManaged instance of t.
func NewComposite(t *types.Type) (*Composite, error) {
	if t == nil || !t.Kind().IsAggregate() {
		return nil, errors.InvalidInput(errors.PhaseMemory, "composite allocation requires an aggregate type")
	}
	size, err := types.SizeOf(t)
	if err != nil {
		return nil, err
	}
	blk, err := Alloc(size)
	if err != nil {
		return nil, err
	}
	return &Composite{typ: t, blk: blk}, nil
}

// WrapComposite types an existing block as an instance of t.
func WrapComposite(t *types.Type, blk *Block) *Composite {
	return &Composite{typ: t, blk: blk}
}

// Type returns the instance's type descriptor.
func (c *Composite) Type() *types.Type { return c.typ }

// Block returns the backing storage.
func (c *Composite) Block() *Block { return c.blk }

// Addr returns the instance base address.
func (c *Composite) Addr() uintptr { return c.blk.Addr() }

// Ptr returns a typed pointer to the instance. The pointer does not keep
// the instance alive; hold the Composite for as long as the address is used.
func (c *Composite) Ptr() Pointer {
	return NewPointer(c.typ, c.blk.Addr())
}

// Field returns a typed pointer to the named member.
func (c *Composite) Field(name string) (Pointer, error) {
	return c.Ptr().Field(name)
}

// Retain promotes the backing block to ExplicitlyManaged.
func (c *Composite) Retain() *Composite {
	c.blk.Retain()
	return c
}

// Release frees the backing block, with Block's ownership rules.
func (c *Composite) Release() error {
	return c.blk.Release()
}
