//go:build (linux || darwin || freebsd) && cgo

package memory

import (
	"testing"

	"github.com/nativebind/native-runtime/types"
)

func TestNewCompositeRejectsNonAggregate(t *testing.T) {
	if _, err := NewComposite(types.Int32()); err == nil {
		t.Error("scalar types have no composite instance form")
	}
	if _, err := NewComposite(nil); err == nil {
		t.Error("nil type must be rejected")
	}
}

func TestCompositeFieldAccess(t *testing.T) {
	point := types.StructOf("point",
		types.Field{Name: "x", Type: types.Int32()},
		types.Field{Name: "y", Type: types.Int32()},
	)
	c, err := NewComposite(point)
	if err != nil {
		t.Fatal(err)
	}
	if c.Type() != point || c.Addr() == 0 {
		t.Fatal("composite lost its identity")
	}

	y, err := c.Field("y")
	if err != nil {
		t.Fatal(err)
	}
	WriteU32(y.Addr(), uint32(9))
	got, err := y.ReadScalar()
	if err != nil {
		t.Fatal(err)
	}
	if got != int64(9) {
		t.Errorf("y = %v, want 9", got)
	}
	if y.Addr() != c.Addr()+4 {
		t.Errorf("y offset = %d, want 4", y.Addr()-c.Addr())
	}
}

func TestCompositeRetainRelease(t *testing.T) {
	point := types.StructOf("pt2",
		types.Field{Name: "x", Type: types.Int32()},
	)
	c, err := NewComposite(point)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Release(); err == nil {
		t.Fatal("runtime-managed instance must refuse explicit release")
	}
	c.Retain()
	if err := c.Release(); err != nil {
		t.Fatalf("release after retain: %v", err)
	}
}
