package call

import (
	"errors"
	"math"
	"testing"

	nerrors "github.com/nativebind/native-runtime/errors"
	"github.com/nativebind/native-runtime/memory"
	"github.com/nativebind/native-runtime/types"
)

func TestScalarWordRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		typ  *types.Type
		in   any
		want any
	}{
		{"int8 zero", types.Int8(), int8(0), int64(0)},
		{"int8 minus one", types.Int8(), int8(-1), int64(-1)},
		{"int8 min", types.Int8(), int8(math.MinInt8), int64(math.MinInt8)},
		{"int8 max", types.Int8(), int8(math.MaxInt8), int64(math.MaxInt8)},
		{"int16 min", types.Int16(), int16(math.MinInt16), int64(math.MinInt16)},
		{"int16 max", types.Int16(), int16(math.MaxInt16), int64(math.MaxInt16)},
		{"int32 min", types.Int32(), int32(math.MinInt32), int64(math.MinInt32)},
		{"int32 max", types.Int32(), int32(math.MaxInt32), int64(math.MaxInt32)},
		{"int64 min", types.Int64(), int64(math.MinInt64), int64(math.MinInt64)},
		{"int64 max", types.Int64(), int64(math.MaxInt64), int64(math.MaxInt64)},
		{"int64 minus one", types.Int64(), int64(-1), int64(-1)},
		{"uint8 zero", types.Uint8(), uint8(0), uint64(0)},
		{"uint8 max", types.Uint8(), uint8(math.MaxUint8), uint64(math.MaxUint8)},
		{"uint16 max", types.Uint16(), uint16(math.MaxUint16), uint64(math.MaxUint16)},
		{"uint32 max", types.Uint32(), uint32(math.MaxUint32), uint64(math.MaxUint32)},
		{"uint64 max", types.Uint64(), uint64(math.MaxUint64), uint64(math.MaxUint64)},
		{"float32 value", types.Float32(), float32(1.5), float64(1.5)},
		{"float32 zero", types.Float32(), float32(0), float64(0)},
		{"float64 value", types.Float64(), 2.25, 2.25},
		{"float64 max", types.Float64(), math.MaxFloat64, math.MaxFloat64},
		{"int accepts untyped widths", types.Int32(), 42, int64(42)},
		{"float accepts integer", types.Float64(), 7, float64(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, err := marshalScalarWord(tt.typ, tt.in)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			got := unmarshalScalarWord(tt.typ, word)
			if got != tt.want {
				t.Errorf("round trip %v: got %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestScalarWordRejectsOverflow(t *testing.T) {
	overflow := &nerrors.Error{Phase: nerrors.PhaseMarshal, Kind: nerrors.KindOverflow}

	tests := []struct {
		name string
		typ  *types.Type
		in   any
	}{
		{"int8 too large", types.Int8(), 128},
		{"int8 too small", types.Int8(), -129},
		{"int16 too large", types.Int16(), 1 << 15},
		{"int32 too large", types.Int32(), int64(math.MaxInt32) + 1},
		{"uint8 too large", types.Uint8(), 256},
		{"uint8 negative", types.Uint8(), -1},
		{"uint64 negative", types.Uint64(), int64(-1)},
		{"uint32 too large", types.Uint32(), uint64(math.MaxUint32) + 1},
		{"float32 precision loss", types.Float32(), 1.0000000001},
		{"int64 from huge uint", types.Int64(), uint64(math.MaxUint64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := marshalScalarWord(tt.typ, tt.in)
			if err == nil {
				t.Fatalf("marshal %v into %s must fail", tt.in, tt.typ.Name())
			}
			if !errors.Is(err, overflow) {
				t.Errorf("want Overflow, got %v", err)
			}
		})
	}
}

func TestScalarWordRejectsWrongShape(t *testing.T) {
	if _, err := marshalScalarWord(types.Int32(), "12"); err == nil {
		t.Error("string into int32 must fail")
	}
	if _, err := marshalScalarWord(types.Float64(), "1.5"); err == nil {
		t.Error("string into float64 must fail")
	}
	if _, err := marshalScalarWord(types.Uint8(), 1.5); err == nil {
		t.Error("float into uint8 must fail")
	}
}

func TestUnmarshalSignExtension(t *testing.T) {
	word, err := marshalScalarWord(types.Int8(), int8(-2))
	if err != nil {
		t.Fatal(err)
	}
	// Only the low byte is meaningful; the high bits carry whatever the
	// callee left in the register.
	word |= 0xdeadbeef00
	if got := unmarshalScalarWord(types.Int8(), word); got != int64(-2) {
		t.Errorf("int8 word must sign-extend from bit 7, got %v", got)
	}
	if got := unmarshalScalarWord(types.Uint8(), 0xff00|0xfe); got != uint64(0xfe) {
		t.Errorf("uint8 word must mask to the low byte, got %v", got)
	}
}

func TestAddressOfShapes(t *testing.T) {
	if addr, ok := addressOf(types.PointerTo(nil), nil); !ok || addr != 0 {
		t.Errorf("nil must map to native NULL, got %#x ok=%v", addr, ok)
	}
	p := memory.NewPointer(types.Int32(), 0x1000)
	if addr, ok := addressOf(types.PointerTo(types.Int32()), p); !ok || addr != 0x1000 {
		t.Errorf("Pointer address lost: %#x ok=%v", addr, ok)
	}
	if addr, ok := addressOf(types.PointerTo(nil), uintptr(0x2000)); !ok || addr != 0x2000 {
		t.Errorf("raw uintptr address lost: %#x ok=%v", addr, ok)
	}
	if _, ok := addressOf(types.PointerTo(nil), 42); ok {
		t.Error("plain int is not pointer-shaped")
	}
}

func TestOutBindingWriteback(t *testing.T) {
	var i32 int32 = -7
	target, err := outBinding(types.Int32(), &i32)
	if err != nil {
		t.Fatal(err)
	}
	want := int64(-7)
	if target.seed != uint64(want) {
		t.Errorf("seed must carry the current value, got %#x", target.seed)
	}
	target.write(uint64(uint32(12345)))
	if i32 != 12345 {
		t.Errorf("writeback lost: %d", i32)
	}

	var f float64 = 1.5
	ft, err := outBinding(types.Float64(), &f)
	if err != nil {
		t.Fatal(err)
	}
	ft.write(math.Float64bits(8.25))
	if f != 8.25 {
		t.Errorf("float writeback lost: %v", f)
	}

	if _, err := outBinding(types.Int32(), int32(5)); err == nil {
		t.Error("out parameter requires a pointer, not a value")
	}
}
