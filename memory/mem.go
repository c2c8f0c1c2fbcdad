package memory

import (
	"math"
	"unsafe"
)

// Raw typed access to native memory. These are the primitive peek/poke
// operations the marshaller is built on. None of them validate the
// address: an out-of-range or misaligned address is undefined behavior,
// the same trust boundary as the native code itself.

func ReadU8(addr uintptr) uint8   { return *(*uint8)(unsafe.Pointer(addr)) }
func ReadU16(addr uintptr) uint16 { return *(*uint16)(unsafe.Pointer(addr)) }
func ReadU32(addr uintptr) uint32 { return *(*uint32)(unsafe.Pointer(addr)) }
func ReadU64(addr uintptr) uint64 { return *(*uint64)(unsafe.Pointer(addr)) }

func WriteU8(addr uintptr, v uint8)   { *(*uint8)(unsafe.Pointer(addr)) = v }
func WriteU16(addr uintptr, v uint16) { *(*uint16)(unsafe.Pointer(addr)) = v }
func WriteU32(addr uintptr, v uint32) { *(*uint32)(unsafe.Pointer(addr)) = v }
func WriteU64(addr uintptr, v uint64) { *(*uint64)(unsafe.Pointer(addr)) = v }

func ReadF32(addr uintptr) float32 { return math.Float32frombits(ReadU32(addr)) }
func ReadF64(addr uintptr) float64 { return math.Float64frombits(ReadU64(addr)) }

func WriteF32(addr uintptr, v float32) { WriteU32(addr, math.Float32bits(v)) }
func WriteF64(addr uintptr, v float64) { WriteU64(addr, math.Float64bits(v)) }

func ReadPtr(addr uintptr) uintptr { return *(*uintptr)(unsafe.Pointer(addr)) }

func WritePtr(addr uintptr, v uintptr) { *(*uintptr)(unsafe.Pointer(addr)) = v }

// Bytes exposes length bytes at addr as a Go slice aliasing the native
// memory. The slice is valid only while the memory is.
func Bytes(addr, length uintptr) []byte {
	if addr == 0 || length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)
}

// Copy copies n bytes between native addresses.
func Copy(dst, src, n uintptr) {
	copy(Bytes(dst, n), Bytes(src, n))
}

// Zero clears n bytes at addr.
func Zero(addr, n uintptr) {
	b := Bytes(addr, n)
	for i := range b {
		b[i] = 0
	}
}
