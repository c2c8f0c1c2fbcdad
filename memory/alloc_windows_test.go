//go:build windows

package memory

import "testing"

// oversized returns a byte count above the LocalAlloc limit, or 0 when
// the platform word cannot express one.
func oversized() uintptr {
	shift := uint(33)
	return uintptr(1) << shift
}

func TestNativeAllocRefusesOversized(t *testing.T) {
	size := oversized()
	if size == 0 {
		t.Skip("32-bit platform cannot express an oversized request")
	}
	if addr := nativeAlloc(size); addr != 0 {
		t.Errorf("allocation above the LocalAlloc limit must fail, got %#x", addr)
	}
}

func TestAllocOversizedReportsFailure(t *testing.T) {
	size := oversized()
	if size == 0 {
		t.Skip("32-bit platform cannot express an oversized request")
	}
	if _, err := Alloc(size); err == nil {
		t.Error("oversized allocation must surface an allocation error")
	}
}
