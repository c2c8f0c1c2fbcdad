//go:build (linux || darwin || freebsd) && cgo

package call

import (
	"bytes"
	"testing"

	"github.com/nativebind/native-runtime/memory"
	"github.com/nativebind/native-runtime/types"
)

func TestRetainStringBuffer(t *testing.T) {
	rs, err := RetainString("héllo", types.EncodingUTF8)
	if err != nil {
		t.Fatal(err)
	}
	if rs.Addr() == 0 {
		t.Fatal("retained string has no buffer")
	}
	if rs.String() != "héllo" || rs.Encoding() != types.EncodingUTF8 {
		t.Errorf("accessors lost the source: %q %v", rs.String(), rs.Encoding())
	}

	want := append([]byte("héllo"), 0)
	got := memory.Bytes(rs.Addr(), uintptr(len(want)))
	if !bytes.Equal(got, want) {
		t.Errorf("native buffer = %v, want %v", got, want)
	}

	if err := rs.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
}

func TestTempTextReleases(t *testing.T) {
	tmp, err := newTempText("scratch", types.EncodingUTF8)
	if err != nil {
		t.Fatal(err)
	}
	if tmp.Addr() == 0 {
		t.Fatal("temp buffer has no address")
	}
	if err := tmp.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
}
