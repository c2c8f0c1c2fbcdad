//go:build !cgo || (!linux && !darwin && !freebsd)

package call

import (
	"strings"
	"testing"

	"github.com/nativebind/native-runtime/types"
)

func TestNoDispatchNamesThePlatformMatrix(t *testing.T) {
	_, err := prepareCIF(nil, types.Void())
	if err == nil {
		t.Fatal("builds without a dispatch backend must fail signature preparation")
	}
	msg := err.Error()
	for _, want := range []string{"cgo", "linux"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q must mention %q so the build requirement is actionable", msg, want)
		}
	}
}
