package call

import (
	"testing"

	"github.com/nativebind/native-runtime/types"
)

func TestNewExternVarValidation(t *testing.T) {
	if _, err := NewExternVar(nil, "sym", types.Int32()); err == nil {
		t.Error("nil library must be rejected")
	}
	lib := placeholderLibrary(t)
	if _, err := NewExternVar(lib, "", types.Int32()); err == nil {
		t.Error("empty symbol name must be rejected")
	}
	if _, err := NewExternVar(lib, "sym", nil); err == nil {
		t.Error("nil type must be rejected")
	}
	if _, err := NewExternVar(lib, "sym", types.Void()); err == nil {
		t.Error("void global has no storage to access")
	}
}
