package call

import (
	"strings"
	"testing"

	"github.com/nativebind/native-runtime/loader"
	"github.com/nativebind/native-runtime/types"
)

// placeholderLibrary is never dereferenced: binding is lazy, so signature
// validation is observable without loading anything.
func placeholderLibrary(t *testing.T) *loader.Library {
	t.Helper()
	return &loader.Library{}
}

func TestNewSiteValidation(t *testing.T) {
	if _, err := NewSite(nil, "abs", nil, types.Int32()); err == nil {
		t.Error("nil library must be rejected")
	}

	tests := []struct {
		name   string
		call   string
		params []Param
		ret    *types.Type
	}{
		{"empty name", "", nil, types.Int32()},
		{"untyped parameter", "f", []Param{{}}, types.Int32()},
		{"out aggregate", "f", []Param{{Type: types.StructOf("s", types.Field{Name: "a", Type: types.Int32()}), Dir: Out}}, nil},
		{"out string", "f", []Param{{Type: types.String(types.EncodingUTF8), Dir: InOut}}, nil},
		{"array return", "f", nil, types.ArrayOf(types.Int32(), 4)},
		{"union return", "f", nil, types.UnionOf("u", types.Field{Name: "a", Type: types.Int32()})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSite(placeholderLibrary(t), tt.call, tt.params, tt.ret); err == nil {
				t.Errorf("signature must be rejected at declaration")
			}
		})
	}
}

func TestSymbolNameOverrides(t *testing.T) {
	upper := func(name string) string { return strings.ToUpper(name) }

	tests := []struct {
		name string
		site *Site
		want string
	}{
		{"plain", &Site{name: "connect"}, "connect"},
		{"override", &Site{name: "connect", symbol: "connect_v2"}, "connect_v2"},
		{"mangled", &Site{name: "connect", mangler: upper}, "CONNECT"},
		{"override then mangled", &Site{name: "connect", symbol: "connect_v2", mangler: upper}, "CONNECT_V2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.site.symbolName(); got != tt.want {
				t.Errorf("symbolName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCallArgumentCount(t *testing.T) {
	s := &Site{name: "f", params: []Param{{Type: types.Int32()}}}
	s.bindOnce.Do(func() {}) // already bound, address irrelevant
	if _, err := s.Call(); err == nil {
		t.Error("missing argument must be rejected before dispatch")
	}
	if _, err := s.Call(1, 2); err == nil {
		t.Error("extra argument must be rejected before dispatch")
	}
}
