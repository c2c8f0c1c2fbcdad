package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:   PhaseBind,
				Kind:    KindSymbolNotFound,
				Library: "libm.so.6",
				Symbol:  "powq",
				Detail:  "not exported",
			},
			contains: []string{"[bind]", "symbol_not_found", "libm.so.6", "powq", "not exported"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseMarshal,
				Kind:  KindOverflow,
			},
			contains: []string{"[marshal]", "overflow"},
		},
		{
			name: "candidates listed",
			err: &Error{
				Phase:      PhaseResolve,
				Kind:       KindLibraryNotFound,
				Library:    "foo",
				Candidates: []string{"libfoo.so", "/usr/lib/libfoo.so"},
			},
			contains: []string{"[resolve]", "library_not_found", "tried libfoo.so, /usr/lib/libfoo.so"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseMemory,
				Kind:   KindAllocation,
				Detail: "memory full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[memory]", "allocation", "memory full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseResolve,
		Kind:  KindLibraryNotFound,
		Cause: cause,
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should match the wrapped cause")
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestError_Is(t *testing.T) {
	err := SymbolNotFound("libc.so.6", "no_such_fn", nil)
	target := &Error{Phase: PhaseBind, Kind: KindSymbolNotFound}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match on Phase+Kind")
	}
	other := &Error{Phase: PhaseResolve, Kind: KindLibraryNotFound}
	if errors.Is(err, other) {
		t.Error("errors.Is should not match a different Phase/Kind")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("dlsym failed")
	err := New(PhaseBind, KindSymbolNotFound).
		Library("libz.so.1").
		Symbol("inflateInit9").
		Detail("version %d", 9).
		Cause(cause).
		Build()

	if err.Library != "libz.so.1" || err.Symbol != "inflateInit9" {
		t.Errorf("builder fields not set: %+v", err)
	}
	if err.Detail != "version 9" {
		t.Errorf("formatted detail: got %q", err.Detail)
	}
	if err.Unwrap() != cause {
		t.Error("builder cause not set")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("library_not_found", func(t *testing.T) {
		err := LibraryNotFound("foo", []string{"a", "b"}, nil)
		if err.Phase != PhaseResolve || err.Kind != KindLibraryNotFound {
			t.Errorf("wrong phase/kind: %v/%v", err.Phase, err.Kind)
		}
		if len(err.Candidates) != 2 {
			t.Errorf("candidates not carried: %v", err.Candidates)
		}
	})

	t.Run("unsupported_type", func(t *testing.T) {
		err := UnsupportedType("chan int", "no native representation")
		if err.Phase != PhaseRegister {
			t.Errorf("unsupported type must surface at registration, got %v", err.Phase)
		}
		if !strings.Contains(err.Error(), "chan int") {
			t.Errorf("offending type missing from message: %s", err.Error())
		}
	})

	t.Run("overflow", func(t *testing.T) {
		err := Overflow("int8", 300)
		if !strings.Contains(err.Error(), "300") {
			t.Errorf("value missing from message: %s", err.Error())
		}
	})

	t.Run("null_dereference", func(t *testing.T) {
		err := NullDereference("*int32")
		if err.Kind != KindNullDereference {
			t.Errorf("wrong kind: %v", err.Kind)
		}
	})
}
