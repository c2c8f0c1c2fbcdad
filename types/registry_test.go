package types

import (
	"sync"
	"testing"
)

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()

	point := StructOf("",
		Field{Name: "x", Type: Int32()},
		Field{Name: "y", Type: Int32()},
	)
	got, err := reg.Register("point", point)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !got.Registered() {
		t.Error("layout must be computed at registration")
	}
	if got.Name() != "point" {
		t.Errorf("name: got %q, want %q", got.Name(), "point")
	}

	if _, ok := reg.Lookup("point"); !ok {
		t.Error("registered type not found by Lookup")
	}
	if _, ok := reg.Lookup("nope"); ok {
		t.Error("Lookup returned a type that was never registered")
	}
}

func TestRegistryDuplicate(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Register("t", StructOf("t", Field{Name: "a", Type: Int32()})); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := reg.Register("t", StructOf("t", Field{Name: "a", Type: Int32()})); err == nil {
		t.Fatal("duplicate name must be rejected")
	}
}

func TestRegistryRejectsAtRegistration(t *testing.T) {
	reg := NewRegistry()
	bad := StructOf("bad", Field{Name: "v", Type: Void()})
	if _, err := reg.Register("bad", bad); err == nil {
		t.Fatal("unsupported member must be rejected at registration, not call time")
	}
	if _, ok := reg.Lookup("bad"); ok {
		t.Error("rejected type must not be registered")
	}
}

func TestRegistryConcurrent(t *testing.T) {
	reg := NewRegistry()
	base := StructOf("base", Field{Name: "a", Type: Int64()})
	if _, err := reg.Register("base", base); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, ok := reg.Lookup("base"); !ok {
					t.Error("lost registered type")
					return
				}
			}
		}()
	}
	wg.Wait()
}
