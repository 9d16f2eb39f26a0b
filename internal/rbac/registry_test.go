package rbac

import "testing"

func TestRegistryHas(t *testing.T) {
	for _, name := range AllNames() {
		if !Has(name) {
			t.Fatalf("expected catalogue to contain %s", name)
		}
	}
	if Has("TELEPORT") {
		t.Fatal("unknown permission must be false, not an error")
	}
	if Has("") {
		t.Fatal("empty permission must be false")
	}
}

func TestRegistryOrderStable(t *testing.T) {
	want := []string{PermFollow, PermCollect, PermComment, PermUpload, PermModerate, PermAdminister}
	got := AllNames()
	if len(got) != len(want) {
		t.Fatalf("expected %d permissions, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}
