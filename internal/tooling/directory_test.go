package tooling

import "testing"

func TestDirectoryCustomShadowsBuiltin(t *testing.T) {
	dir := NewDirectory()
	builtin := &fakeHandler{name: "files"}
	custom := &fakeHandler{name: "files"}

	if err := dir.RegisterBuiltin(builtin); err != nil {
		t.Fatal(err)
	}
	if err := dir.RegisterCustom(custom); err != nil {
		t.Fatal(err)
	}

	got, ok := dir.Get("files")
	if !ok {
		t.Fatal("Get returned no handler")
	}
	if got != Handler(custom) {
		t.Error("custom handler should shadow the built-in one")
	}

	scoped := dir.ForScope("", "")
	if len(scoped) != 1 {
		t.Fatalf("shadowed built-in should be excluded from scope, got %d handlers", len(scoped))
	}
	if scoped[0] != Handler(custom) {
		t.Error("ForScope returned the shadowed built-in")
	}
}

func TestDirectoryRejectsDuplicateAndEmptyNames(t *testing.T) {
	dir := NewDirectory()

	if err := dir.RegisterBuiltin(&fakeHandler{name: ""}); err == nil {
		t.Error("empty name should be rejected")
	}
	if err := dir.RegisterBuiltin(&fakeHandler{name: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := dir.RegisterBuiltin(&fakeHandler{name: "x"}); err == nil {
		t.Error("duplicate name in same layer should be rejected")
	}
}

func TestDirectoryForScopeOrder(t *testing.T) {
	dir := NewDirectory()
	b1 := &fakeHandler{name: "b1"}
	b2 := &fakeHandler{name: "b2"}
	c1 := &fakeHandler{name: "c1"}

	if err := dir.RegisterBuiltin(b1); err != nil {
		t.Fatal(err)
	}
	if err := dir.RegisterBuiltin(b2); err != nil {
		t.Fatal(err)
	}
	if err := dir.RegisterCustom(c1); err != nil {
		t.Fatal(err)
	}

	handlers := dir.ForScope("", "")
	if len(handlers) != 3 {
		t.Fatalf("expected 3 handlers, got %d", len(handlers))
	}
	want := []string{"c1", "b1", "b2"}
	for i, h := range handlers {
		if h.Name() != want[i] {
			t.Errorf("position %d = %q, want %q (custom first, then registration order)", i, h.Name(), want[i])
		}
	}
}

func TestDirectoryGetUnknown(t *testing.T) {
	dir := NewDirectory()
	if _, ok := dir.Get("nope"); ok {
		t.Error("Get on empty directory should report not found")
	}
}
