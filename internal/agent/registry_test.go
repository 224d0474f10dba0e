package agent

import (
	"context"
	"errors"
	"testing"
)

// stubAgent implements Agent for registry tests.
type stubAgent struct {
	contract   Contract
	confidence float64
	content    string
}

func (s *stubAgent) Execute(ctx context.Context, ec *ExecutionContext, task string) (Result, error) {
	return Result{Content: s.content}, nil
}

func (s *stubAgent) Contract() Contract { return s.contract }

func (s *stubAgent) CanHandle(task string) float64 { return s.confidence }

func TestRegistryGet(t *testing.T) {
	reg := NewRegistry()
	want := &stubAgent{content: "hello"}
	if err := reg.Register("worker", want); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got, err := reg.Get("worker")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != want {
		t.Error("Get returned a different agent than registered")
	}
}

func TestRegistryGetNotFound(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Get("ghost")
	if err == nil {
		t.Fatal("expected error for unknown agent")
	}

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected *NotFoundError, got %T: %v", err, err)
	}
	if notFound.Name != "ghost" {
		t.Errorf("expected name %q in error, got %q", "ghost", notFound.Name)
	}
}

func TestRegistryRegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("worker", &stubAgent{}); err != nil {
		t.Fatalf("first Register failed: %v", err)
	}
	if err := reg.Register("worker", &stubAgent{}); err == nil {
		t.Fatal("expected error registering duplicate name")
	}
}

func TestRegistryFindByCapability(t *testing.T) {
	reg := NewRegistry()
	low := &stubAgent{confidence: 0.2}
	high := &stubAgent{confidence: 0.9}
	zero := &stubAgent{confidence: 0}
	_ = reg.Register("low", low)
	_ = reg.Register("high", high)
	_ = reg.Register("zero", zero)

	matches := reg.FindByCapability("anything")
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0] != high {
		t.Error("expected highest-confidence agent first")
	}
	if matches[1] != low {
		t.Error("expected lower-confidence agent second")
	}
}

func TestRegistryFindByCapabilityTieKeepsRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	first := &stubAgent{confidence: 0.5}
	second := &stubAgent{confidence: 0.5}
	_ = reg.Register("first", first)
	_ = reg.Register("second", second)

	matches := reg.FindByCapability("anything")
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0] != first {
		t.Error("expected registration order to break the tie")
	}
}

func TestRegistryFindBestMatch(t *testing.T) {
	reg := NewRegistry()
	if _, _, ok := reg.FindBestMatch("anything"); ok {
		t.Fatal("expected no match in empty registry")
	}

	best := &stubAgent{confidence: 0.8}
	_ = reg.Register("other", &stubAgent{confidence: 0.1})
	_ = reg.Register("best", best)

	name, got, ok := reg.FindBestMatch("anything")
	if !ok {
		t.Fatal("expected a match")
	}
	if got != best {
		t.Error("expected highest-confidence agent")
	}
	if name != "best" {
		t.Errorf("expected name %q, got %q", "best", name)
	}
}

func TestRegistryFindBestMatchTieKeepsRegistrationOrder(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register("first", &stubAgent{confidence: 0.5})
	_ = reg.Register("second", &stubAgent{confidence: 0.5})

	name, _, ok := reg.FindBestMatch("anything")
	if !ok {
		t.Fatal("expected a match")
	}
	if name != "first" {
		t.Errorf("expected registration order to break the tie, got %q", name)
	}
}

func TestRegistryNames(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register("b", &stubAgent{})
	_ = reg.Register("a", &stubAgent{})

	names := reg.Names()
	if len(names) != 2 || names[0] != "b" || names[1] != "a" {
		t.Errorf("expected registration order [b a], got %v", names)
	}
}
