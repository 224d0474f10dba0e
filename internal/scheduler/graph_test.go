package scheduler

import (
	"context"
	"strings"
	"testing"

	"github.com/aristath/coordinator/internal/agent"
)

// contractAgent is a minimal agent with a fixed contract.
type contractAgent struct {
	contract agent.Contract
}

func (c *contractAgent) Execute(ctx context.Context, ec *agent.ExecutionContext, task string) (agent.Result, error) {
	return agent.Result{Content: "ok"}, nil
}

func (c *contractAgent) Contract() agent.Contract { return c.contract }

func (c *contractAgent) CanHandle(task string) float64 { return 0 }

func contractRegistry(t *testing.T, contracts map[string]agent.Contract) *agent.Registry {
	t.Helper()
	reg := agent.NewRegistry()
	for name, contract := range contracts {
		if err := reg.Register(name, &contractAgent{contract: contract}); err != nil {
			t.Fatalf("registering %s: %v", name, err)
		}
	}
	return reg
}

func TestDependenciesFromContracts(t *testing.T) {
	reg := contractRegistry(t, map[string]agent.Contract{
		"producer": {Outputs: []string{"x"}},
		"consumer": {Inputs: []string{"x"}},
		"loner":    {},
	})

	tasks := []*Task{
		NewTask("produce x", "producer"),
		NewTask("consume x", "consumer"),
		NewTask("independent", "loner"),
	}

	inputs, outputs := taskContracts(tasks, reg)
	deps := dependencies(inputs, outputs)

	if len(deps[0]) != 0 {
		t.Errorf("producer should have no dependencies, got %v", deps[0])
	}
	if len(deps[1]) != 1 || deps[1][0] != 0 {
		t.Errorf("consumer should depend on task 0, got %v", deps[1])
	}
	if len(deps[2]) != 0 {
		t.Errorf("independent task should have no dependencies, got %v", deps[2])
	}
}

func TestDependenciesUnknownAgentHasEmptyContract(t *testing.T) {
	reg := contractRegistry(t, map[string]agent.Contract{
		"producer": {Outputs: []string{"x"}},
	})

	tasks := []*Task{
		NewTask("produce x", "producer"),
		NewTask("mystery", "nonexistent"),
		NewTask("unassigned", ""),
	}

	inputs, outputs := taskContracts(tasks, reg)
	deps := dependencies(inputs, outputs)

	for i := range tasks {
		if len(deps[i]) != 0 {
			t.Errorf("task %d should have no dependencies, got %v", i, deps[i])
		}
	}
	if len(inputs[1]) != 0 || len(outputs[1]) != 0 {
		t.Error("failed lookup should yield empty contract sets")
	}
}

func TestTopoOrder(t *testing.T) {
	reg := contractRegistry(t, map[string]agent.Contract{
		"a": {Outputs: []string{"x"}},
		"b": {Inputs: []string{"x"}, Outputs: []string{"y"}},
		"c": {Inputs: []string{"y"}},
	})

	tasks := []*Task{
		NewTask("third", "c"),
		NewTask("first", "a"),
		NewTask("second", "b"),
	}

	order, err := TopoOrder(tasks, reg)
	if err != nil {
		t.Fatalf("TopoOrder failed: %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("expected 3 indices, got %v", order)
	}

	pos := make(map[int]int)
	for p, idx := range order {
		pos[idx] = p
	}
	// first (1) before second (2) before third (0)
	if !(pos[1] < pos[2] && pos[2] < pos[0]) {
		t.Errorf("order %v does not respect dependencies", order)
	}
}

func TestTopoOrderCycle(t *testing.T) {
	reg := contractRegistry(t, map[string]agent.Contract{
		"a": {Inputs: []string{"c-out"}, Outputs: []string{"a-out"}},
		"b": {Inputs: []string{"a-out"}, Outputs: []string{"b-out"}},
		"c": {Inputs: []string{"b-out"}, Outputs: []string{"c-out"}},
	})

	tasks := []*Task{
		NewTask("A", "a"),
		NewTask("B", "b"),
		NewTask("C", "c"),
	}

	_, err := TopoOrder(tasks, reg)
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if !strings.Contains(err.Error(), "cycle") {
		t.Errorf("expected error mentioning cycle, got: %v", err)
	}
}

func TestIntersects(t *testing.T) {
	set := func(names ...string) map[string]struct{} {
		m := make(map[string]struct{})
		for _, n := range names {
			m[n] = struct{}{}
		}
		return m
	}

	tests := []struct {
		name string
		a, b map[string]struct{}
		want bool
	}{
		{"both empty", set(), set(), false},
		{"disjoint", set("x"), set("y"), false},
		{"overlap", set("x", "y"), set("y", "z"), true},
		{"subset", set("x"), set("x", "y"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := intersects(tt.a, tt.b); got != tt.want {
				t.Errorf("intersects = %v, want %v", got, tt.want)
			}
		})
	}
}
