package scheduler

import (
	"fmt"

	"github.com/gammazero/toposort"

	"github.com/aristath/coordinator/internal/agent"
)

// taskContracts resolves the declared input/output artifact sets for every
// top-level task. A task with no assigned agent, or whose agent lookup fails,
// gets empty sets: it depends on nothing and produces nothing.
func taskContracts(tasks []*Task, dir agent.Directory) (inputs, outputs []map[string]struct{}) {
	inputs = make([]map[string]struct{}, len(tasks))
	outputs = make([]map[string]struct{}, len(tasks))

	for i, task := range tasks {
		inputs[i] = map[string]struct{}{}
		outputs[i] = map[string]struct{}{}

		if task.AgentName == "" {
			continue
		}
		a, err := dir.Get(task.AgentName)
		if err != nil {
			continue
		}

		contract := a.Contract()
		for _, name := range contract.Inputs {
			inputs[i][name] = struct{}{}
		}
		for _, name := range contract.Outputs {
			outputs[i][name] = struct{}{}
		}
	}

	return inputs, outputs
}

// dependencies derives the dependency lists: task i depends on task j when
// one of i's declared inputs is one of j's declared outputs. This is a
// conservative approximation from contracts, not observed data flow - it can
// over-constrain but never under-constrains into a race.
func dependencies(inputs, outputs []map[string]struct{}) [][]int {
	deps := make([][]int, len(inputs))

	for i := range inputs {
		for j := range outputs {
			if i == j {
				continue
			}
			if intersects(inputs[i], outputs[j]) {
				deps[i] = append(deps[i], j)
			}
		}
	}

	return deps
}

func intersects(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for name := range a {
		if _, ok := b[name]; ok {
			return true
		}
	}
	return false
}

// TopoOrder returns a topological order of task indices for the plan's
// contract-derived dependency graph, or an error if the graph has a cycle.
// The parallel executor does not need this - it detects cycles structurally -
// but callers can use it to validate a plan up front.
func TopoOrder(tasks []*Task, dir agent.Directory) ([]int, error) {
	inputs, outputs := taskContracts(tasks, dir)
	deps := dependencies(inputs, outputs)

	var edges []toposort.Edge
	for i, taskDeps := range deps {
		if len(taskDeps) == 0 {
			// Independent task - edge from nil so it still appears in the order
			edges = append(edges, toposort.Edge{nil, i})
			continue
		}
		for _, j := range taskDeps {
			// Edge (j, i): j must finish before i starts
			edges = append(edges, toposort.Edge{j, i})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("dependency graph contains cycle: %w", err)
	}

	order := make([]int, 0, len(tasks))
	for _, v := range sorted {
		if v != nil {
			order = append(order, v.(int))
		}
	}
	return order, nil
}
