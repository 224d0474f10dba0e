package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aristath/coordinator/internal/scheduler"
)

// planTask is the JSON shape of one task in a plan file.
type planTask struct {
	Description string     `json:"description"`
	Agent       string     `json:"agent,omitempty"`
	SubTasks    []planTask `json:"sub_tasks,omitempty"`
}

// planFile is the JSON shape of a plan file.
type planFile struct {
	Objective string     `json:"objective"`
	Tasks     []planTask `json:"tasks"`
}

// loadPlan reads a plan from a JSON file.
func loadPlan(path string) (*scheduler.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}

	var pf planFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing plan file %s: %w", path, err)
	}
	if len(pf.Tasks) == 0 {
		return nil, fmt.Errorf("plan file %s contains no tasks", path)
	}

	plan := &scheduler.Plan{Objective: pf.Objective}
	for _, pt := range pf.Tasks {
		plan.Tasks = append(plan.Tasks, buildTask(pt))
	}
	return plan, nil
}

func buildTask(pt planTask) *scheduler.Task {
	task := scheduler.NewTask(pt.Description, pt.Agent)
	for _, sub := range pt.SubTasks {
		task.SubTasks = append(task.SubTasks, buildTask(sub))
	}
	return task
}
