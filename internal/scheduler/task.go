package scheduler

import (
	"github.com/aristath/coordinator/internal/agent"
)

// TaskStatus represents the current state of a task.
// Transitions are pending -> running -> {completed | failed}; terminal states
// are final, the scheduler never re-enters a finished task.
type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskRunning
	TaskCompleted
	TaskFailed
)

// String returns the lowercase name of the status.
func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is final.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// Task is a unit of work in a plan. Sub-tasks form a tree: they run
// depth-first after the parent completes and are invisible to dependency
// analysis. A Task belongs to exactly one plan and is mutated only by the
// scheduler executing that plan.
type Task struct {
	Description string
	AgentName   string // empty means auto-assign via the directory
	SubTasks    []*Task
	Status      TaskStatus
	Result      *agent.Result
}

// NewTask creates a pending task with optional sub-tasks.
func NewTask(description, agentName string, subTasks ...*Task) *Task {
	return &Task{
		Description: description,
		AgentName:   agentName,
		SubTasks:    subTasks,
	}
}

// Plan is an ordered list of top-level tasks working toward one objective.
// Top-level tasks are the unit of dependency analysis.
type Plan struct {
	Objective string
	Tasks     []*Task
}
