package agent

import "context"

// Result is the output of a single agent execution.
type Result struct {
	Content  string
	Metadata map[string]any
}

// Contract declares the named artifacts an agent consumes and produces.
// Contracts drive dependency inference in the scheduler; they are not
// enforced at runtime.
type Contract struct {
	Inputs  []string
	Outputs []string
}

// Agent defines the interface that every worker the scheduler can drive
// must implement.
type Agent interface {
	// Execute runs the given task description against the execution context
	// and returns the result.
	Execute(ctx context.Context, ec *ExecutionContext, task string) (Result, error)

	// Contract returns the declared input/output artifact names.
	Contract() Contract

	// CanHandle returns a confidence score in [0, 1] that this agent can
	// execute the given task description. Zero means "cannot handle".
	CanHandle(task string) float64
}

// Directory resolves agents by name or by capability.
type Directory interface {
	// Get returns the agent registered under name.
	// Returns a *NotFoundError if no such agent exists.
	Get(name string) (Agent, error)

	// FindByCapability returns all agents with a non-zero confidence for the
	// task, ordered by descending confidence.
	FindByCapability(task string) []Agent

	// FindBestMatch returns the highest-confidence agent for the task and
	// its registered name, or false if no agent reports a non-zero
	// confidence.
	FindBestMatch(task string) (string, Agent, bool)
}
