package events

import (
	"time"
)

// Event is the base interface for all events.
type Event interface {
	EventType() string
	Subject() string
}

// Topic constants
const (
	TopicPlan = "plan"
	TopicTask = "task"
	TopicTool = "tool"
)

// Event type constants
const (
	EventTypePlanStarted     = "plan.started"
	EventTypePlanProgress    = "plan.progress"
	EventTypeTaskStarted     = "task.started"
	EventTypeTaskCompleted   = "task.completed"
	EventTypeTaskFailed      = "task.failed"
	EventTypeDelegation      = "task.delegated"
	EventTypeToolConnected   = "tool.connected"
	EventTypeToolCollision   = "tool.collision"
	EventTypeToolCircuitOpen = "tool.circuit_open"
)

// PlanStartedEvent is published when plan execution begins.
type PlanStartedEvent struct {
	Objective string
	Tasks     int
	Parallel  bool
	Timestamp time.Time
}

func (e PlanStartedEvent) EventType() string { return EventTypePlanStarted }
func (e PlanStartedEvent) Subject() string   { return e.Objective }

// PlanProgressEvent is published whenever a top-level task reaches a terminal state.
type PlanProgressEvent struct {
	Total     int
	Completed int
	Failed    int
	Pending   int
	Timestamp time.Time
}

func (e PlanProgressEvent) EventType() string { return EventTypePlanProgress }
func (e PlanProgressEvent) Subject() string   { return "" }

// TaskStartedEvent is published when a task begins execution.
type TaskStartedEvent struct {
	Description string
	AgentName   string
	Timestamp   time.Time
}

func (e TaskStartedEvent) EventType() string { return EventTypeTaskStarted }
func (e TaskStartedEvent) Subject() string   { return e.Description }

// TaskCompletedEvent is published when a task completes successfully.
type TaskCompletedEvent struct {
	Description string
	AgentName   string
	Duration    time.Duration
	Timestamp   time.Time
}

func (e TaskCompletedEvent) EventType() string { return EventTypeTaskCompleted }
func (e TaskCompletedEvent) Subject() string   { return e.Description }

// TaskFailedEvent is published when a task fails.
type TaskFailedEvent struct {
	Description string
	AgentName   string
	Err         error
	Duration    time.Duration
	Timestamp   time.Time
}

func (e TaskFailedEvent) EventType() string { return EventTypeTaskFailed }
func (e TaskFailedEvent) Subject() string   { return e.Description }

// DelegationEvent is published when one agent delegates a sub-task to another.
type DelegationEvent struct {
	From      string
	To        string
	Task      string
	Timestamp time.Time
}

func (e DelegationEvent) EventType() string { return EventTypeDelegation }
func (e DelegationEvent) Subject() string   { return e.To }

// ToolConnectedEvent is published when a tool handler connects and its tools
// are registered.
type ToolConnectedEvent struct {
	Handler   string
	Tools     int
	Timestamp time.Time
}

func (e ToolConnectedEvent) EventType() string { return EventTypeToolConnected }
func (e ToolConnectedEvent) Subject() string   { return e.Handler }

// ToolCollisionEvent is published when two handlers register the same tool name.
type ToolCollisionEvent struct {
	Tool      string
	Kept      string // handler that owns the name
	Dropped   string // handler whose registration was ignored
	Timestamp time.Time
}

func (e ToolCollisionEvent) EventType() string { return EventTypeToolCollision }
func (e ToolCollisionEvent) Subject() string   { return e.Tool }

// ToolCircuitOpenEvent is published when a handler is disabled, either after
// a failed connection attempt or after too many consecutive call errors.
type ToolCircuitOpenEvent struct {
	Handler   string
	Failures  int
	Timestamp time.Time
}

func (e ToolCircuitOpenEvent) EventType() string { return EventTypeToolCircuitOpen }
func (e ToolCircuitOpenEvent) Subject() string   { return e.Handler }
