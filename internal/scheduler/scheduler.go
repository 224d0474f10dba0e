package scheduler

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aristath/coordinator/internal/agent"
	"github.com/aristath/coordinator/internal/events"
)

// DefaultMaxWorkers bounds the parallel pool when the caller passes a
// non-positive limit.
const DefaultMaxWorkers = 4

// ExecutionError wraps a failure from an agent executing one task. Failures
// are contained at the task boundary and recorded on the task; this type is
// what the journal, events, and Delegate surface to callers.
type ExecutionError struct {
	Task string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing task %q: %v", e.Task, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Scheduler executes plans against a directory of agents. One scheduler owns
// one shared execution context; the journal lives as long as the scheduler.
type Scheduler struct {
	dir     agent.Directory
	base    *agent.ExecutionContext
	journal *Journal
	bus     *events.Bus // optional

	mu sync.Mutex // guards base.History appends from pool goroutines
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithBus publishes plan and task lifecycle events to the given bus.
func WithBus(bus *events.Bus) Option {
	return func(s *Scheduler) {
		s.bus = bus
	}
}

// New creates a scheduler over the given agent directory and shared
// execution context.
func New(dir agent.Directory, base *agent.ExecutionContext, opts ...Option) *Scheduler {
	s := &Scheduler{
		dir:     dir,
		base:    base,
		journal: NewJournal(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Journal returns the scheduler's execution journal.
func (s *Scheduler) Journal() *Journal {
	return s.journal
}

// Context returns the scheduler's shared execution context.
func (s *Scheduler) Context() *agent.ExecutionContext {
	return s.base
}

// ExecutePlan runs the plan's top-level tasks sequentially, in order. A task
// failure never aborts its siblings; the failed task carries a synthetic
// error result and execution continues. Returns an error only when ctx is
// cancelled.
func (s *Scheduler) ExecutePlan(ctx context.Context, plan *Plan) error {
	s.publish(events.TopicPlan, events.PlanStartedEvent{
		Objective: plan.Objective,
		Tasks:     len(plan.Tasks),
		Timestamp: time.Now(),
	})

	for _, task := range plan.Tasks {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.runTask(ctx, task)
		s.publishProgress(plan)
	}

	return ctx.Err()
}

// ExecutePlanParallel runs the plan's top-level tasks on a bounded pool,
// honoring the contract-derived dependency graph. A task is submitted once
// all tasks it depends on have reached a terminal state; failed dependencies
// satisfy readiness just like completed ones. When no task is ready but some
// remain - a dependency cycle - the remainder runs sequentially in index
// order so every task still reaches a terminal state.
func (s *Scheduler) ExecutePlanParallel(ctx context.Context, plan *Plan, maxWorkers int) error {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}

	s.publish(events.TopicPlan, events.PlanStartedEvent{
		Objective: plan.Objective,
		Tasks:     len(plan.Tasks),
		Parallel:  true,
		Timestamp: time.Now(),
	})

	inputs, outputs := taskContracts(plan.Tasks, s.dir)
	deps := dependencies(inputs, outputs)

	completed := make(map[int]bool, len(plan.Tasks))
	remaining := make(map[int]bool, len(plan.Tasks))
	for i := range plan.Tasks {
		remaining[i] = true
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)
	done := make(chan taskOutcome, len(plan.Tasks))
	inflight := 0
	failed := 0

	for len(completed) < len(plan.Tasks) {
		// Submit every ready task. Submission order is index order;
		// completion order is up to the pool.
		for _, i := range readyIndices(remaining, completed, deps) {
			idx := i
			task := plan.Tasks[idx]
			delete(remaining, idx)
			inflight++
			g.Go(func() error {
				s.runTask(gctx, task)
				// Status is stable here: the task reached a terminal state
				// in this goroutine and nothing mutates it afterwards.
				done <- taskOutcome{idx: idx, failed: task.Status == TaskFailed}
				return nil
			})
		}

		if inflight == 0 {
			if len(remaining) == 0 {
				break
			}
			// Nothing ready, nothing running, tasks left: the dependency
			// graph has a cycle or an unresolvable wait. Run the remainder
			// sequentially in index order to guarantee forward progress.
			log.Printf("WARNING: dependency cycle among %d remaining tasks, falling back to sequential execution", len(remaining))
			for _, idx := range sortedIndices(remaining) {
				delete(remaining, idx)
				s.runTask(ctx, plan.Tasks[idx])
				completed[idx] = true
				if plan.Tasks[idx].Status == TaskFailed {
					failed++
				}
				s.publishCounts(len(plan.Tasks), len(completed), failed)
			}
			break
		}

		// Block until the next in-flight task finishes, then re-evaluate
		// readiness. Cancellation stops submitting; in-flight tasks drain.
		// Progress counts come from the loop's own bookkeeping; task structs
		// still belong to pool goroutines and are never read here.
		select {
		case outcome := <-done:
			completed[outcome.idx] = true
			if outcome.failed {
				failed++
			}
			inflight--
			s.publishCounts(len(plan.Tasks), len(completed), failed)
		case <-ctx.Done():
			_ = g.Wait()
			return ctx.Err()
		}
	}

	_ = g.Wait()
	return ctx.Err()
}

// Delegate synchronously runs a one-off sub-task on the named agent against a
// fork of the scheduler's context, so the delegate cannot mutate the caller's
// state and concurrent delegations never share mutable containers. Lookup
// failures and execution failures are returned as typed errors, never panics.
func (s *Scheduler) Delegate(ctx context.Context, from, to, task string) (agent.Result, error) {
	target, err := s.dir.Get(to)
	if err != nil {
		return agent.Result{Content: fmt.Sprintf("delegation failed: %v", err)}, err
	}

	s.journal.RecordDelegation(from, to, task)
	s.publish(events.TopicTask, events.DelegationEvent{
		From:      from,
		To:        to,
		Task:      task,
		Timestamp: time.Now(),
	})

	s.mu.Lock()
	forked := s.base.Fork()
	s.mu.Unlock()

	result, err := target.Execute(ctx, forked, task)
	if err != nil {
		execErr := &ExecutionError{Task: task, Err: err}
		return agent.Result{Content: fmt.Sprintf("delegation failed: %v", execErr)}, execErr
	}
	return result, nil
}

// runTask drives one task to a terminal state: resolve the agent, execute,
// record the outcome, then run sub-tasks depth-first. Sub-tasks only run when
// the parent completed; they execute sequentially inside the caller's pool
// slot and never join the dependency graph.
func (s *Scheduler) runTask(ctx context.Context, task *Task) {
	if task.Status.Terminal() {
		return
	}

	task.Status = TaskRunning
	started := time.Now()

	name, a, err := s.resolveAgent(task)
	if err != nil {
		s.failTask(task, name, err, started)
		return
	}

	s.publish(events.TopicTask, events.TaskStartedEvent{
		Description: task.Description,
		AgentName:   name,
		Timestamp:   started,
	})

	result, err := a.Execute(ctx, s.base, task.Description)
	if err != nil {
		s.failTask(task, name, &ExecutionError{Task: task.Description, Err: err}, started)
		return
	}

	task.Result = &result
	task.Status = TaskCompleted
	s.journal.RecordExecution(name, task.Description)
	s.appendHistory(fmt.Sprintf("[%s] %s: %s", name, task.Description, result.Content))
	s.publish(events.TopicTask, events.TaskCompletedEvent{
		Description: task.Description,
		AgentName:   name,
		Duration:    time.Since(started),
		Timestamp:   time.Now(),
	})

	for _, sub := range task.SubTasks {
		if ctx.Err() != nil {
			return
		}
		s.runTask(ctx, sub)
	}
}

// resolveAgent returns the agent for a task, auto-assigning the best match
// when the task has no assigned name.
func (s *Scheduler) resolveAgent(task *Task) (string, agent.Agent, error) {
	if task.AgentName != "" {
		a, err := s.dir.Get(task.AgentName)
		if err != nil {
			return task.AgentName, nil, err
		}
		return task.AgentName, a, nil
	}

	name, a, ok := s.dir.FindBestMatch(task.Description)
	if !ok {
		return "", nil, fmt.Errorf("no agent can handle task %q", task.Description)
	}
	return name, a, nil
}

// failTask marks the task failed with a synthetic error result. Failures are
// data, not control flow: siblings and the surrounding loop keep going.
func (s *Scheduler) failTask(task *Task, name string, err error, started time.Time) {
	log.Printf("ERROR: task %q failed: %v", task.Description, err)
	task.Status = TaskFailed
	task.Result = &agent.Result{Content: fmt.Sprintf("error: %v", err)}
	s.publish(events.TopicTask, events.TaskFailedEvent{
		Description: task.Description,
		AgentName:   name,
		Err:         err,
		Duration:    time.Since(started),
		Timestamp:   time.Now(),
	})
}

// appendHistory adds a summary line to the shared conversation history so
// later tasks see prior output. All appends go through the scheduler mutex.
func (s *Scheduler) appendHistory(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base.History = append(s.base.History, line)
}

func (s *Scheduler) publish(topic string, ev events.Event) {
	if s.bus != nil {
		s.bus.Publish(topic, ev)
	}
}

// publishProgress walks the plan's task statuses. Only safe when no pool
// goroutine owns a task, so the sequential executor uses it; the parallel
// loop publishes through publishCounts instead.
func (s *Scheduler) publishProgress(plan *Plan) {
	if s.bus == nil {
		return
	}

	var completed, failed, pending int
	for _, task := range plan.Tasks {
		switch task.Status {
		case TaskCompleted:
			completed++
		case TaskFailed:
			failed++
		default:
			pending++
		}
	}
	s.bus.Publish(events.TopicPlan, events.PlanProgressEvent{
		Total:     len(plan.Tasks),
		Completed: completed,
		Failed:    failed,
		Pending:   pending,
		Timestamp: time.Now(),
	})
}

// publishCounts publishes progress from externally tracked counts. terminal
// includes failed.
func (s *Scheduler) publishCounts(total, terminal, failed int) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.TopicPlan, events.PlanProgressEvent{
		Total:     total,
		Completed: terminal - failed,
		Failed:    failed,
		Pending:   total - terminal,
		Timestamp: time.Now(),
	})
}

// taskOutcome reports one finished pool task back to the submitting loop.
type taskOutcome struct {
	idx    int
	failed bool
}

// readyIndices returns the remaining task indices whose dependencies have all
// reached a terminal state, in ascending index order.
func readyIndices(remaining, completed map[int]bool, deps [][]int) []int {
	var ready []int
	for idx := range remaining {
		ok := true
		for _, dep := range deps[idx] {
			if !completed[dep] {
				ok = false
				break
			}
		}
		if ok {
			ready = append(ready, idx)
		}
	}
	sort.Ints(ready)
	return ready
}

func sortedIndices(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for idx := range set {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
