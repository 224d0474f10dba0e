package agent

import (
	"fmt"
	"sort"
	"sync"
)

// NotFoundError is returned when a name does not resolve to a registered agent.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("agent %q not registered", e.Name)
}

// Registry is a name-keyed agent directory. It implements Directory.
// Registration happens once at startup; lookups may come from concurrent
// scheduler goroutines, so the map is guarded by a RWMutex.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]Agent
	order  []string // registration order, for deterministic tie-breaking
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[string]Agent),
	}
}

// Register adds an agent under the given name.
// Returns an error if the name is already taken.
func (r *Registry) Register(name string, a Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[name]; exists {
		return fmt.Errorf("agent %q already registered", name)
	}

	r.agents[name] = a
	r.order = append(r.order, name)
	return nil
}

// Get returns the agent registered under name, or a *NotFoundError.
func (r *Registry) Get(name string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.agents[name]
	if !exists {
		return nil, &NotFoundError{Name: name}
	}
	return a, nil
}

// Names returns all registered agent names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// FindByCapability returns all agents reporting a non-zero confidence for the
// task, ordered by descending confidence. Ties keep registration order.
func (r *Registry) FindByCapability(task string) []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		agent Agent
		score float64
		pos   int
	}

	var matches []scored
	for pos, name := range r.order {
		a := r.agents[name]
		if score := a.CanHandle(task); score > 0 {
			matches = append(matches, scored{agent: a, score: score, pos: pos})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].pos < matches[j].pos
	})

	agents := make([]Agent, 0, len(matches))
	for _, m := range matches {
		agents = append(agents, m.agent)
	}
	return agents
}

// FindBestMatch returns the highest-confidence agent for the task together
// with its registered name. Ties keep registration order.
func (r *Registry) FindBestMatch(task string) (string, Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		bestName  string
		best      Agent
		bestScore float64
	)
	for _, name := range r.order {
		a := r.agents[name]
		if score := a.CanHandle(task); score > bestScore {
			bestName, best, bestScore = name, a, score
		}
	}
	if best == nil {
		return "", nil, false
	}
	return bestName, best, true
}
