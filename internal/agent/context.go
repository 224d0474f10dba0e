package agent

// ExecutionContext carries the mutable state an agent sees while executing:
// the running conversation history, named artifacts produced so far, and
// free-form shared state.
type ExecutionContext struct {
	Provider    string   // AI provider identifier (informational, opaque to the core)
	History     []string // Conversation history, oldest first
	Artifacts   map[string]any
	SharedState map[string]any
	ProjectDir  string
}

// NewExecutionContext creates an empty execution context rooted at projectDir.
func NewExecutionContext(provider, projectDir string) *ExecutionContext {
	return &ExecutionContext{
		Provider:    provider,
		History:     []string{},
		Artifacts:   make(map[string]any),
		SharedState: make(map[string]any),
		ProjectDir:  projectDir,
	}
}

// Fork returns an independent copy of the context. The history slice and the
// artifact and shared-state maps are copied, so mutations on either side are
// invisible to the other. Map values are copied by assignment; artifacts are
// expected to be immutable once stored.
func (ec *ExecutionContext) Fork() *ExecutionContext {
	if ec == nil {
		return nil
	}

	cp := &ExecutionContext{
		Provider:    ec.Provider,
		History:     append([]string(nil), ec.History...),
		Artifacts:   cloneMap(ec.Artifacts),
		SharedState: cloneMap(ec.SharedState),
		ProjectDir:  ec.ProjectDir,
	}
	return cp
}

func cloneMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
