package config

// AgentConfig defines one agent: the command that executes its tasks, the
// artifact contract used for dependency inference, and the keywords that
// drive auto-assignment confidence.
type AgentConfig struct {
	Command   string   `json:"command"`             // CLI binary invoked with the task text
	Args      []string `json:"args,omitempty"`      // Default args prepended before the task text
	Inputs    []string `json:"inputs,omitempty"`    // Artifact names this agent consumes
	Outputs   []string `json:"outputs,omitempty"`   // Artifact names this agent produces
	Keywords  []string `json:"keywords,omitempty"`  // Task keywords this agent claims
	Resilient bool     `json:"resilient,omitempty"` // Wrap with retry + circuit breaker
}

// ToolServerConfig defines one external tool server and its scope: which
// workflow stages and which agents may use it.
type ToolServerConfig struct {
	Command string   `json:"command"`          // Server binary (the handler owns the transport)
	Args    []string `json:"args,omitempty"`   // Args passed to the server binary
	Stages  []string `json:"stages,omitempty"` // Allowed stages; empty means all
	Agents  []string `json:"agents,omitempty"` // Allowed agents; empty means all
	Custom  bool     `json:"custom,omitempty"` // Custom layer, shadows a built-in of the same name
}

// SchedulerConfig holds execution settings.
type SchedulerConfig struct {
	MaxWorkers int    `json:"max_workers,omitempty"` // Parallel pool size (default 4)
	HistoryDB  string `json:"history_db,omitempty"`  // SQLite run-history path; empty disables
}

// Config is the top-level configuration.
type Config struct {
	Agents      map[string]AgentConfig      `json:"agents"`
	ToolServers map[string]ToolServerConfig `json:"tool_servers"`
	Scheduler   SchedulerConfig             `json:"scheduler"`
}
