package config

// DefaultConfig returns the default configuration with built-in agents and
// scheduler settings.
func DefaultConfig() *Config {
	return &Config{
		Agents: map[string]AgentConfig{
			"planner": {
				Command:  "claude",
				Keywords: []string{"plan", "design", "architecture"},
				Outputs:  []string{"plan"},
			},
			"coder": {
				Command:  "claude",
				Keywords: []string{"implement", "code", "write", "fix"},
				Inputs:   []string{"plan"},
				Outputs:  []string{"code"},
			},
			"reviewer": {
				Command:  "claude",
				Keywords: []string{"review", "critique"},
				Inputs:   []string{"code"},
				Outputs:  []string{"review"},
			},
			"tester": {
				Command:  "claude",
				Keywords: []string{"test", "verify", "validate"},
				Inputs:   []string{"code"},
				Outputs:  []string{"test-report"},
			},
		},
		ToolServers: map[string]ToolServerConfig{},
		Scheduler: SchedulerConfig{
			MaxWorkers: 4,
		},
	}
}
