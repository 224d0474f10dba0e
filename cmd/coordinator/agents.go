package main

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/aristath/coordinator/internal/agent"
	"github.com/aristath/coordinator/internal/config"
)

// cliAgent executes tasks by invoking a configured CLI command with the task
// text as the final argument. Confidence comes from configured keyword
// matches against the task description.
type cliAgent struct {
	name string
	cfg  config.AgentConfig
}

func newCLIAgent(name string, cfg config.AgentConfig) *cliAgent {
	return &cliAgent{name: name, cfg: cfg}
}

func (a *cliAgent) Execute(ctx context.Context, ec *agent.ExecutionContext, task string) (agent.Result, error) {
	args := append(append([]string(nil), a.cfg.Args...), task)
	cmd := exec.CommandContext(ctx, a.cfg.Command, args...)
	cmd.Dir = ec.ProjectDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return agent.Result{}, fmt.Errorf("running %s: %w (%s)", a.cfg.Command, err, strings.TrimSpace(stderr.String()))
	}

	return agent.Result{
		Content:  strings.TrimSpace(stdout.String()),
		Metadata: map[string]any{"agent": a.name, "command": a.cfg.Command},
	}, nil
}

func (a *cliAgent) Contract() agent.Contract {
	return agent.Contract{
		Inputs:  a.cfg.Inputs,
		Outputs: a.cfg.Outputs,
	}
}

func (a *cliAgent) CanHandle(task string) float64 {
	if len(a.cfg.Keywords) == 0 {
		return 0
	}

	lowered := strings.ToLower(task)
	matched := 0
	for _, kw := range a.cfg.Keywords {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			matched++
		}
	}
	return float64(matched) / float64(len(a.cfg.Keywords))
}

// buildRegistry creates the agent registry from configuration, wrapping
// agents that opted into resilience.
func buildRegistry(cfg *config.Config) (*agent.Registry, error) {
	registry := agent.NewRegistry()

	for name, agentCfg := range cfg.Agents {
		var a agent.Agent = newCLIAgent(name, agentCfg)
		if agentCfg.Resilient {
			a = agent.NewResilient(name, a, agent.DefaultRetryConfig())
		}
		if err := registry.Register(name, a); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
