package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/aristath/coordinator/internal/config"
	"github.com/aristath/coordinator/internal/tooling"
)

// execHandler adapts a configured CLI tool server: each call runs the server
// binary with the tool name and JSON-encoded arguments. Connect verifies the
// binary resolves on PATH.
type execHandler struct {
	name string
	cfg  config.ToolServerConfig

	mu        sync.Mutex
	connected bool
}

func newExecHandler(name string, cfg config.ToolServerConfig) *execHandler {
	return &execHandler{name: name, cfg: cfg}
}

func (h *execHandler) Name() string { return h.name }

func (h *execHandler) Connect(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.connected {
		return nil
	}
	if _, err := exec.LookPath(h.cfg.Command); err != nil {
		return fmt.Errorf("tool server %q: %w", h.name, err)
	}
	h.connected = true
	return nil
}

func (h *execHandler) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.connected
}

func (h *execHandler) ListTools(ctx context.Context) ([]tooling.Definition, error) {
	return []tooling.Definition{
		{
			Name:        h.name,
			Description: fmt.Sprintf("Invoke the %s tool server", h.name),
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"input": map[string]any{"type": "string"},
				},
			},
		},
	}, nil
}

func (h *execHandler) CallTool(ctx context.Context, name string, args map[string]any) tooling.Result {
	encoded, err := json.Marshal(args)
	if err != nil {
		return tooling.Errorf("encoding arguments: %v", err)
	}

	cmdArgs := append(append([]string(nil), h.cfg.Args...), name)
	cmd := exec.CommandContext(ctx, h.cfg.Command, cmdArgs...)
	cmd.Stdin = bytes.NewReader(encoded)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return tooling.Errorf("tool %q: %v (%s)", name, err, strings.TrimSpace(stderr.String()))
	}

	return tooling.Result{Content: strings.TrimSpace(stdout.String())}
}

func (h *execHandler) Disconnect(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connected = false
	return nil
}

func (h *execHandler) MatchesScope(stage, agent string) bool {
	return matchesList(h.cfg.Stages, stage) && matchesList(h.cfg.Agents, agent)
}

func matchesList(allowed []string, value string) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, v := range allowed {
		if v == value {
			return true
		}
	}
	return false
}

// buildToolDirectory creates the handler directory from configuration.
func buildToolDirectory(cfg *config.Config) (*tooling.Directory, error) {
	dir := tooling.NewDirectory()
	for name, tsCfg := range cfg.ToolServers {
		h := newExecHandler(name, tsCfg)
		var err error
		if tsCfg.Custom {
			err = dir.RegisterCustom(h)
		} else {
			err = dir.RegisterBuiltin(h)
		}
		if err != nil {
			return nil, err
		}
	}
	return dir, nil
}
