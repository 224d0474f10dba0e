package tooling

import (
	"context"
	"fmt"
)

// Definition describes one tool offered by a handler, in the shape consumed
// by an external tool-choosing component.
type Definition struct {
	Name        string
	Description string
	InputSchema map[string]any
	Handler     string // owning handler name
}

// Result is the outcome of a tool call. Handlers must never panic or leak
// transport errors; failure is always represented as IsError with a message.
type Result struct {
	Content      string
	IsError      bool
	ErrorMessage string
	Metadata     map[string]any
}

// Errorf builds an error Result.
func Errorf(format string, args ...any) Result {
	return Result{IsError: true, ErrorMessage: fmt.Sprintf(format, args...)}
}

// Handler adapts one external tool server. Each handler owns its own
// transport, auth, and protocol; the manager only drives this interface.
type Handler interface {
	// Name identifies the handler in the directory and in tool routing.
	Name() string

	// Connect establishes the server connection. Idempotent on success;
	// implementations must set their connected flag before returning nil.
	Connect(ctx context.Context) error

	// Connected reports whether the handler holds a live connection.
	Connected() bool

	// ListTools returns the tools the server offers.
	ListTools(ctx context.Context) ([]Definition, error)

	// CallTool invokes a tool. It must never panic; failures come back as
	// Result.IsError.
	CallTool(ctx context.Context, name string, args map[string]any) Result

	// Disconnect tears the connection down. Safe to call repeatedly.
	Disconnect(ctx context.Context) error

	// MatchesScope reports whether this handler is available to the given
	// workflow stage and agent.
	MatchesScope(stage, agent string) bool
}
