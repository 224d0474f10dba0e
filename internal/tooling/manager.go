package tooling

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/aristath/coordinator/internal/events"
)

// failureThreshold is the number of consecutive error results after which a
// handler is disabled for the remainder of the manager's lifetime.
const failureThreshold = 3

// Manager owns the runtime state of every registered handler: lazy
// connection, the global tool-name routing table, consecutive-failure circuit
// breaking, and coordinated shutdown. All state mutations happen under one
// manager-wide mutex. A broken handler never heals; recovery is a fresh
// manager instance.
type Manager struct {
	dir *Directory
	bus *events.Bus // optional

	mu          sync.Mutex
	connected   map[string]bool
	broken      map[string]bool
	errorCounts map[string]int
	toolOwners  map[string]string // tool name -> handler name
	toolDefs    map[string]Definition
	toolOrder   []string // tool registration order, for stable listings
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerBus publishes tool lifecycle events to the given bus.
func WithManagerBus(bus *events.Bus) ManagerOption {
	return func(m *Manager) {
		m.bus = bus
	}
}

// NewManager creates a manager over the given handler directory.
// Call ShutdownAll (typically via defer) when done; it is safe on every exit
// path and idempotent.
func NewManager(dir *Directory, opts ...ManagerOption) *Manager {
	m := &Manager{
		dir:         dir,
		connected:   make(map[string]bool),
		broken:      make(map[string]bool),
		errorCounts: make(map[string]int),
		toolOwners:  make(map[string]string),
		toolDefs:    make(map[string]Definition),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// GetToolsForScope returns the tools offered by every healthy handler in
// scope, connecting handlers lazily on first use. A handler that fails to
// connect is circuit-broken immediately, identical to a runtime failure, and
// skipped. Tool names collide across handlers first-registered-wins; the
// losing registration is dropped with a logged warning.
func (m *Manager) GetToolsForScope(ctx context.Context, stage, agent string) []Definition {
	var tools []Definition

	for _, h := range m.dir.ForScope(stage, agent) {
		name := h.Name()

		m.mu.Lock()
		if m.broken[name] {
			m.mu.Unlock()
			continue
		}
		if err := m.ensureConnectedLocked(ctx, h); err != nil {
			m.mu.Unlock()
			continue
		}
		m.mu.Unlock()

		defs, err := h.ListTools(ctx)
		if err != nil {
			log.Printf("WARNING: listing tools for handler %q: %v", name, err)
			continue
		}

		registered := 0
		for _, def := range defs {
			def.Handler = name

			m.mu.Lock()
			owner, taken := m.toolOwners[def.Name]
			if taken && owner != name {
				m.mu.Unlock()
				log.Printf("WARNING: tool name collision: %q already provided by handler %q, dropping registration from %q", def.Name, owner, name)
				m.publish(events.ToolCollisionEvent{
					Tool:      def.Name,
					Kept:      owner,
					Dropped:   name,
					Timestamp: time.Now(),
				})
				continue
			}
			if !taken {
				m.toolOwners[def.Name] = name
				m.toolOrder = append(m.toolOrder, def.Name)
			}
			m.toolDefs[def.Name] = def
			m.mu.Unlock()

			tools = append(tools, def)
			registered++
		}

		m.publish(events.ToolConnectedEvent{
			Handler:   name,
			Tools:     registered,
			Timestamp: time.Now(),
		})
	}

	return tools
}

// GetToolsAsSchema returns the registered tools for a scope as generic
// tool-calling schema maps (name, description, input schema) for consumption
// by an external choice-making component.
func (m *Manager) GetToolsAsSchema(ctx context.Context, stage, agent string) []map[string]any {
	tools := m.GetToolsForScope(ctx, stage, agent)

	schema := make([]map[string]any, 0, len(tools))
	for _, def := range tools {
		schema = append(schema, map[string]any{
			"name":         def.Name,
			"description":  def.Description,
			"input_schema": def.InputSchema,
		})
	}
	return schema
}

// CallTool routes a call to the handler owning the tool name. Unknown tools
// and broken handlers come back as error results without touching any
// handler. Error results feed the per-handler consecutive-failure counter; a
// success resets it; hitting the threshold breaks the handler permanently.
func (m *Manager) CallTool(ctx context.Context, toolName string, args map[string]any) Result {
	m.mu.Lock()
	owner, ok := m.toolOwners[toolName]
	if !ok {
		m.mu.Unlock()
		return Errorf("unknown tool %q", toolName)
	}
	if m.broken[owner] {
		m.mu.Unlock()
		return Errorf("tool handler %q unavailable", owner)
	}
	m.mu.Unlock()

	h, ok := m.dir.Get(owner)
	if !ok {
		return Errorf("tool handler %q not found", owner)
	}

	// The handler call happens outside the lock; a concurrent caller may see
	// the handler as healthy just before it breaks, which is fine - its own
	// result feeds the counter.
	result := h.CallTool(ctx, toolName, args)

	m.mu.Lock()
	defer m.mu.Unlock()

	if result.IsError {
		m.errorCounts[owner]++
		if m.errorCounts[owner] >= failureThreshold && !m.broken[owner] {
			m.broken[owner] = true
			log.Printf("WARNING: disabling tool handler %q after %d consecutive errors", owner, m.errorCounts[owner])
			m.publish(events.ToolCircuitOpenEvent{
				Handler:   owner,
				Failures:  m.errorCounts[owner],
				Timestamp: time.Now(),
			})
		}
	} else {
		m.errorCounts[owner] = 0
	}

	return result
}

// ShutdownAll disconnects every connected handler and clears all manager
// state. Disconnect errors are logged per handler and never block the rest.
// Safe to call multiple times and from a defer.
func (m *Manager) ShutdownAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for name, isConnected := range m.connected {
		if !isConnected {
			continue
		}
		h, ok := m.dir.Get(name)
		if !ok {
			continue
		}
		if err := h.Disconnect(ctx); err != nil {
			log.Printf("WARNING: disconnecting tool handler %q: %v", name, err)
		}
	}

	m.connected = make(map[string]bool)
	m.broken = make(map[string]bool)
	m.errorCounts = make(map[string]int)
	m.toolOwners = make(map[string]string)
	m.toolDefs = make(map[string]Definition)
	m.toolOrder = nil
}

// ensureConnectedLocked connects the handler if it is not connected yet.
// A connect error, or a handler whose connected flag stays false, breaks the
// circuit immediately: a failed connection is treated identically to a
// runtime failure, with no retry. Caller must hold m.mu.
func (m *Manager) ensureConnectedLocked(ctx context.Context, h Handler) error {
	name := h.Name()
	if m.connected[name] {
		return nil
	}

	err := h.Connect(ctx)
	if err == nil && !h.Connected() {
		err = fmt.Errorf("handler %q did not report connected after Connect", name)
	}
	if err != nil {
		m.broken[name] = true
		log.Printf("WARNING: disabling tool handler %q: connect failed: %v", name, err)
		m.publish(events.ToolCircuitOpenEvent{
			Handler:   name,
			Timestamp: time.Now(),
		})
		return err
	}

	m.connected[name] = true
	return nil
}

// Tools returns every tool registered so far, in registration order.
func (m *Manager) Tools() []Definition {
	m.mu.Lock()
	defer m.mu.Unlock()

	defs := make([]Definition, 0, len(m.toolOrder))
	for _, name := range m.toolOrder {
		defs = append(defs, m.toolDefs[name])
	}
	return defs
}

// handlerBroken reports whether a handler is circuit-broken.
func (m *Manager) handlerBroken(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.broken[name]
}

func (m *Manager) publish(ev events.Event) {
	if m.bus != nil {
		m.bus.Publish(events.TopicTool, ev)
	}
}
