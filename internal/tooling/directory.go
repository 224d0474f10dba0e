package tooling

import (
	"fmt"
	"sync"
)

// Directory resolves tool handlers by name and by scope. Handlers live in
// two layers: custom registrations shadow built-in ones under the same name,
// the same precedence the config loader gives project files over global ones.
// Within a layer, discovery order is registration order.
type Directory struct {
	mu           sync.RWMutex
	builtin      map[string]Handler
	custom       map[string]Handler
	builtinOrder []string
	customOrder  []string
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{
		builtin: make(map[string]Handler),
		custom:  make(map[string]Handler),
	}
}

// RegisterBuiltin adds a handler to the built-in layer.
func (d *Directory) RegisterBuiltin(h Handler) error {
	return d.register(d.builtin, &d.builtinOrder, h)
}

// RegisterCustom adds a handler to the custom layer, shadowing any built-in
// handler with the same name.
func (d *Directory) RegisterCustom(h Handler) error {
	return d.register(d.custom, &d.customOrder, h)
}

func (d *Directory) register(layer map[string]Handler, order *[]string, h Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	name := h.Name()
	if name == "" {
		return fmt.Errorf("handler name cannot be empty")
	}
	if _, exists := layer[name]; exists {
		return fmt.Errorf("tool handler %q already registered", name)
	}

	layer[name] = h
	*order = append(*order, name)
	return nil
}

// Get returns the handler registered under name; custom beats built-in.
func (d *Directory) Get(name string) (Handler, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if h, ok := d.custom[name]; ok {
		return h, true
	}
	h, ok := d.builtin[name]
	return h, ok
}

// ForScope returns all handlers matching the given stage and agent, custom
// layer first, each layer in registration order. A built-in handler shadowed
// by a custom one is excluded regardless of scope.
func (d *Directory) ForScope(stage, agent string) []Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var handlers []Handler
	for _, name := range d.customOrder {
		if h := d.custom[name]; h.MatchesScope(stage, agent) {
			handlers = append(handlers, h)
		}
	}
	for _, name := range d.builtinOrder {
		if _, shadowed := d.custom[name]; shadowed {
			continue
		}
		if h := d.builtin[name]; h.MatchesScope(stage, agent) {
			handlers = append(handlers, h)
		}
	}
	return handlers
}
