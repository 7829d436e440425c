// Package server implements the remote side of the protocol: a dispatcher
// with a fixed method table over an explicit tool registry.
package server

import (
	"github.com/rvander/mcp-session/internal/protocol"
)

// ToolFunc executes one tool call. It receives the raw argument mapping and
// returns the result's content blocks; tool-level problems (bad input,
// coercion failures) come back as explanatory text blocks, never as faults.
type ToolFunc func(args map[string]any) []protocol.Content

// ToolDef binds a tool's catalog entry to its handler.
type ToolDef struct {
	Name        string
	Description string
	InputSchema protocol.InputSchema
	Func        ToolFunc
}

// Registry holds the server's tool table. It is constructed once at startup
// and passed into the dispatcher, so multiple independent server instances
// can coexist in one process. Listing order is registration order.
type Registry struct {
	order  []string
	byName map[string]ToolDef
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]ToolDef)}
}

// Register adds a tool definition; re-registering a name replaces the
// handler but keeps the original listing position.
func (r *Registry) Register(def ToolDef) {
	if _, exists := r.byName[def.Name]; !exists {
		r.order = append(r.order, def.Name)
	}
	r.byName[def.Name] = def
}

// Get returns the named tool definition.
func (r *Registry) Get(name string) (ToolDef, bool) {
	def, ok := r.byName[name]
	return def, ok
}

// List returns the catalog entries in registration order.
func (r *Registry) List() []protocol.Tool {
	tools := make([]protocol.Tool, 0, len(r.order))
	for _, name := range r.order {
		def := r.byName[name]
		tools = append(tools, protocol.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		})
	}
	return tools
}
