package session

import (
	"sync"

	"github.com/rvander/mcp-session/internal/protocol"
)

// catalog is the client-side snapshot of the server's tools. Discovery
// replaces the whole snapshot atomically; lookups never see a partial one.
type catalog struct {
	mu     sync.RWMutex
	tools  []protocol.Tool
	byName map[string]protocol.Tool
}

func newCatalog() *catalog {
	return &catalog{byName: make(map[string]protocol.Tool)}
}

func (c *catalog) replace(tools []protocol.Tool) {
	byName := make(map[string]protocol.Tool, len(tools))
	for _, t := range tools {
		byName[t.Name] = t
	}
	c.mu.Lock()
	c.tools = tools
	c.byName = byName
	c.mu.Unlock()
}

func (c *catalog) lookup(name string) (protocol.Tool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.byName[name]
	return t, ok
}

// snapshot returns the tools in discovery order.
func (c *catalog) snapshot() []protocol.Tool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]protocol.Tool, len(c.tools))
	copy(out, c.tools)
	return out
}
