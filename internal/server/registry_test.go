package server_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rvander/mcp-session/internal/protocol"
	"github.com/rvander/mcp-session/internal/server"
)

func def(name string) server.ToolDef {
	return server.ToolDef{
		Name:        name,
		Description: name + " tool",
		InputSchema: protocol.InputSchema{Type: "object"},
		Func: func(args map[string]any) []protocol.Content {
			return []protocol.Content{protocol.TextContent(name)}
		},
	}
}

func TestRegistryListsInRegistrationOrder(t *testing.T) {
	reg := server.NewRegistry()
	reg.Register(def("c"))
	reg.Register(def("a"))
	reg.Register(def("b"))

	tools := reg.List()
	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}
	require.Equal(t, []string{"c", "a", "b"}, names)
}

func TestRegistryReRegisterKeepsPosition(t *testing.T) {
	reg := server.NewRegistry()
	reg.Register(def("a"))
	reg.Register(def("b"))
	replacement := def("a")
	replacement.Description = "replaced"
	reg.Register(replacement)

	tools := reg.List()
	require.Len(t, tools, 2)
	require.Equal(t, "a", tools[0].Name)
	require.Equal(t, "replaced", tools[0].Description)

	got, ok := reg.Get("a")
	require.True(t, ok)
	require.Equal(t, "replaced", got.Description)

	_, ok = reg.Get("missing")
	require.False(t, ok)
}
