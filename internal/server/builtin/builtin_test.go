package builtin

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHello(t *testing.T) {
	content := HelloTool.Func(map[string]any{"name": "Alice"})
	require.Len(t, content, 1)
	require.Equal(t, "Hello, Alice! Welcome to the MCP Hello Server!", content[0].Text)
}

func TestHelloDefaultsToWorld(t *testing.T) {
	content := HelloTool.Func(map[string]any{})
	require.Equal(t, "Hello, World! Welcome to the MCP Hello Server!", content[0].Text)
}

func TestEcho(t *testing.T) {
	content := EchoTool.Func(map[string]any{"message": "ping"})
	require.Equal(t, "Echo: ping", content[0].Text)
}

func TestGetTime(t *testing.T) {
	content := GetTimeTool.Func(nil)
	require.Regexp(t, `^Current time: \d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, content[0].Text)
}

func TestAddNumbers(t *testing.T) {
	cases := []struct {
		name string
		args map[string]any
		want string
	}{
		{"integral floats", map[string]any{"a": 42.0, "b": 8.0}, "42.0 + 8.0 = 50.0"},
		{"fractional", map[string]any{"a": 0.5, "b": 0.25}, "0.5 + 0.25 = 0.75"},
		{"textual input", map[string]any{"a": "1", "b": "2"}, "1.0 + 2.0 = 3.0"},
		{"missing defaults to zero", map[string]any{"a": 7}, "7.0 + 0.0 = 7.0"},
		{"negative", map[string]any{"a": -1.5, "b": 1.5}, "-1.5 + 1.5 = 0.0"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			content := AddNumbersTool.Func(tc.args)
			require.Equal(t, tc.want, content[0].Text)
		})
	}
}

func TestAddNumbersInvalidInput(t *testing.T) {
	content := AddNumbersTool.Func(map[string]any{"a": "one", "b": 2})
	require.Contains(t, content[0].Text, "Invalid numbers")
}

func TestFormatNumber(t *testing.T) {
	require.Equal(t, "50.0", formatNumber(50))
	require.Equal(t, "0.0", formatNumber(0))
	require.Equal(t, "2.5", formatNumber(2.5))
	require.Equal(t, "-3.0", formatNumber(-3))
}
