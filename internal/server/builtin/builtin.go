// Package builtin holds the tool definitions the local server ships with.
// Each handler is a pure function from an argument mapping to content blocks.
package builtin

import (
	"fmt"
	"time"

	"github.com/rvander/mcp-session/internal/protocol"
	"github.com/rvander/mcp-session/internal/server"
)

// HelloTool greets the named person.
var HelloTool = server.ToolDef{
	Name:        "hello",
	Description: "Say hello to someone",
	InputSchema: protocol.InputSchema{
		Type: "object",
		Properties: map[string]protocol.Property{
			"name": {Type: "string", Description: "The name of the person to greet"},
		},
		Required: []string{"name"},
	},
	Func: func(args map[string]any) []protocol.Content {
		name, _ := args["name"].(string)
		if name == "" {
			name = "World"
		}
		return []protocol.Content{
			protocol.TextContent(fmt.Sprintf("Hello, %s! Welcome to the MCP Hello Server!", name)),
		}
	},
}

// EchoTool returns the message it was given.
var EchoTool = server.ToolDef{
	Name:        "echo",
	Description: "Echo back the provided message",
	InputSchema: protocol.InputSchema{
		Type: "object",
		Properties: map[string]protocol.Property{
			"message": {Type: "string", Description: "The message to echo back"},
		},
		Required: []string{"message"},
	},
	Func: func(args map[string]any) []protocol.Content {
		message, _ := args["message"].(string)
		return []protocol.Content{protocol.TextContent("Echo: " + message)}
	},
}

// GetTimeTool reports the current local time.
var GetTimeTool = server.ToolDef{
	Name:        "get_time",
	Description: "Get the current time",
	InputSchema: protocol.InputSchema{
		Type:       "object",
		Properties: map[string]protocol.Property{},
	},
	Func: func(args map[string]any) []protocol.Content {
		now := time.Now().Format("2006-01-02 15:04:05")
		return []protocol.Content{protocol.TextContent("Current time: " + now)}
	},
}

// AddNumbersTool adds two numbers, coercing textual input to float64.
var AddNumbersTool = server.ToolDef{
	Name:        "add_numbers",
	Description: "Add two numbers together",
	InputSchema: protocol.InputSchema{
		Type: "object",
		Properties: map[string]protocol.Property{
			"a": {Type: "number", Description: "First number"},
			"b": {Type: "number", Description: "Second number"},
		},
		Required: []string{"a", "b"},
	},
	Func: func(args map[string]any) []protocol.Content {
		a, errA := asFloat(args["a"])
		b, errB := asFloat(args["b"])
		if errA != nil || errB != nil {
			return []protocol.Content{
				protocol.TextContent("Error: Invalid numbers provided"),
			}
		}
		return []protocol.Content{
			protocol.TextContent(fmt.Sprintf("%s + %s = %s",
				formatNumber(a), formatNumber(b), formatNumber(a+b))),
		}
	},
}

// RegisterAll adds every builtin tool to the registry in catalog order.
func RegisterAll(reg *server.Registry) {
	reg.Register(HelloTool)
	reg.Register(EchoTool)
	reg.Register(GetTimeTool)
	reg.Register(AddNumbersTool)
}
