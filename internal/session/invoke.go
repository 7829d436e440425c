package session

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rvander/mcp-session/internal/protocol"
)

// Result is a tool invocation's ordered content blocks.
type Result struct {
	Content []protocol.Content
}

// Text returns the first text block's payload. ok is false when the result
// carried no content blocks, which is an empty result, not an error.
func (r *Result) Text() (string, bool) {
	for _, c := range r.Content {
		if c.Type == protocol.ContentTypeText {
			return c.Text, true
		}
	}
	return "", false
}

// InvokeTool calls the named tool with the given arguments. Legal only from
// Ready. The tool must be in the catalog and the arguments must pass the
// schema's required-field and numeric-coercion checks before anything is
// written; the remote dispatcher performs the authoritative validation.
func (s *Session) InvokeTool(name string, args map[string]any) (*Result, error) {
	if err := s.require("invoke tool", Ready); err != nil {
		return nil, err
	}
	tool, ok := s.catalog.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	coerced, err := coerceArguments(tool, args)
	if err != nil {
		return nil, err
	}

	params := protocol.CallToolParams{Name: name, Arguments: coerced}
	env, err := s.corr.send(protocol.MethodCallTool, params)
	if err != nil {
		return nil, s.fail(err)
	}
	if env.Error != nil {
		return nil, &RemoteError{Method: protocol.MethodCallTool, Payload: *env.Error}
	}

	var result protocol.CallToolResult
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return nil, fmt.Errorf("%w: tools/call result: %v", ErrMalformedResponse, err)
	}
	if len(result.Content) == 0 {
		s.logger.Warn("tool returned no content", "tool", name)
	}
	return &Result{Content: result.Content}, nil
}

// coerceArguments soft-validates args against the tool's schema: required
// fields must be present, and values for declared number parameters are
// coerced to float64 (textual input accepted).
func coerceArguments(tool protocol.Tool, args map[string]any) (map[string]any, error) {
	for _, req := range tool.InputSchema.Required {
		if _, ok := args[req]; !ok {
			return nil, fmt.Errorf("%w: %q (tool %s)", ErrMissingArgument, req, tool.Name)
		}
	}

	out := make(map[string]any, len(args))
	for k, v := range args {
		out[k] = v
	}
	for name, prop := range tool.InputSchema.Properties {
		v, ok := out[name]
		if !ok || prop.Type != "number" {
			continue
		}
		f, err := toFloat(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %q must be a number (tool %s): %v", ErrInvalidArgument, name, tool.Name, err)
		}
		out[name] = f
	}
	return out, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse %q", x)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
