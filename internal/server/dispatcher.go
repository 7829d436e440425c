package server

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rvander/mcp-session/internal/protocol"
)

// Dispatcher routes inbound JSON-RPC lines to the fixed method table:
// initialize, notifications/initialized, tools/list, tools/call. Tool-level
// problems are reported as successful responses carrying explanatory text;
// request-shape violations yield JSON-RPC error objects.
type Dispatcher struct {
	registry  *Registry
	info      protocol.ServerInfo
	logger    *slog.Logger
	supported map[string]bool
}

// NewDispatcher builds a dispatcher over the given registry and server
// identity.
func NewDispatcher(registry *Registry, info protocol.ServerInfo, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry:  registry,
		info:      info,
		logger:    logger,
		supported: map[string]bool{protocol.ProtocolVersion: true},
	}
}

// HandleLine processes one inbound line. reply is the serialized response and
// ok reports whether anything should be written back; notifications produce
// no reply, not even on error.
func (d *Dispatcher) HandleLine(line []byte) (reply []byte, ok bool) {
	var env protocol.Envelope
	if err := json.Unmarshal(line, &env); err != nil {
		d.logger.Warn("unparsable request line", "err", err)
		return d.marshal(protocol.NewErrorResponse(nil, protocol.CodeParseError, "parse error", err.Error()))
	}

	if env.Method == "" {
		d.logger.Warn("request without method")
		return d.marshal(protocol.NewErrorResponse(rawID(env.ID), protocol.CodeInvalidRequest, "missing method", nil))
	}

	if env.IsNotification() {
		d.handleNotification(env.Method)
		return nil, false
	}

	id := rawID(env.ID)
	d.logger.Info("dispatching request", "method", env.Method, "id", string(env.ID))

	switch env.Method {
	case protocol.MethodInitialize:
		return d.marshal(d.handleInitialize(id, env.Params))
	case protocol.MethodListTools:
		return d.marshal(d.handleListTools(id))
	case protocol.MethodCallTool:
		return d.marshal(d.handleCallTool(id, env.Params))
	case protocol.MethodInitialized:
		return d.marshal(protocol.NewErrorResponse(id, protocol.CodeInvalidRequest,
			fmt.Sprintf("%s must be a notification", env.Method), nil))
	default:
		return d.marshal(protocol.NewErrorResponse(id, protocol.CodeMethodNotFound,
			fmt.Sprintf("method not found: %s", env.Method), nil))
	}
}

func (d *Dispatcher) handleNotification(method string) {
	switch method {
	case protocol.MethodInitialized:
		d.logger.Info("client reported initialized")
	default:
		d.logger.Warn("ignoring unknown notification", "method", method)
	}
}

func (d *Dispatcher) handleInitialize(id any, params json.RawMessage) *protocol.Response {
	var p protocol.InitializeParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return protocol.NewErrorResponse(id, protocol.CodeInvalidParams,
				"invalid initialize params", err.Error())
		}
	}
	if !d.supported[p.ProtocolVersion] {
		return protocol.NewErrorResponse(id, protocol.CodeInvalidParams,
			fmt.Sprintf("unsupported protocol version %q", p.ProtocolVersion), nil)
	}
	result := protocol.InitializeResult{
		ServerInfo: d.info,
		Capabilities: map[string]any{
			"tools": map[string]any{},
		},
	}
	return protocol.NewSuccessResponse(id, result)
}

func (d *Dispatcher) handleListTools(id any) *protocol.Response {
	return protocol.NewSuccessResponse(id, protocol.ListToolsResult{Tools: d.registry.List()})
}

func (d *Dispatcher) handleCallTool(id any, params json.RawMessage) *protocol.Response {
	var p protocol.CallToolParams
	if err := json.Unmarshal(params, &p); err != nil {
		return protocol.NewErrorResponse(id, protocol.CodeInvalidParams,
			"invalid tools/call params", err.Error())
	}
	if p.Name == "" {
		return protocol.NewErrorResponse(id, protocol.CodeInvalidParams,
			"tool name is required", nil)
	}

	def, found := d.registry.Get(p.Name)
	if !found {
		// Tool-level problem: a successful response with an explanatory
		// text block, not a protocol-level error.
		d.logger.Warn("call for unknown tool", "tool", p.Name)
		return protocol.NewSuccessResponse(id, protocol.CallToolResult{
			Content: []protocol.Content{protocol.TextContent("Unknown tool: " + p.Name)},
		})
	}

	args := p.Arguments
	if args == nil {
		args = map[string]any{}
	}
	content := d.invoke(def, args)
	if content == nil {
		content = []protocol.Content{}
	}
	return protocol.NewSuccessResponse(id, protocol.CallToolResult{Content: content})
}

// invoke runs a tool handler, converting any escaped panic into a textual
// error block so the session keeps a well-formed response.
func (d *Dispatcher) invoke(def ToolDef, args map[string]any) (content []protocol.Content) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("tool handler panicked", "tool", def.Name, "panic", r)
			content = []protocol.Content{
				protocol.TextContent(fmt.Sprintf("Error: tool %s failed: %v", def.Name, r)),
			}
		}
	}()
	return def.Func(args)
}

func (d *Dispatcher) marshal(resp *protocol.Response) ([]byte, bool) {
	out, err := json.Marshal(resp)
	if err != nil {
		d.logger.Error("failed to marshal response", "err", err)
		return []byte(`{"jsonrpc":"2.0","id":null,"error":{"code":-32603,"message":"internal error"}}`), true
	}
	return out, true
}

// rawID converts an inbound raw id to a value that echoes back as-is.
func rawID(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return json.RawMessage(raw)
}
