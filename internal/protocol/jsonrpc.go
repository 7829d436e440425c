// Package protocol defines the JSON-RPC 2.0 framing and the MCP message
// payloads exchanged between the session client and the tool server.
package protocol

import "encoding/json"

// Version is the only JSON-RPC version this protocol speaks.
const Version = "2.0"

// MCP method names.
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodListTools   = "tools/list"
	MethodCallTool    = "tools/call"
)

// ProtocolVersion is the MCP protocol revision the client pins and the
// server accepts.
const ProtocolVersion = "2024-11-05"

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is an outbound JSON-RPC request. IDs are positive integers
// assigned in issuance order.
type Request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Notification is a request without an id; the peer must not reply to it.
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// ErrorPayload is the error object of a JSON-RPC error response.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Response is an outbound JSON-RPC response: exactly one of Result or Error
// is set. ID is any so that a parse-error response can carry a null id.
type Response struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id"`
	Result  any           `json:"result,omitempty"`
	Error   *ErrorPayload `json:"error,omitempty"`
}

// Envelope is the inbound shape used to classify a received line before the
// payload is decoded. RawMessage fields distinguish "absent" from "null".
type Envelope struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorPayload   `json:"error,omitempty"`
}

// HasID reports whether the envelope carries a non-null id.
func (e *Envelope) HasID() bool {
	return len(e.ID) > 0 && string(e.ID) != "null"
}

// IsResponse reports whether the envelope is a response (id present, no
// method).
func (e *Envelope) IsResponse() bool {
	return e.HasID() && e.Method == ""
}

// IsNotification reports whether the envelope is a notification (method
// present, no id).
func (e *Envelope) IsNotification() bool {
	return e.Method != "" && !e.HasID()
}

// NewRequest builds a request frame.
func NewRequest(id int64, method string, params any) *Request {
	return &Request{JSONRPC: Version, ID: id, Method: method, Params: params}
}

// NewNotification builds a notification frame.
func NewNotification(method string, params any) *Notification {
	return &Notification{JSONRPC: Version, Method: method, Params: params}
}

// NewSuccessResponse builds a success response for the given request id.
func NewSuccessResponse(id any, result any) *Response {
	return &Response{JSONRPC: Version, ID: id, Result: result}
}

// NewErrorResponse builds an error response. id may be nil when the request
// id could not be parsed.
func NewErrorResponse(id any, code int, message string, data any) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Error:   &ErrorPayload{Code: code, Message: message, Data: data},
	}
}
