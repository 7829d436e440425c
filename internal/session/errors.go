package session

import (
	"errors"
	"fmt"

	"github.com/rvander/mcp-session/internal/protocol"
)

// Error taxonomy for session operations. Spawn and pipe failures are the
// transport package's ErrSpawn/ErrTransport; everything here is either a
// local guard failure (no wire traffic happened) or a correlation failure.
var (
	// ErrOutOfOrder means the operation was invoked in a state that does
	// not permit it. Local and recoverable; nothing was written.
	ErrOutOfOrder = errors.New("operation out of order")

	// ErrMalformedResponse means a received line was not valid JSON or did
	// not have the shape of a JSON-RPC message. The session is not
	// guaranteed consistent afterward and should be cleaned up.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrProtocolViolation means a well-formed message arrived that the
	// protocol does not allow here: a response with the wrong id, or a
	// server-initiated request or notification while a reply was pending.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrUnknownTool means the requested tool is not in the catalog.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrMissingArgument means a required argument was absent.
	ErrMissingArgument = errors.New("missing required argument")

	// ErrInvalidArgument means an argument could not be coerced to its
	// declared type.
	ErrInvalidArgument = errors.New("invalid argument")
)

// RemoteError carries a well-formed JSON-RPC error returned by the server,
// verbatim. Recoverable: the caller may retry with corrected arguments.
type RemoteError struct {
	Method  string
	Payload protocol.ErrorPayload
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server error for %s: %s (code %d)", e.Method, e.Payload.Message, e.Payload.Code)
}
