package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rvander/mcp-session/internal/protocol"
	"github.com/rvander/mcp-session/internal/transport"
)

// pendingRequest is the single in-flight request. The session issues at most
// one request at a time, so a single slot replaces a pending-request table.
type pendingRequest struct {
	id       int64
	method   string
	issuedAt time.Time
}

// correlator assigns request identifiers, frames outbound messages, and
// matches the next inbound line against the pending request.
type correlator struct {
	tr      transport.Transport
	nextID  int64
	pending *pendingRequest
	logger  *slog.Logger
}

func newCorrelator(tr transport.Transport, logger *slog.Logger) *correlator {
	return &correlator{tr: tr, nextID: 1, logger: logger}
}

// send writes one request and blocks until its response arrives. Identifiers
// start at 1, increase strictly, and are never reused, even after a failed
// exchange.
func (c *correlator) send(method string, params any) (*protocol.Envelope, error) {
	id := c.nextID
	c.nextID++
	c.pending = &pendingRequest{id: id, method: method, issuedAt: time.Now()}
	defer func() { c.pending = nil }()

	frame, err := json.Marshal(protocol.NewRequest(id, method, params))
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}
	c.logger.Debug("sending request", "method", method, "id", id)
	if err := c.tr.WriteLine(string(frame)); err != nil {
		return nil, err
	}

	line, err := c.tr.ReadLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: server closed its output stream while %s was pending", transport.ErrTransport, method)
		}
		return nil, err
	}
	return c.match(line, id, method)
}

// match classifies one inbound line against the pending request id. The
// protocol has no server-initiated requests and no out-of-order responses, so
// anything other than the matching response is an error, never silently
// dropped.
func (c *correlator) match(line string, id int64, method string) (*protocol.Envelope, error) {
	var env protocol.Envelope
	if err := json.Unmarshal([]byte(line), &env); err != nil {
		return nil, fmt.Errorf("%w: not valid JSON: %v", ErrMalformedResponse, err)
	}
	if env.JSONRPC != protocol.Version {
		return nil, fmt.Errorf("%w: missing or wrong jsonrpc version %q", ErrMalformedResponse, env.JSONRPC)
	}
	if !env.HasID() && env.Method == "" {
		return nil, fmt.Errorf("%w: message has neither id nor method", ErrMalformedResponse)
	}
	if !env.IsResponse() {
		return nil, fmt.Errorf("%w: unexpected server-initiated %q while %s was pending", ErrProtocolViolation, env.Method, method)
	}

	var gotID int64
	if err := json.Unmarshal(env.ID, &gotID); err != nil {
		return nil, fmt.Errorf("%w: non-integer response id %s", ErrMalformedResponse, env.ID)
	}
	if gotID != id {
		return nil, fmt.Errorf("%w: response id %d does not match pending request %d (%s)", ErrProtocolViolation, gotID, id, method)
	}
	c.logger.Debug("received response", "method", method, "id", id, "elapsed", time.Since(c.pending.issuedAt))
	return &env, nil
}

// notify writes a notification frame and returns without reading. The remote
// side must not reply to it.
func (c *correlator) notify(method string, params any) error {
	frame, err := json.Marshal(protocol.NewNotification(method, params))
	if err != nil {
		return fmt.Errorf("encode %s notification: %w", method, err)
	}
	c.logger.Debug("sending notification", "method", method)
	return c.tr.WriteLine(string(frame))
}
