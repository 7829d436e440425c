// Package session implements the client side of the tool-server protocol:
// process lifecycle, the initialize handshake, tool discovery, and tool
// invocation, all over a single newline-delimited JSON-RPC pipe pair.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/rvander/mcp-session/internal/protocol"
	"github.com/rvander/mcp-session/internal/transport"
)

// State is the lifecycle position of a session.
type State int

const (
	NotStarted State = iota
	Started
	Initializing
	Ready
	ShuttingDown
	Terminated
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case Started:
		return "started"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case ShuttingDown:
		return "shutting-down"
	case Terminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config describes how to run and identify the tool server.
type Config struct {
	// Command is the server's argv; Command[0] is the binary.
	Command []string
	// Dir is the server's working directory; empty inherits ours.
	Dir string
	// Settle is how long Start waits before the liveness check.
	Settle time.Duration
	// TerminateGrace is how long Cleanup waits for a voluntary exit
	// before killing the process.
	TerminateGrace time.Duration
	// ClientName and ClientVersion are sent in the initialize handshake.
	ClientName    string
	ClientVersion string
	// Logger receives session diagnostics; nil uses slog.Default.
	Logger *slog.Logger
}

const (
	defaultClientName     = "mcp-session"
	defaultClientVersion  = "0.1.0"
	defaultTerminateGrace = 5 * time.Second
)

func (c *Config) applyDefaults() {
	if c.ClientName == "" {
		c.ClientName = defaultClientName
	}
	if c.ClientVersion == "" {
		c.ClientVersion = defaultClientVersion
	}
	if c.TerminateGrace <= 0 {
		c.TerminateGrace = defaultTerminateGrace
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Session owns one tool-server child process for its entire lifetime: the
// transport, the request correlator, the state machine, and the discovered
// tool catalog. One logical operation is in flight at a time; a multi-session
// host must give each session its own Session with nothing shared.
type Session struct {
	id      string
	cfg     Config
	tr      transport.Transport
	corr    *correlator
	catalog *catalog
	logger  *slog.Logger

	state      State
	serverInfo protocol.ServerInfo
}

// New builds a session that will spawn cfg.Command over a stdio transport.
func New(cfg Config) *Session {
	cfg.applyDefaults()
	id := uuid.NewString()
	logger := cfg.Logger.With("session", id)
	tr := transport.NewStdio(cfg.Command, cfg.Dir, cfg.Settle, logger)
	return newSession(id, cfg, tr, logger)
}

// NewWithTransport builds a session over a caller-supplied transport. Used by
// tests and by hosts that already own the pipe pair.
func NewWithTransport(cfg Config, tr transport.Transport) *Session {
	cfg.applyDefaults()
	id := uuid.NewString()
	return newSession(id, cfg, tr, cfg.Logger.With("session", id))
}

func newSession(id string, cfg Config, tr transport.Transport, logger *slog.Logger) *Session {
	return &Session{
		id:      id,
		cfg:     cfg,
		tr:      tr,
		corr:    newCorrelator(tr, logger),
		catalog: newCatalog(),
		logger:  logger,
		state:   NotStarted,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// ServerInfo returns the identity the server reported during initialize.
// Zero until the handshake completes.
func (s *Session) ServerInfo() protocol.ServerInfo { return s.serverInfo }

// require guards an operation against the state machine. On failure nothing
// has been written to the wire.
func (s *Session) require(op string, allowed ...State) error {
	for _, st := range allowed {
		if s.state == st {
			return nil
		}
	}
	names := make([]string, len(allowed))
	for i, st := range allowed {
		names[i] = st.String()
	}
	return fmt.Errorf("%w: %s requires state %s, session is %s",
		ErrOutOfOrder, op, strings.Join(names, " or "), s.state)
}

// fail records a fatal transport failure by forcing the session to
// Terminated, and passes the error through unchanged.
func (s *Session) fail(err error) error {
	if errors.Is(err, transport.ErrTransport) {
		s.logger.Error("transport failure, terminating session", "err", err)
		s.tr.Terminate(s.cfg.TerminateGrace)
		s.state = Terminated
	}
	return err
}

// Start spawns the tool-server process. Legal only once, from NotStarted.
func (s *Session) Start() error {
	if err := s.require("start", NotStarted); err != nil {
		return err
	}
	if err := s.tr.Start(); err != nil {
		s.state = Terminated
		return err
	}
	s.state = Started
	s.logger.Info("session started", "command", s.cfg.Command)
	return nil
}

// Initialize performs the handshake: the initialize request/response pair
// followed by the initialized notification. Legal only from Started; on
// success the session is Ready for tool operations.
func (s *Session) Initialize() error {
	if err := s.require("initialize", Started); err != nil {
		return err
	}

	params := protocol.InitializeParams{
		ProtocolVersion: protocol.ProtocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo: protocol.ClientInfo{
			Name:    s.cfg.ClientName,
			Version: s.cfg.ClientVersion,
		},
	}
	env, err := s.corr.send(protocol.MethodInitialize, params)
	if err != nil {
		return s.fail(err)
	}
	if env.Error != nil {
		return &RemoteError{Method: protocol.MethodInitialize, Payload: *env.Error}
	}
	s.state = Initializing

	var result protocol.InitializeResult
	if err := json.Unmarshal(env.Result, &result); err != nil {
		return fmt.Errorf("%w: initialize result: %v", ErrMalformedResponse, err)
	}
	s.serverInfo = result.ServerInfo

	if err := s.corr.notify(protocol.MethodInitialized, nil); err != nil {
		return s.fail(err)
	}
	s.state = Ready
	s.logger.Info("handshake complete",
		"server", result.ServerInfo.Name, "version", result.ServerInfo.Version)
	return nil
}

// DiscoverTools fetches the server's tool listing and replaces the catalog
// with it. Entries missing a name, description, or schema are skipped with a
// warning rather than failing the whole discovery. Legal only from Ready.
func (s *Session) DiscoverTools() ([]protocol.Tool, error) {
	if err := s.require("discover tools", Ready); err != nil {
		return nil, err
	}

	env, err := s.corr.send(protocol.MethodListTools, nil)
	if err != nil {
		return nil, s.fail(err)
	}
	if env.Error != nil {
		return nil, &RemoteError{Method: protocol.MethodListTools, Payload: *env.Error}
	}

	var listing struct {
		Tools []map[string]any `json:"tools"`
	}
	if err := json.Unmarshal(env.Result, &listing); err != nil {
		return nil, fmt.Errorf("%w: tools/list result: %v", ErrMalformedResponse, err)
	}

	tools := make([]protocol.Tool, 0, len(listing.Tools))
	for i, entry := range listing.Tools {
		tool, err := decodeToolEntry(entry)
		if err != nil {
			s.logger.Warn("skipping malformed tool entry", "index", i, "err", err)
			continue
		}
		tools = append(tools, tool)
	}
	s.catalog.replace(tools)
	s.logger.Info("discovered tools", "count", len(tools))
	return s.catalog.snapshot(), nil
}

// decodeToolEntry validates one tools/list entry. Every tool must carry a
// non-empty name and description and a schema object.
func decodeToolEntry(entry map[string]any) (protocol.Tool, error) {
	var tool protocol.Tool
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &tool,
		TagName: "json",
	})
	if err != nil {
		return protocol.Tool{}, err
	}
	if err := dec.Decode(entry); err != nil {
		return protocol.Tool{}, err
	}
	if tool.Name == "" {
		return protocol.Tool{}, errors.New("entry has no name")
	}
	if tool.Description == "" {
		return protocol.Tool{}, fmt.Errorf("tool %q has no description", tool.Name)
	}
	if tool.InputSchema.Type == "" {
		return protocol.Tool{}, fmt.Errorf("tool %q has no input schema", tool.Name)
	}
	return tool, nil
}

// Tools returns the last-discovered catalog in discovery order.
func (s *Session) Tools() []protocol.Tool {
	return s.catalog.snapshot()
}

// Lookup returns the named tool from the last-discovered snapshot. It never
// triggers a fresh discovery.
func (s *Session) Lookup(name string) (protocol.Tool, bool) {
	return s.catalog.lookup(name)
}

// Cleanup tears the session down: graceful terminate with kill escalation.
// Safe on every exit path, idempotent, and a no-op once Terminated.
func (s *Session) Cleanup() {
	if s.state == Terminated {
		return
	}
	s.state = ShuttingDown
	s.logger.Info("cleaning up session")
	s.tr.Terminate(s.cfg.TerminateGrace)
	s.state = Terminated
}
