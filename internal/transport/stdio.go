package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// DefaultSettle is how long Start waits before checking that the child
// survived startup.
const DefaultSettle = 500 * time.Millisecond

// Stdio runs the tool server as a child process and exchanges one JSON
// document per line over its stdin/stdout pair. Stderr is drained to the
// logger as out-of-band diagnostics and never parsed as protocol.
type Stdio struct {
	command []string
	dir     string
	settle  time.Duration
	logger  *slog.Logger

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	// Read ends of the caller-supplied output pipes. Wait does not close
	// these, so lines the child wrote before exiting stay readable.
	stdoutR *os.File
	stderrR *os.File

	writeMu sync.Mutex

	exited  chan struct{}
	waitErr error

	termMu     sync.Mutex
	terminated bool
}

// NewStdio builds a transport for the given command line. dir may be empty to
// inherit the current working directory; a zero settle falls back to
// DefaultSettle.
func NewStdio(command []string, dir string, settle time.Duration, logger *slog.Logger) *Stdio {
	if settle <= 0 {
		settle = DefaultSettle
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Stdio{
		command: command,
		dir:     dir,
		settle:  settle,
		logger:  logger,
		exited:  make(chan struct{}),
	}
}

// Start spawns the child with all three standard streams piped, waits the
// settle interval, and fails if the process is already gone.
//
// The output streams are caller-owned os.Pipe pairs rather than StdoutPipe:
// cmd.Wait closes the pipes StdoutPipe hands out, and the wait goroutine runs
// while reads are still outstanding, so Wait must not own them. With our own
// pipes the child's exit closes only the write ends, and a pending or later
// ReadLine drains any buffered final line and then sees a clean io.EOF.
func (t *Stdio) Start() error {
	if len(t.command) == 0 {
		return fmt.Errorf("%w: empty command", ErrSpawn)
	}
	if t.cmd != nil {
		return fmt.Errorf("%w: already started", ErrSpawn)
	}

	cmd := exec.Command(t.command[0], t.command[1:]...)
	cmd.Dir = t.dir

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: stdin pipe: %v", ErrSpawn, err)
	}
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("%w: stdout pipe: %v", ErrSpawn, err)
	}
	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return fmt.Errorf("%w: stderr pipe: %v", ErrSpawn, err)
	}
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		stdoutR.Close()
		stdoutW.Close()
		stderrR.Close()
		stderrW.Close()
		return fmt.Errorf("%w: %v", ErrSpawn, err)
	}

	// The child holds its own copies of the write ends; drop ours so the
	// read ends see EOF once the child exits.
	stdoutW.Close()
	stderrW.Close()

	t.cmd = cmd
	t.stdin = stdin
	t.stdoutR = stdoutR
	t.stderrR = stderrR
	t.stdout = bufio.NewReader(stdoutR)

	go t.drainStderr(stderrR)
	go func() {
		t.waitErr = cmd.Wait()
		close(t.exited)
	}()

	// Give the server a moment to come up, then make sure it is still there.
	time.Sleep(t.settle)
	select {
	case <-t.exited:
		return fmt.Errorf("%w: process exited during startup: %v", ErrSpawn, t.waitErr)
	default:
	}

	t.logger.Debug("server process started", "pid", cmd.Process.Pid, "command", t.command[0])
	return nil
}

func (t *Stdio) drainStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		t.logger.Debug("server stderr", "line", scanner.Text())
	}
}

// Alive reports whether the child process is still running.
func (t *Stdio) Alive() bool {
	if t.cmd == nil {
		return false
	}
	select {
	case <-t.exited:
		return false
	default:
		return true
	}
}

// WriteLine serializes one protocol line to the child's stdin.
func (t *Stdio) WriteLine(line string) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if t.cmd == nil {
		return fmt.Errorf("%w: not started", ErrTransport)
	}
	if !t.Alive() {
		return fmt.Errorf("%w: server process has exited", ErrTransport)
	}
	if _, err := io.WriteString(t.stdin, line+"\n"); err != nil {
		return fmt.Errorf("%w: write: %v", ErrTransport, err)
	}
	return nil
}

// ReadLine blocks for the next line from the child's stdout. A closed stream
// is reported as io.EOF so the caller can distinguish end-of-stream from
// other pipe errors.
func (t *Stdio) ReadLine() (string, error) {
	if t.cmd == nil {
		return "", fmt.Errorf("%w: not started", ErrTransport)
	}
	line, err := t.stdout.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && strings.TrimSpace(line) == "" {
			return "", io.EOF
		}
		if errors.Is(err, io.EOF) {
			// Final line without a terminator still counts as a line.
			return strings.TrimRight(line, "\r\n"), nil
		}
		if errors.Is(err, os.ErrClosed) {
			// Terminate closed the read end to abort this read.
			return "", io.EOF
		}
		return "", fmt.Errorf("%w: read: %v", ErrTransport, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Terminate closes the child's stdin and waits up to grace for a voluntary
// exit before killing it. Safe to call repeatedly and on a process that never
// started or has already exited; a call before Start is a no-op and does not
// disable a later termination.
func (t *Stdio) Terminate(grace time.Duration) {
	t.termMu.Lock()
	defer t.termMu.Unlock()

	if t.cmd == nil || t.terminated {
		return
	}
	t.terminated = true

	// Closing the read ends last aborts any reader still blocked on the
	// pipes once the process is gone.
	defer func() {
		if t.stdoutR != nil {
			_ = t.stdoutR.Close()
		}
		if t.stderrR != nil {
			_ = t.stderrR.Close()
		}
	}()

	if t.stdin != nil {
		_ = t.stdin.Close()
	}
	_ = t.cmd.Process.Signal(syscall.SIGTERM)
	select {
	case <-t.exited:
		t.logger.Debug("server process exited", "err", t.waitErr)
		return
	case <-time.After(grace):
	}
	t.logger.Warn("server did not exit within grace period, killing", "grace", grace)
	_ = t.cmd.Process.Kill()
	<-t.exited
}

var _ Transport = (*Stdio)(nil)
