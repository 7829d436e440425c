package transport_test

import (
	"io"
	"log/slog"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rvander/mcp-session/internal/transport"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func TestStartFailsForMissingBinary(t *testing.T) {
	tr := transport.NewStdio([]string{"/nonexistent/mcp-test-binary"}, "", 10*time.Millisecond, quietLogger())
	err := tr.Start()
	require.ErrorIs(t, err, transport.ErrSpawn)
	tr.Terminate(time.Second) // safe on a process that never started
}

func TestStartFailsForEmptyCommand(t *testing.T) {
	tr := transport.NewStdio(nil, "", 10*time.Millisecond, quietLogger())
	require.ErrorIs(t, tr.Start(), transport.ErrSpawn)
}

func TestStartFailsWhenProcessExitsDuringSettle(t *testing.T) {
	requireBinary(t, "sh")
	tr := transport.NewStdio([]string{"sh", "-c", "exit 3"}, "", 300*time.Millisecond, quietLogger())
	err := tr.Start()
	require.ErrorIs(t, err, transport.ErrSpawn)
	tr.Terminate(time.Second)
}

func TestWriteReadRoundTrip(t *testing.T) {
	requireBinary(t, "cat")
	tr := transport.NewStdio([]string{"cat"}, "", 50*time.Millisecond, quietLogger())
	require.NoError(t, tr.Start())
	defer tr.Terminate(time.Second)

	require.NoError(t, tr.WriteLine(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
	line, err := tr.ReadLine()
	require.NoError(t, err)
	require.Equal(t, `{"jsonrpc":"2.0","id":1,"method":"ping"}`, line)

	require.NoError(t, tr.WriteLine("second"))
	line, err = tr.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "second", line)
}

func TestReadLineReturnsEOFWhenOutputCloses(t *testing.T) {
	requireBinary(t, "sh")
	tr := transport.NewStdio([]string{"sh", "-c", "sleep 0.3"}, "", 50*time.Millisecond, quietLogger())
	require.NoError(t, tr.Start())
	defer tr.Terminate(time.Second)

	_, err := tr.ReadLine()
	require.ErrorIs(t, err, io.EOF)
}

func TestReadLineDeliversFinalLineAfterExit(t *testing.T) {
	requireBinary(t, "sh")
	// The child writes its last response and exits before the parent
	// reads. The buffered line must survive the exit and be delivered,
	// followed by a clean end-of-stream.
	tr := transport.NewStdio([]string{"sh", "-c", "echo final-response; sleep 0.2"}, "", 50*time.Millisecond, quietLogger())
	require.NoError(t, tr.Start())
	defer tr.Terminate(time.Second)

	time.Sleep(400 * time.Millisecond)
	require.False(t, tr.Alive())

	line, err := tr.ReadLine()
	require.NoError(t, err)
	require.Equal(t, "final-response", line)

	_, err = tr.ReadLine()
	require.ErrorIs(t, err, io.EOF)
}

func TestWriteAfterExitFailsWithoutHanging(t *testing.T) {
	requireBinary(t, "sh")
	tr := transport.NewStdio([]string{"sh", "-c", "sleep 0.1"}, "", 20*time.Millisecond, quietLogger())
	require.NoError(t, tr.Start())
	defer tr.Terminate(time.Second)

	time.Sleep(300 * time.Millisecond)
	require.False(t, tr.Alive())

	done := make(chan error, 1)
	go func() { done <- tr.WriteLine("late") }()
	select {
	case err := <-done:
		require.ErrorIs(t, err, transport.ErrTransport)
	case <-time.After(2 * time.Second):
		t.Fatal("WriteLine hung on an exited process")
	}
}

func TestTerminateIsIdempotent(t *testing.T) {
	requireBinary(t, "cat")
	tr := transport.NewStdio([]string{"cat"}, "", 50*time.Millisecond, quietLogger())
	require.NoError(t, tr.Start())

	tr.Terminate(time.Second)
	require.False(t, tr.Alive())
	tr.Terminate(time.Second) // second call is a no-op
	require.False(t, tr.Alive())
}

func TestTerminateBeforeStartDoesNotDisableTermination(t *testing.T) {
	requireBinary(t, "cat")
	tr := transport.NewStdio([]string{"cat"}, "", 50*time.Millisecond, quietLogger())

	tr.Terminate(time.Second) // before Start: a no-op

	require.NoError(t, tr.Start())
	require.True(t, tr.Alive())

	tr.Terminate(time.Second) // must still terminate the child
	require.False(t, tr.Alive())
}

func TestTerminateEscalatesToKill(t *testing.T) {
	requireBinary(t, "sh")
	// Ignores SIGTERM and never reads stdin, forcing the kill path.
	tr := transport.NewStdio([]string{"sh", "-c", `trap '' TERM; while :; do sleep 0.1; done`}, "", 50*time.Millisecond, quietLogger())
	require.NoError(t, tr.Start())

	done := make(chan struct{})
	go func() {
		tr.Terminate(100 * time.Millisecond)
		close(done)
	}()
	select {
	case <-done:
		require.False(t, tr.Alive())
	case <-time.After(5 * time.Second):
		t.Fatal("Terminate did not complete")
	}
}

func TestWriteBeforeStartFails(t *testing.T) {
	tr := transport.NewStdio([]string{"cat"}, "", 10*time.Millisecond, quietLogger())
	require.ErrorIs(t, tr.WriteLine("early"), transport.ErrTransport)
	_, err := tr.ReadLine()
	require.ErrorIs(t, err, transport.ErrTransport)
}
