// The local tool server: reads one JSON-RPC request per line from stdin and
// writes one response per line to stdout. Stderr carries diagnostics only.
package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"

	"github.com/rvander/mcp-session/internal/protocol"
	"github.com/rvander/mcp-session/internal/server"
	"github.com/rvander/mcp-session/internal/server/builtin"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	reg := server.NewRegistry()
	builtin.RegisterAll(reg)

	dispatcher := server.NewDispatcher(reg, protocol.ServerInfo{
		Name:    "mcp-hello-server",
		Version: "0.1.0",
	}, logger)

	logger.Info("server listening on stdin")

	out := bufio.NewWriter(os.Stdout)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		reply, ok := dispatcher.HandleLine(scanner.Bytes())
		if !ok {
			continue
		}
		if _, err := out.Write(reply); err != nil {
			fmt.Fprintf(os.Stderr, "write error: %v\n", err)
			os.Exit(1)
		}
		// One JSON document per line.
		if err := out.WriteByte('\n'); err != nil {
			fmt.Fprintf(os.Stderr, "write error: %v\n", err)
			os.Exit(1)
		}
		if err := out.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "write error: %v\n", err)
			os.Exit(1)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "read error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("stdin closed, exiting")
}
