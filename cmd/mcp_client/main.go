// The interactive controller shell: spawns the tool server, runs the
// handshake and discovery, then drives tool calls from a prompt loop.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/rvander/mcp-session/internal/config"
	"github.com/rvander/mcp-session/internal/protocol"
	"github.com/rvander/mcp-session/internal/session"
)

func main() {
	configPath := flag.String("config", "", "path to config/config.yaml (optional)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	// Positional arguments override the configured server command line.
	if flag.NArg() > 0 {
		cfg.Server.Command = flag.Args()
	}
	if len(cfg.Server.Command) == 0 {
		fmt.Fprintln(os.Stderr, "No server command configured.")
		fmt.Fprintln(os.Stderr, "Usage: mcp_client [-config config/config.yaml] [server command...]")
		os.Exit(1)
	}

	logger := newLogger(cfg.Log.Level)

	settle, err := cfg.Server.SettleDuration()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid settle interval: %v\n", err)
		os.Exit(1)
	}
	grace, err := cfg.Server.TerminateGraceDuration()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid terminate grace: %v\n", err)
		os.Exit(1)
	}

	sess := session.New(session.Config{
		Command:        cfg.Server.Command,
		Dir:            cfg.Server.Dir,
		Settle:         settle,
		TerminateGrace: grace,
		ClientName:     cfg.Client.Name,
		ClientVersion:  cfg.Client.Version,
		Logger:         logger,
	})
	defer sess.Cleanup()

	fmt.Println("Starting MCP server...")
	if err := sess.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start server: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Initializing MCP connection...")
	if err := sess.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Initialization failed: %v\n", err)
		os.Exit(1)
	}
	info := sess.ServerInfo()
	fmt.Printf("Connected to %s %s\n", info.Name, info.Version)

	tools, err := sess.DiscoverTools()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Tool discovery failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Found %d tools:\n", len(tools))
	for _, t := range tools {
		fmt.Printf("  - %s: %s\n", t.Name, t.Description)
	}

	runShell(sess)
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func runShell(sess *session.Session) {
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  list              - list available tools")
	fmt.Println("  info <tool>       - show a tool's parameters")
	fmt.Println("  call <tool>       - call a tool")
	fmt.Println("  quit              - exit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("mcp> ")
		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == "":
		case input == "quit", input == "exit":
			return
		case input == "list":
			for _, t := range sess.Tools() {
				fmt.Printf("  - %s: %s\n", t.Name, t.Description)
			}
		case strings.HasPrefix(input, "info "):
			printToolInfo(sess, strings.TrimSpace(input[len("info "):]))
		case strings.HasPrefix(input, "call "):
			callTool(sess, scanner, strings.TrimSpace(input[len("call "):]))
		default:
			fmt.Println("Unknown command. Type 'quit' to exit.")
		}
	}
}

func printToolInfo(sess *session.Session, name string) {
	tool, ok := sess.Lookup(name)
	if !ok {
		fmt.Printf("Tool %q not found.\n", name)
		return
	}
	fmt.Printf("Tool: %s\n", tool.Name)
	fmt.Printf("Description: %s\n", tool.Description)
	if len(tool.InputSchema.Properties) == 0 {
		fmt.Println("Parameters: none")
		return
	}
	fmt.Println("Parameters:")
	for _, pname := range sortedKeys(tool.InputSchema.Properties) {
		prop := tool.InputSchema.Properties[pname]
		req := "optional"
		if contains(tool.InputSchema.Required, pname) {
			req = "required"
		}
		fmt.Printf("  - %s (%s, %s): %s\n", pname, prop.Type, req, prop.Description)
	}
}

// callTool prompts for each schema parameter and invokes the tool. Values are
// entered as text; the session coerces declared number parameters.
func callTool(sess *session.Session, scanner *bufio.Scanner, name string) {
	tool, ok := sess.Lookup(name)
	if !ok {
		fmt.Printf("Tool %q not found.\n", name)
		return
	}

	args := make(map[string]any)
	for _, pname := range sortedKeys(tool.InputSchema.Properties) {
		prop := tool.InputSchema.Properties[pname]
		required := contains(tool.InputSchema.Required, pname)
		prompt := fmt.Sprintf("  %s", pname)
		if prop.Description != "" {
			prompt += " (" + prop.Description + ")"
		}
		if !required {
			prompt += " [optional]"
		}
		fmt.Print(prompt + ": ")
		if !scanner.Scan() {
			return
		}
		value := strings.TrimSpace(scanner.Text())
		if value == "" {
			if required {
				fmt.Printf("Required parameter %q not provided.\n", pname)
				return
			}
			continue
		}
		args[pname] = value
	}

	result, err := sess.InvokeTool(name, args)
	if err != nil {
		fmt.Printf("Tool call failed: %v\n", err)
		return
	}
	if text, ok := result.Text(); ok {
		fmt.Printf("Result: %s\n", text)
	} else {
		fmt.Println("Tool returned no content.")
	}
}

func sortedKeys(props map[string]protocol.Property) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
