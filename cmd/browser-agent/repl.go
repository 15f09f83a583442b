package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"go.uber.org/zap"

	"github.com/minhyannv/browser-agent-go/pkg/agent"
	"github.com/minhyannv/browser-agent-go/pkg/chat"
)

// chatSession is the part of *chat.Session the REPL drives.
type chatSession interface {
	Turn(ctx context.Context, input string) chat.Message
	Reset()
	ID() string
}

// replOptions configures REPL behavior.
type replOptions struct {
	Tools  []agent.Tool
	Logger *zap.Logger
	// Interrupt cancels only the running turn when set.
	Interrupt bool
}

// runREPL starts an interactive REPL session.
func runREPL(ctx context.Context, session chatSession, opts replOptions, in io.Reader, out io.Writer) error {
	if session == nil {
		return fmt.Errorf("chat session is required")
	}
	if in == nil {
		return fmt.Errorf("input reader is required")
	}
	if out == nil {
		out = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	opts.Logger.Debug("repl start", zap.String("session", session.ID()), zap.Int("tools", len(opts.Tools)))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	printWelcome(out, len(opts.Tools))

	for {
		_, _ = fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			handled, shouldQuit := handleCommand(input, session, opts.Tools, out)
			if shouldQuit {
				break
			}
			if handled {
				continue
			}
		}

		reply := runTurn(ctx, session, input, opts.Interrupt)
		_, _ = fmt.Fprintf(out, "%s\n\n", reply.Content)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

func runTurn(ctx context.Context, session chatSession, input string, interrupt bool) chat.Message {
	if !interrupt {
		return session.Turn(ctx, input)
	}
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	return session.Turn(turnCtx, input)
}

func printWelcome(out io.Writer, tools int) {
	_, _ = fmt.Fprintln(out, "=== Browser Agent - Interactive Mode ===")
	if tools == 0 {
		_, _ = fmt.Fprintln(out, "Warning: no tools were discovered; the agent can only answer from the conversation.")
	} else {
		_, _ = fmt.Fprintf(out, "%d browser tools available.\n", tools)
	}
	_, _ = fmt.Fprintln(out, "Type your message and press Enter. Commands:")
	printCommands(out)
}

func handleCommand(
	input string,
	session chatSession,
	tools []agent.Tool,
	out io.Writer,
) (bool, bool) {
	cmd := strings.ToLower(input)
	switch cmd {
	case "/help", "/h":
		_, _ = fmt.Fprintln(out, "Commands:")
		printCommands(out)
		return true, false
	case "/clear", "/c":
		session.Reset()
		_, _ = fmt.Fprintln(out, "Conversation history cleared.")
		_, _ = fmt.Fprintln(out)
		return true, false
	case "/tools", "/t":
		printTools(out, tools)
		_, _ = fmt.Fprintln(out)
		return true, false
	case "/quit", "/exit", "/q":
		_, _ = fmt.Fprintln(out, "Goodbye!")
		return true, true
	default:
		_, _ = fmt.Fprintf(out, "Unknown command: %s. Type /help for available commands.\n\n", input)
		return true, false
	}
}

func printCommands(out io.Writer) {
	_, _ = fmt.Fprintln(out, "  /help  - Show this help message")
	_, _ = fmt.Fprintln(out, "  /clear - Clear conversation history")
	_, _ = fmt.Fprintln(out, "  /tools - List available browser tools")
	_, _ = fmt.Fprintln(out, "  /quit  - Exit the program")
	_, _ = fmt.Fprintln(out, "  /exit  - Exit the program")
	_, _ = fmt.Fprintln(out)
}

func printTools[T interface {
	Name() string
	Description() string
}](out io.Writer, tools []T) {
	if len(tools) == 0 {
		_, _ = fmt.Fprintln(out, "No tools available.")
		return
	}
	for _, t := range tools {
		_, _ = fmt.Fprintf(out, "  %-22s %s\n", t.Name(), t.Description())
	}
}
