package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/minhyannv/browser-agent-go/pkg/agent"
	"github.com/minhyannv/browser-agent-go/pkg/chat"
	configpkg "github.com/minhyannv/browser-agent-go/pkg/config"
	"github.com/minhyannv/browser-agent-go/pkg/mcp"
	"github.com/minhyannv/browser-agent-go/pkg/prompt"
	"github.com/minhyannv/browser-agent-go/pkg/transcript"
)

func newChatCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive chat (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runChat(cmd.Context())
		},
	}
}

func newToolsCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools the automation server exposes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			descriptors, err := app.mcpClient().ListTools(cmd.Context())
			if err != nil {
				return err
			}
			tools := make([]*mcp.Tool, 0, len(descriptors))
			for _, d := range descriptors {
				tools = append(tools, mcp.NewTool(d, nil))
			}
			printTools(app.out, tools)
			return nil
		},
	}
}

func newCallCmd(app *application) *cobra.Command {
	var named keyValueFlag
	cmd := &cobra.Command{
		Use:   "call <tool> [input]",
		Short: "Invoke one tool and print the observation",
		Long: "Invoke one tool the way the agent does. The optional input is a JSON object or,\n" +
			"for navigate, a bare URL. --arg values are merged on top.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := mcp.ParseUnparsedPolicy(app.cfg.MCPServer.UnparsedInput)
			if err != nil {
				return err
			}
			var input any
			if len(args) == 2 {
				input = args[1]
			}
			tool := mcp.NewTool(mcp.ToolDescriptor{Name: args[0]}, app.mcpClient(),
				mcp.WithUnparsedPolicy(policy),
				mcp.WithToolLogger(app.logger),
			)
			_, _ = fmt.Fprintln(app.out, tool.Invoke(cmd.Context(), input, named.values()))
			return nil
		},
	}
	cmd.Flags().Var(&named, "arg", "named argument key=value, repeatable; JSON values keep their type")
	return cmd
}

func newHealthCmd(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the automation server's /health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := app.mcpClient().Health(cmd.Context())
			if err != nil {
				return err
			}
			session := "none"
			if status.ActiveSession != nil && *status.ActiveSession != "" {
				session = *status.ActiveSession
			}
			w := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "server\t%s\n", app.cfg.MCPServer.URL)
			_, _ = fmt.Fprintf(w, "status\t%s\n", status.Status)
			_, _ = fmt.Fprintf(w, "service\t%s\n", status.Service)
			_, _ = fmt.Fprintf(w, "active session\t%s\n", session)
			_, _ = fmt.Fprintf(w, "sessions\t%d\n", len(status.ActiveSessions))
			_, _ = fmt.Fprintf(w, "tools\t%d\n", status.AvailableTools)
			return w.Flush()
		},
	}
}

func newConfigCmd(app *application) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		// The file being written may not load yet.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a starter config file with every default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := app.opts.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = configpkg.DefaultFile
			}
			if err := configpkg.WriteFile(path, configpkg.DefaultConfig(), force); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(app.out, "Wrote %s\n", path)
			_, _ = fmt.Fprintf(app.out, "Set %s (or %s for openai) in the environment or a .env file.\n",
				configpkg.APIKeyEnv(configpkg.ProviderGemini), configpkg.APIKeyEnv(configpkg.ProviderOpenAI))
			return nil
		},
	}
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}

func newHistoryCmd(app *application) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "List stored sessions, or print one session's transcript",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.cfg.Session.TranscriptPath
			if path == "" {
				return errors.New("session.transcript_path is not set")
			}
			store, err := transcript.Open(path, app.logger)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				return printTranscript(cmd.Context(), app, store, args[0])
			}
			sessions, err := store.Sessions(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				_, _ = fmt.Fprintln(app.out, "No sessions recorded.")
				return nil
			}
			w := tabwriter.NewWriter(app.out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "SESSION\tMODEL\tMESSAGES\tUPDATED")
			for _, s := range sessions {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, s.Model, s.Messages, s.UpdatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum sessions to list")
	return cmd
}

func printTranscript(ctx context.Context, app *application, store *transcript.Store, id string) error {
	msgs, err := store.Messages(ctx, id)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return fmt.Errorf("no messages for session %s", id)
	}
	for _, m := range msgs {
		who := "You"
		if m.Role == string(chat.RoleAssistant) {
			who = "Agent"
		}
		_, _ = fmt.Fprintf(app.out, "[%s] %s: %s\n", m.CreatedAt.Format(time.RFC3339), who, m.Content)
	}
	return nil
}

func (app *application) mcpClient() *mcp.Client {
	return mcp.NewClient(app.cfg.MCPServer.URL,
		mcp.WithLogger(app.logger),
		mcp.WithCallTimeout(app.cfg.MCPServer.CallTimeout),
		mcp.WithDiscoveryTimeout(app.cfg.MCPServer.DiscoveryTimeout),
	)
}

// runChat wires discovery, the model, the executor and the optional
// transcript store, then hands the session to the REPL.
func (app *application) runChat(ctx context.Context) error {
	cfg := app.cfg
	if err := cfg.ValidateModel(); err != nil {
		return err
	}
	policy, err := mcp.ParseUnparsedPolicy(cfg.MCPServer.UnparsedInput)
	if err != nil {
		return err
	}
	tpl, err := prompt.Load(cfg.Agent.PromptFile)
	if err != nil {
		return err
	}
	model, err := app.newModel(ctx, cfg.Model, app.logger)
	if err != nil {
		return err
	}

	discovered := app.mcpClient().Discover(ctx, mcp.WithUnparsedPolicy(policy))
	tools := agent.NewToolset(discovered)
	exec, err := agent.New(model, tools,
		agent.WithLogger(app.logger),
		agent.WithMaxIterations(cfg.Agent.MaxIterations),
		agent.WithMaxExecutionTime(cfg.Agent.MaxExecutionTime),
		agent.WithHandleParsingErrors(cfg.Agent.HandleParsingErrors),
		agent.WithPrompt(tpl),
		agent.WithStepObserver(app.stepPrinter()),
	)
	if err != nil {
		return err
	}

	sessionOpts := []chat.Option{chat.WithLogger(app.logger), chat.WithModelName(model.Name())}
	if path := cfg.Session.TranscriptPath; path != "" {
		store, err := transcript.Open(path, app.logger)
		if err != nil {
			return err
		}
		defer store.Close()
		sessionOpts = append(sessionOpts, chat.WithRecorder(store))
	}
	session := chat.NewSession(exec, sessionOpts...)
	app.logger.Info("chat session started",
		zap.String("session", session.ID()),
		zap.String("model", model.Name()),
		zap.Int("tools", tools.Len()),
	)

	return runREPL(ctx, session, replOptions{
		Tools:     exec.Tools(),
		Logger:    app.logger,
		Interrupt: app.interrupt,
	}, app.in, app.out)
}

// stepPrinter shows each tool call under --verbose.
func (app *application) stepPrinter() agent.StepObserver {
	if !app.opts.verbose {
		return nil
	}
	return func(s agent.Step) {
		_, _ = fmt.Fprintf(app.errOut, "  -> %s(%s)\n     %s\n", s.Action.Tool, s.Action.Input, truncate(s.Observation, 200))
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
