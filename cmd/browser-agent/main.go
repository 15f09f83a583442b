// Package main provides the browser-agent CLI: an interactive chat whose
// agent drives a remote browser through the automation server's tools.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	configpkg "github.com/minhyannv/browser-agent-go/pkg/config"
	"github.com/minhyannv/browser-agent-go/pkg/llm"
	loggerpkg "github.com/minhyannv/browser-agent-go/pkg/logger"
)

// main is the program entry point.
func main() {
	root := newRootCmd(newApplication(os.Stdin, os.Stdout, os.Stderr))
	if err := root.ExecuteContext(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// application carries what PersistentPreRunE loads into every command.
type application struct {
	opts   cliOptions
	cfg    configpkg.Config
	logger *zap.Logger

	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	newModel func(ctx context.Context, cfg configpkg.ModelConfig, logger *zap.Logger) (llm.Completer, error)
	// interrupt makes Ctrl+C cancel the running turn instead of the program.
	interrupt bool
}

func newApplication(in io.Reader, out, errOut io.Writer) *application {
	return &application{
		logger:    zap.NewNop(),
		in:        in,
		out:       out,
		errOut:    errOut,
		newModel:  llm.New,
		interrupt: true,
	}
}

func newRootCmd(app *application) *cobra.Command {
	root := &cobra.Command{
		Use:           "browser-agent",
		Short:         "Chat with an agent that drives a browser through MCP tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadCLIConfig(app.opts, app.errOut)
			if err != nil {
				return err
			}
			app.cfg = cfg
			app.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			loggerpkg.Sync(app.logger)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.runChat(cmd.Context())
		},
	}
	root.SetIn(app.in)
	root.SetOut(app.out)
	root.SetErr(app.errOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&app.opts.configPath, "config", "c", "", "config file (default is ./config.yaml)")
	flags.StringVar(&app.opts.envFile, "env-file", "", "dotenv file to load before the config (default is ./.env when present)")
	flags.BoolVarP(&app.opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newChatCmd(app),
		newToolsCmd(app),
		newCallCmd(app),
		newHealthCmd(app),
		newConfigCmd(app),
		newHistoryCmd(app),
	)
	return root
}
