package agent

import (
	"time"

	"go.uber.org/zap"

	"github.com/minhyannv/browser-agent-go/pkg/prompt"
)

// Defaults used when no option overrides them.
const (
	DefaultMaxIterations    = 50
	DefaultMaxExecutionTime = 900 * time.Second
)

// AgentOption configures optional runtime dependencies for Executor.
type AgentOption func(*agentDeps)

type agentDeps struct {
	logger              *zap.Logger
	maxIterations       int
	maxExecutionTime    time.Duration
	template            *prompt.Template
	handleParsingErrors bool
	observer            StepObserver
}

func defaultDeps() agentDeps {
	return agentDeps{
		logger:              zap.NewNop(),
		maxIterations:       DefaultMaxIterations,
		maxExecutionTime:    DefaultMaxExecutionTime,
		template:            prompt.Default(),
		handleParsingErrors: true,
	}
}

// WithLogger injects a logger dependency.
func WithLogger(l *zap.Logger) AgentOption {
	return func(d *agentDeps) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithMaxIterations bounds the number of model calls per run.
func WithMaxIterations(n int) AgentOption {
	return func(d *agentDeps) {
		if n > 0 {
			d.maxIterations = n
		}
	}
}

// WithMaxExecutionTime bounds the wall time of a run. Zero disables the bound.
func WithMaxExecutionTime(t time.Duration) AgentOption {
	return func(d *agentDeps) {
		if t >= 0 {
			d.maxExecutionTime = t
		}
	}
}

// WithPrompt replaces the default template.
func WithPrompt(t *prompt.Template) AgentOption {
	return func(d *agentDeps) {
		if t != nil {
			d.template = t
		}
	}
}

// WithHandleParsingErrors feeds unparseable model output back as an
// observation instead of failing the run.
func WithHandleParsingErrors(enabled bool) AgentOption {
	return func(d *agentDeps) {
		d.handleParsingErrors = enabled
	}
}

// WithStepObserver is called after every tool observation.
func WithStepObserver(o StepObserver) AgentOption {
	return func(d *agentDeps) {
		d.observer = o
	}
}
