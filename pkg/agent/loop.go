package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/minhyannv/browser-agent-go/pkg/prompt"
)

// StoppedOutput is returned when a run hits its iteration or time limit.
const StoppedOutput = "Agent stopped due to iteration limit or time limit."

// stopSequence ends generation before the model invents an observation.
const stopSequence = "\nObservation:"

// parseErrorTool names the pseudo action recorded for unparseable output.
const parseErrorTool = "_Exception"

// Model produces the next ReAct step for a rendered prompt.
type Model interface {
	Complete(ctx context.Context, prompt string, stop []string) (string, error)
}

// Step is one action and the observation it produced.
type Step struct {
	Action      Action
	Observation string
}

// StepObserver receives every step as soon as it completes.
type StepObserver func(Step)

// Result is the outcome of one run.
type Result struct {
	Output     string
	Steps      []Step
	Iterations int
	// Stopped is set when a limit ended the run before a final answer.
	Stopped bool
}

// Executor runs the ReAct loop: render prompt, ask the model, run the chosen
// tool, append the observation to the scratchpad, repeat.
type Executor struct {
	model     Model
	tools     *Toolset
	toolsText string
	namesText string
	deps      agentDeps
}

// New builds an Executor. An empty toolset is allowed; the model can still answer.
func New(model Model, tools *Toolset, opts ...AgentOption) (*Executor, error) {
	if model == nil {
		return nil, errors.New("model is required")
	}
	if tools == nil {
		tools = NewToolset([]Tool{})
	}
	deps := defaultDeps()
	for _, opt := range opts {
		if opt != nil {
			opt(&deps)
		}
	}
	deps.logger = deps.logger.Named("agent")

	deps.logger.Debug("executor ready",
		zap.Int("tools", tools.Len()),
		zap.Int("max_iterations", deps.maxIterations),
		zap.Duration("max_execution_time", deps.maxExecutionTime),
	)
	return &Executor{
		model:     model,
		tools:     tools,
		toolsText: prompt.FormatTools(tools.Tools()),
		namesText: prompt.FormatToolNames(tools.Tools()),
		deps:      deps,
	}, nil
}

// Tools returns the tools the executor offers to the model.
func (e *Executor) Tools() []Tool { return e.tools.Tools() }

// Run answers input given the rendered chat history. Tool and parsing
// problems become observations; model errors and cancellation of ctx are
// returned.
func (e *Executor) Run(ctx context.Context, input, history string) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := ctx, context.CancelFunc(func() {})
	if e.deps.maxExecutionTime > 0 {
		runCtx, cancel = context.WithTimeout(ctx, e.deps.maxExecutionTime)
	}
	defer cancel()

	start := time.Now()
	var res Result
	for res.Iterations < e.deps.maxIterations {
		if err := runCtx.Err(); err != nil {
			break
		}

		text, err := e.model.Complete(runCtx, e.render(input, history, res.Steps), []string{stopSequence})
		res.Iterations++
		if err != nil {
			if ctx.Err() == nil && runCtx.Err() != nil {
				break
			}
			return res, fmt.Errorf("model completion: %w", err)
		}
		e.deps.logger.Debug("model output", zap.Int("iteration", res.Iterations), zap.String("text", text))

		action, finish, err := Parse(text)
		if err != nil {
			var pe *ParseError
			if !errors.As(err, &pe) || !e.deps.handleParsingErrors {
				return res, err
			}
			e.deps.logger.Warn("unparseable model output", zap.Int("iteration", res.Iterations), zap.String("observation", pe.Observation))
			e.record(&res, Step{Action: Action{Tool: parseErrorTool, Input: pe.Observation, Log: pe.Output}, Observation: pe.Observation})
			continue
		}
		if finish != nil {
			res.Output = finish.Output
			e.deps.logger.Info("final answer",
				zap.Int("iterations", res.Iterations),
				zap.Duration("elapsed", time.Since(start)),
			)
			return res, nil
		}

		e.deps.logger.Info("tool call", zap.String("tool", action.Tool), zap.String("input", action.Input))
		observation := e.tools.Execute(runCtx, action.Tool, action.Input)
		e.record(&res, Step{Action: *action, Observation: observation})
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	e.deps.logger.Warn("run stopped by limit",
		zap.Int("iterations", res.Iterations),
		zap.Duration("elapsed", time.Since(start)),
	)
	res.Output = StoppedOutput
	res.Stopped = true
	return res, nil
}

func (e *Executor) record(res *Result, step Step) {
	res.Steps = append(res.Steps, step)
	if e.deps.observer != nil {
		e.deps.observer(step)
	}
}

func (e *Executor) render(input, history string, steps []Step) string {
	return e.deps.template.Render(prompt.Values{
		Tools:           e.toolsText,
		ToolNames:       e.namesText,
		ChatHistory:     history,
		Input:           input,
		AgentScratchpad: Scratchpad(steps),
	})
}

// Scratchpad renders prior steps the way the model is asked to write them.
func Scratchpad(steps []Step) string {
	var sb strings.Builder
	for _, s := range steps {
		sb.WriteString(s.Action.Log)
		sb.WriteString("\nObservation: ")
		sb.WriteString(s.Observation)
		sb.WriteString("\nThought: ")
	}
	return sb.String()
}
