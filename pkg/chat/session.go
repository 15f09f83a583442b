// Package chat keeps the conversation log for one interactive session and
// runs the agent for each user turn.
package chat

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/minhyannv/browser-agent-go/pkg/agent"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the conversation log.
type Message struct {
	Role    Role
	Content string
}

// Runner answers one input given the rendered history. *agent.Executor implements it.
type Runner interface {
	Run(ctx context.Context, input, history string) (agent.Result, error)
}

// Recorder persists messages as they are appended.
type Recorder interface {
	Record(ctx context.Context, sessionID, role, content string) error
}

// SessionStarter is implemented by recorders that register a session with
// its model before the first message is stored.
type SessionStarter interface {
	StartSession(ctx context.Context, sessionID, model string) error
}

// Session is an append-only conversation. It is not safe for concurrent use;
// turns are sequential.
type Session struct {
	id       string
	runner   Runner
	recorder Recorder
	model    string
	started  bool
	logger   *zap.Logger
	messages []Message
}

// Option configures a Session.
type Option func(*Session)

// WithRecorder persists every message. Recording failures are logged only.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithModelName labels recorded sessions with the model that answered them.
func WithModelName(name string) Option {
	return func(s *Session) { s.model = name }
}

// WithLogger injects a logger dependency.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSession starts an empty conversation with a fresh ID.
func NewSession(runner Runner, opts ...Option) *Session {
	s := &Session{
		id:     uuid.NewString(),
		runner: runner,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.logger = s.logger.Named("chat")
	return s
}

// ID identifies the session in transcripts.
func (s *Session) ID() string { return s.id }

// Messages returns a copy of the log.
func (s *Session) Messages() []Message {
	return append([]Message(nil), s.messages...)
}

// Turn records input, runs the agent and records its answer. Failures are
// returned as assistant text rather than errors.
func (s *Session) Turn(ctx context.Context, input string) Message {
	history := FormatHistory(s.messages)
	s.append(ctx, Message{Role: RoleUser, Content: input})

	var reply Message
	res, err := s.runner.Run(ctx, input, history)
	if err != nil {
		s.logger.Error("turn failed", zap.String("session", s.id), zap.Error(err))
		reply = Message{Role: RoleAssistant, Content: "Error: " + err.Error()}
	} else {
		reply = Message{Role: RoleAssistant, Content: res.Output}
	}
	s.append(ctx, reply)
	return reply
}

// Reset drops the log and starts a new session ID.
func (s *Session) Reset() {
	s.messages = nil
	s.id = uuid.NewString()
	s.started = false
}

func (s *Session) append(ctx context.Context, m Message) {
	s.messages = append(s.messages, m)
	if s.recorder == nil {
		return
	}
	// Record even when the turn was cancelled.
	ctx = context.WithoutCancel(ctx)
	if starter, ok := s.recorder.(SessionStarter); ok && !s.started {
		if err := starter.StartSession(ctx, s.id, s.model); err != nil {
			s.logger.Warn("starting recorded session", zap.String("session", s.id), zap.Error(err))
		}
	}
	s.started = true
	if err := s.recorder.Record(ctx, s.id, string(m.Role), m.Content); err != nil {
		s.logger.Warn("recording message", zap.String("session", s.id), zap.Error(err))
	}
}

// FormatHistory renders the log as "Human: ..." and "AI: ..." lines.
func FormatHistory(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		prefix := "Human: "
		if m.Role == RoleAssistant {
			prefix = "AI: "
		}
		lines = append(lines, prefix+m.Content)
	}
	return strings.Join(lines, "\n")
}
