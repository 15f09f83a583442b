package llm

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Resilient throttles and retries another Completer. Only transient errors
// are retried; the parent context always ends the loop.
type Resilient struct {
	next           Completer
	limiter        *rate.Limiter
	maxElapsed     time.Duration
	attemptTimeout time.Duration
	newBackOff     func() backoff.BackOff
	logger         *zap.Logger
}

// ResilientOption configures a Resilient completer.
type ResilientOption func(*Resilient)

// WithRequestsPerMinute caps the request rate. Zero or less disables the cap.
func WithRequestsPerMinute(n int) ResilientOption {
	return func(r *Resilient) {
		if n <= 0 {
			r.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		r.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
	}
}

// WithMaxElapsed bounds the total time spent retrying one completion.
func WithMaxElapsed(d time.Duration) ResilientOption {
	return func(r *Resilient) { r.maxElapsed = d }
}

// WithAttemptTimeout bounds each provider call.
func WithAttemptTimeout(d time.Duration) ResilientOption {
	return func(r *Resilient) { r.attemptTimeout = d }
}

// WithRetryLogger injects a logger dependency.
func WithRetryLogger(l *zap.Logger) ResilientOption {
	return func(r *Resilient) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResilient wraps next.
func NewResilient(next Completer, opts ...ResilientOption) *Resilient {
	r := &Resilient{
		next:       next,
		limiter:    rate.NewLimiter(rate.Inf, 0),
		maxElapsed: 2 * time.Minute,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.newBackOff == nil {
		r.newBackOff = r.exponential
	}
	r.logger = r.logger.Named("llm")
	return r
}

// Name reports the wrapped completer's name.
func (r *Resilient) Name() string { return r.next.Name() }

// Complete calls the wrapped completer, waiting for the rate limiter before
// every attempt.
func (r *Resilient) Complete(ctx context.Context, prompt string, stop []string) (string, error) {
	var text string
	attempt := 0
	op := func() error {
		attempt++
		if err := r.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		actx, cancel := ctx, context.CancelFunc(func() {})
		if r.attemptTimeout > 0 {
			actx, cancel = context.WithTimeout(ctx, r.attemptTimeout)
		}
		defer cancel()

		out, err := r.next.Complete(actx, prompt, stop)
		if err != nil {
			if ctx.Err() != nil || !Transient(err) {
				return backoff.Permanent(err)
			}
			r.logger.Warn("transient model error, retrying",
				zap.String("model", r.next.Name()),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		text = out
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(r.newBackOff(), ctx)); err != nil {
		return "", err
	}
	return text, nil
}

func (r *Resilient) exponential() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = r.maxElapsed
	b.MaxInterval = 30 * time.Second
	return b
}
