package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type scriptedCompleter struct {
	errs  []error
	text  string
	calls int
	stops [][]string
}

func (s *scriptedCompleter) Name() string { return "scripted" }

func (s *scriptedCompleter) Complete(_ context.Context, _ string, stop []string) (string, error) {
	s.calls++
	s.stops = append(s.stops, stop)
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return "", err
	}
	return s.text, nil
}

func fastRetries(r *Resilient) {
	r.newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Millisecond), 3)
	}
}

func TestResilientRetriesTransientErrors(t *testing.T) {
	next := &scriptedCompleter{
		errs: []error{genai.APIError{Code: 503, Message: "overloaded"}, genai.APIError{Code: 429, Message: "slow down"}},
		text: "Final Answer: ok",
	}
	r := NewResilient(next, fastRetries)

	out, err := r.Complete(context.Background(), "p", []string{"\nObservation:"})
	require.NoError(t, err)
	assert.Equal(t, "Final Answer: ok", out)
	assert.Equal(t, 3, next.calls)
	assert.Equal(t, []string{"\nObservation:"}, next.stops[2])
	assert.Equal(t, "scripted", r.Name())
}

func TestResilientStopsOnPermanentError(t *testing.T) {
	next := &scriptedCompleter{errs: []error{fmt.Errorf("wrap: %w", genai.APIError{Code: 400, Message: "bad"})}}
	r := NewResilient(next, fastRetries)

	_, err := r.Complete(context.Background(), "p", nil)
	var apiErr genai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Code)
	assert.Equal(t, 1, next.calls)
}

func TestResilientGivesUpAfterRetries(t *testing.T) {
	unavailable := genai.APIError{Code: 500}
	next := &scriptedCompleter{errs: []error{unavailable, unavailable, unavailable, unavailable, unavailable}}
	r := NewResilient(next, fastRetries)

	_, err := r.Complete(context.Background(), "p", nil)
	require.Error(t, err)
	assert.Equal(t, 4, next.calls)
}

func TestResilientHonoursCancelledContext(t *testing.T) {
	next := &scriptedCompleter{text: "x"}
	r := NewResilient(next, fastRetries, WithRequestsPerMinute(1))
	ctx, cancel := context.WithCancel(context.Background())

	_, err := r.Complete(ctx, "p", nil)
	require.NoError(t, err)

	cancel()
	_, err = r.Complete(ctx, "p", nil)
	require.Error(t, err)
	assert.Equal(t, 1, next.calls)
}

func TestResilientAttemptTimeout(t *testing.T) {
	slow := completerFunc(func(ctx context.Context) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	r := NewResilient(slow, fastRetries, WithAttemptTimeout(5*time.Millisecond))

	_, err := r.Complete(context.Background(), "p", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 4, slow.calls())
}

func TestTransient(t *testing.T) {
	assert.False(t, Transient(nil))
	assert.True(t, Transient(genai.APIError{Code: 429}))
	assert.True(t, Transient(&genai.APIError{Code: 502}))
	assert.False(t, Transient(genai.APIError{Code: 403}))
	assert.True(t, Transient(context.DeadlineExceeded))
	assert.False(t, Transient(context.Canceled))
	assert.True(t, Transient(&net.OpError{Op: "dial", Err: errors.New("refused")}))
	assert.False(t, Transient(ErrEmptyCompletion))
}

type funcCompleter struct {
	fn    func(ctx context.Context) (string, error)
	count int
}

func completerFunc(fn func(ctx context.Context) (string, error)) *funcCompleter {
	return &funcCompleter{fn: fn}
}

func (f *funcCompleter) Name() string { return "func" }

func (f *funcCompleter) Complete(ctx context.Context, _ string, _ []string) (string, error) {
	f.count++
	return f.fn(ctx)
}

func (f *funcCompleter) calls() int { return f.count }
