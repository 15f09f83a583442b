// Package llm adapts model providers to the single text-completion call the
// agent loop needs.
package llm

import (
	"context"
	"errors"
	"net"

	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// Completer returns the model's continuation of prompt, stopping before any
// of the stop sequences.
type Completer interface {
	Complete(ctx context.Context, prompt string, stop []string) (string, error)
	Name() string
}

// ErrEmptyCompletion is returned when the provider answered without text.
var ErrEmptyCompletion = errors.New("model returned no text")

// Transient reports whether err is worth retrying: rate limiting, server
// errors, per-attempt timeouts and network failures.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var gErr genai.APIError
	if errors.As(err, &gErr) {
		return retryableStatus(gErr.Code)
	}
	var gPtr *genai.APIError
	if errors.As(err, &gPtr) && gPtr != nil {
		return retryableStatus(gPtr.Code)
	}
	var oErr *openai.Error
	if errors.As(err, &oErr) {
		return retryableStatus(oErr.StatusCode)
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

func retryableStatus(code int) bool {
	return code == 429 || code >= 500
}
