package llm

import (
	"context"
	"errors"
)

// ErrUnavailable is returned by the client built when no API key is
// configured.
var ErrUnavailable = errors.New("llm backend not configured")

// Unavailable returns a Client whose calls always fail, routing every
// caller to its deterministic fallback. Used when no API key is
// configured and in tests that exercise fallback paths.
func Unavailable() Client {
	return unavailableClient{}
}

type unavailableClient struct{}

func (unavailableClient) Generate(context.Context, string, GenerateOptions) (string, error) {
	return "", ErrUnavailable
}

func (unavailableClient) Close() error { return nil }
