// Package structure provides language-model backends that turn a raw
// transcript into a structured note payload. The adapter is side-effect-free
// with respect to the filesystem: its only interaction is one HTTP call to a
// chat-completion endpoint.
package structure

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"voicenotes/internal/config"
	"voicenotes/internal/model"
)

// Result is the output of one structuring call.
type Result struct {
	Payload *model.StructuredPayload
	Elapsed time.Duration
}

// Structurer sends raw transcript text to a language model and normalizes
// the response into a StructuredPayload.
type Structurer interface {
	Structure(ctx context.Context, rawText string) (Result, error)
}

// TransportError reports a failure to reach the endpoint or a non-success
// HTTP status. Raw carries the response body, when any, for diagnosis.
type TransportError struct {
	Provider string
	Status   int
	Raw      string
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("structuring via %s failed: status %d", e.Provider, e.Status)
	}
	return fmt.Sprintf("structuring via %s failed: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports a response that did not decode to the expected shape,
// or label-delimited output missing a required label. Raw carries the model
// content verbatim; no field-by-field fallback is attempted.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("structuring response did not parse: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// New creates a Structurer for the configured provider and response format.
// Selection happens once at startup; unresolvable configuration (unknown
// provider, missing credential) is an initialization error and fatal.
func New(cfg config.StructurerConfig) (Structurer, error) {
	switch cfg.Provider {
	case "lmstudio", "ollama":
	case "openrouter":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("openrouter provider requires an api key")
		}
	default:
		return nil, fmt.Errorf("unknown structurer provider %q (supported: lmstudio, ollama, openrouter)", cfg.Provider)
	}

	switch cfg.Format {
	case "json", "labels":
	default:
		return nil, fmt.Errorf("unknown structurer format %q (supported: json, labels)", cfg.Format)
	}

	return &httpStructurer{
		provider:    cfg.Provider,
		format:      cfg.Format,
		apiURL:      cfg.APIURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		contextSize: cfg.ContextSize,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSec) * time.Second,
		},
	}, nil
}
