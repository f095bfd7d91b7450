package structure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// httpStructurer is the single chat-completion client behind every provider
// variant. Providers differ only in the request body shape, auth header, and
// where the reply content nests.
type httpStructurer struct {
	provider    string
	format      string
	apiURL      string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	contextSize int
	httpClient  *http.Client
}

var _ Structurer = (*httpStructurer)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (s *httpStructurer) Structure(ctx context.Context, rawText string) (Result, error) {
	start := time.Now()

	content, err := s.complete(ctx, s.messages(rawText))
	if err != nil {
		return Result{}, err
	}

	var payload *payloadResult
	switch s.format {
	case "labels":
		payload, err = parseLabeled(content)
	default:
		payload, err = parseJSON(content)
	}
	if err != nil {
		return Result{}, err
	}

	return Result{Payload: payload.payload, Elapsed: time.Since(start)}, nil
}

func (s *httpStructurer) messages(rawText string) []chatMessage {
	if s.format == "json" {
		// The JSON variant targets a model fine-tuned on <RAW>...</RAW>
		// inputs; no instruction prompt is needed.
		return []chatMessage{
			{Role: "user", Content: "<RAW>" + rawText + "</RAW>"},
		}
	}
	return []chatMessage{
		{Role: "system", Content: "You are a helpful assistant."},
		{Role: "user", Content: labelPrompt(rawText)},
	}
}

// complete performs the chat-completion request and returns the model's
// reply content.
func (s *httpStructurer) complete(ctx context.Context, messages []chatMessage) (string, error) {
	var body map[string]any
	if s.provider == "ollama" {
		body = map[string]any{
			"model":    s.model,
			"messages": messages,
			"stream":   false,
			"options": map[string]any{
				"temperature": s.temperature,
				"num_ctx":     s.contextSize,
			},
		}
	} else {
		body = map[string]any{
			"model":       s.model,
			"messages":    messages,
			"temperature": s.temperature,
			"max_tokens":  s.maxTokens,
			"stream":      false,
		}
	}

	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return "", &TransportError{Provider: s.provider, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, buf)
	if err != nil {
		return "", &TransportError{Provider: s.provider, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Provider: s.provider, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Provider: s.provider, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return "", &TransportError{
			Provider: s.provider,
			Status:   resp.StatusCode,
			Raw:      string(raw),
			Err:      fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	content, err := extractContent(s.provider, raw)
	if err != nil {
		return "", &ParseError{Raw: string(raw), Err: err}
	}
	return content, nil
}

// extractContent pulls the reply text out of the provider's response
// envelope. Ollama nests it under message.content; OpenAI-compatible
// endpoints under choices[0].message.content.
func extractContent(provider string, raw []byte) (string, error) {
	if provider == "ollama" {
		var envelope struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return "", fmt.Errorf("decode response envelope: %w", err)
		}
		if envelope.Message.Content == "" {
			return "", fmt.Errorf("response carries no message content")
		}
		return envelope.Message.Content, nil
	}

	var envelope struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", fmt.Errorf("decode response envelope: %w", err)
	}
	if len(envelope.Choices) == 0 {
		return "", fmt.Errorf("response carries no choices")
	}
	return envelope.Choices[0].Message.Content, nil
}
