package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voicenotes/internal/config"
)

// openaiTranscriber uploads the audio file to an OpenAI-compatible
// audio-transcriptions endpoint. The remote service handles format
// normalization, so no local conversion step is needed.
type openaiTranscriber struct {
	apiURL     string
	apiKey     string
	model      string
	httpClient *http.Client
}

func newOpenAITranscriber(cfg config.TranscriberConfig) *openaiTranscriber {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	return &openaiTranscriber{
		apiURL: cfg.APIURL,
		apiKey: cfg.APIKey,
		model:  cfg.Model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

var _ Transcriber = (*openaiTranscriber)(nil)

func (t *openaiTranscriber) Transcribe(ctx context.Context, audioPath, workDir string) (Result, error) {
	start := time.Now()

	f, err := os.Open(audioPath)
	if err != nil {
		return Result{}, &TranscriptionError{Backend: "openai", Err: err}
	}
	defer f.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return Result{}, &TranscriptionError{Backend: "openai", Err: fmt.Errorf("create multipart file: %w", err)}
	}
	if _, err := io.Copy(part, f); err != nil {
		return Result{}, &TranscriptionError{Backend: "openai", Err: fmt.Errorf("copy audio data: %w", err)}
	}
	if err := writer.WriteField("model", t.model); err != nil {
		return Result{}, &TranscriptionError{Backend: "openai", Err: fmt.Errorf("write model field: %w", err)}
	}
	if err := writer.Close(); err != nil {
		return Result{}, &TranscriptionError{Backend: "openai", Err: fmt.Errorf("close multipart writer: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.apiURL, body)
	if err != nil {
		return Result{}, &TranscriptionError{Backend: "openai", Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return Result{}, &TranscriptionError{Backend: "openai", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return Result{}, &TranscriptionError{Backend: "openai", Err: decodeAPIError(resp)}
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, &TranscriptionError{Backend: "openai", Err: fmt.Errorf("decode response: %w", err)}
	}

	text := strings.TrimSpace(payload.Text)

	if _, err := writeTranscript(workDir, text); err != nil {
		return Result{}, &TranscriptionError{Backend: "openai", Err: err}
	}

	return Result{Text: text, Elapsed: time.Since(start)}, nil
}

func decodeAPIError(resp *http.Response) error {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("api error: status %d type %s message %s",
			resp.StatusCode, apiErr.Error.Type, apiErr.Error.Message)
	}
	return fmt.Errorf("api error: status %d", resp.StatusCode)
}
