// Package transcribe provides speech-to-text backends behind a uniform
// contract. Backends normalize their output to one plain-text string for the
// full utterance, and write the raw transcript artifact into the per-file
// working directory before returning.
package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"voicenotes/internal/config"
)

// TranscriptFileName is the fixed-name raw transcript artifact written into
// the working directory.
const TranscriptFileName = "transcript.json"

// Result is the normalized output of one transcription.
type Result struct {
	Text    string
	Elapsed time.Duration
}

// Transcriber converts an audio file to text. An empty Text with a nil error
// means no speech was detected, which is distinct from a failure.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, workDir string) (Result, error)
}

// ConversionError reports a failure of the external audio conversion tool:
// missing binary, unreadable input, or a non-zero exit.
type ConversionError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("audio conversion via %s failed: %v: %s", e.Tool, e.Err, e.Stderr)
	}
	return fmt.Sprintf("audio conversion via %s failed: %v", e.Tool, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// TranscriptionError reports a backend call that failed or returned unusable
// output. It is never used for valid empty transcriptions.
type TranscriptionError struct {
	Backend string
	Err     error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription via %s failed: %v", e.Backend, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// New creates a Transcriber based on the configured backend. Selection
// happens once at startup; an unknown backend is an initialization error and
// fatal to the process.
func New(cfg config.TranscriberConfig) (Transcriber, error) {
	switch cfg.Backend {
	case "whisper", "":
		return newWhisperTranscriber(cfg), nil
	case "openai":
		return newOpenAITranscriber(cfg), nil
	default:
		return nil, fmt.Errorf("unknown transcriber backend %q (supported: whisper, openai)", cfg.Backend)
	}
}

// transcriptArtifact is the on-disk shape of the raw transcript.
type transcriptArtifact struct {
	Text          string    `json:"text"`
	TranscribedAt time.Time `json:"transcribed_at"`
}

// writeTranscript creates the working directory and writes the raw
// transcript artifact into it.
func writeTranscript(workDir, text string) (string, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", fmt.Errorf("create working directory: %w", err)
	}

	path := filepath.Join(workDir, TranscriptFileName)
	raw, err := json.MarshalIndent(transcriptArtifact{
		Text:          text,
		TranscribedAt: time.Now().UTC(),
	}, "", "    ")
	if err != nil {
		return "", fmt.Errorf("encode transcript: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}

// ReadTranscript loads the raw transcript text back from a working or final
// directory.
func ReadTranscript(dir string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, TranscriptFileName))
	if err != nil {
		return "", err
	}
	var artifact transcriptArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return "", fmt.Errorf("decode transcript: %w", err)
	}
	return artifact.Text, nil
}
