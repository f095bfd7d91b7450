package transcribe

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"voicenotes/internal/config"
)

// whisperTranscriber runs a local whisper.cpp CLI binary on the audio file.
// The input is first normalized to 16kHz mono WAV via ffmpeg, since the model
// does not accept arbitrary containers or codecs.
type whisperTranscriber struct {
	ffmpegBin  string
	whisperBin string
	modelPath  string
}

func newWhisperTranscriber(cfg config.TranscriberConfig) *whisperTranscriber {
	return &whisperTranscriber{
		ffmpegBin:  cfg.FFmpegBin,
		whisperBin: cfg.WhisperBin,
		modelPath:  cfg.ModelPath,
	}
}

var _ Transcriber = (*whisperTranscriber)(nil)

func (t *whisperTranscriber) Transcribe(ctx context.Context, audioPath, workDir string) (Result, error) {
	start := time.Now()

	wavPath, cleanup, err := convertToWAV(ctx, t.ffmpegBin, audioPath)
	if err != nil {
		return Result{}, err
	}
	defer cleanup()

	cmd := exec.CommandContext(ctx, t.whisperBin,
		"-m", t.modelPath,
		"-f", wavPath,
		"--no-timestamps",
		"--no-prints",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return Result{}, &TranscriptionError{
			Backend: "whisper",
			Err:     commandError(err, stderr.String()),
		}
	}

	text := normalizeOutput(stdout.String())

	if _, err := writeTranscript(workDir, text); err != nil {
		return Result{}, &TranscriptionError{Backend: "whisper", Err: err}
	}

	return Result{Text: text, Elapsed: time.Since(start)}, nil
}

// normalizeOutput collapses the CLI's line-per-segment output into one text
// string, matching backends that return a single result object.
func normalizeOutput(out string) string {
	lines := strings.Split(out, "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}

type execError struct {
	err    error
	stderr string
}

func (e *execError) Error() string {
	if e.stderr != "" {
		return e.err.Error() + ": " + e.stderr
	}
	return e.err.Error()
}

func (e *execError) Unwrap() error { return e.err }

func commandError(err error, stderr string) error {
	return &execError{err: err, stderr: lastLine(stderr)}
}
