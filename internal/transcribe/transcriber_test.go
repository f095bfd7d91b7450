package transcribe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicenotes/internal/config"
)

func TestNewSelectsBackend(t *testing.T) {
	tr, err := New(config.TranscriberConfig{Backend: "whisper"})
	require.NoError(t, err)
	assert.IsType(t, &whisperTranscriber{}, tr)

	tr, err = New(config.TranscriberConfig{Backend: "openai"})
	require.NoError(t, err)
	assert.IsType(t, &openaiTranscriber{}, tr)

	_, err = New(config.TranscriberConfig{Backend: "carrier-pigeon"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transcriber backend")
}

func TestWriteAndReadTranscript(t *testing.T) {
	workDir := filepath.Join(t.TempDir(), "kitchen")

	path, err := writeTranscript(workDir, "um so the meeting is at three")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(workDir, TranscriptFileName), path)

	// The artifact is JSON with the text and a transcription timestamp.
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var artifact map[string]any
	require.NoError(t, json.Unmarshal(raw, &artifact))
	assert.Equal(t, "um so the meeting is at three", artifact["text"])
	assert.NotEmpty(t, artifact["transcribed_at"])

	text, err := ReadTranscript(workDir)
	require.NoError(t, err)
	assert.Equal(t, "um so the meeting is at three", text)
}

func TestNormalizeOutput(t *testing.T) {
	assert.Equal(t, "one two three", normalizeOutput(" one \n two\n\nthree\n"))
	assert.Equal(t, "", normalizeOutput("\n\n"))
}

func TestConvertToWAVMissingTool(t *testing.T) {
	_, _, err := convertToWAV(context.Background(), "/nonexistent/ffmpeg", "in.m4a")

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Equal(t, "/nonexistent/ffmpeg", convErr.Tool)
}

// stubBinary writes an executable shell script and returns its path.
func stubBinary(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell stubs are not portable to windows")
	}
	path := filepath.Join(t.TempDir(), "stub")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func TestConvertToWAVToolFailure(t *testing.T) {
	ffmpeg := stubBinary(t, "echo 'in.m4a: No such file or directory' >&2\nexit 1\n")

	_, _, err := convertToWAV(context.Background(), ffmpeg, "in.m4a")

	var convErr *ConversionError
	require.ErrorAs(t, err, &convErr)
	assert.Contains(t, convErr.Error(), "No such file or directory")
}

func TestWhisperTranscribe(t *testing.T) {
	// ffmpeg stub creates the requested output file; whisper stub emits
	// segment lines on stdout.
	ffmpeg := stubBinary(t, `for last; do :; done; : > "$last"`)
	whisper := stubBinary(t, "echo ' um so the meeting'\necho ' is at three'\n")

	tr := newWhisperTranscriber(config.TranscriberConfig{
		FFmpegBin:  ffmpeg,
		WhisperBin: whisper,
		ModelPath:  "model.bin",
	})

	workDir := filepath.Join(t.TempDir(), "work")
	res, err := tr.Transcribe(context.Background(), "in.m4a", workDir)

	require.NoError(t, err)
	assert.Equal(t, "um so the meeting is at three", res.Text)
	assert.Greater(t, res.Elapsed.Nanoseconds(), int64(0))

	text, err := ReadTranscript(workDir)
	require.NoError(t, err)
	assert.Equal(t, res.Text, text)
}

func TestWhisperTranscribeBackendFailure(t *testing.T) {
	ffmpeg := stubBinary(t, `for last; do :; done; : > "$last"`)
	whisper := stubBinary(t, "echo 'failed to load model' >&2\nexit 3\n")

	tr := newWhisperTranscriber(config.TranscriberConfig{
		FFmpegBin:  ffmpeg,
		WhisperBin: whisper,
		ModelPath:  "model.bin",
	})

	_, err := tr.Transcribe(context.Background(), "in.m4a", t.TempDir())

	var trErr *TranscriptionError
	require.ErrorAs(t, err, &trErr)
	assert.Equal(t, "whisper", trErr.Backend)
	assert.Contains(t, trErr.Error(), "failed to load model")
}

func TestOpenAITranscribe(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "note.m4a")
	require.NoError(t, os.WriteFile(audio, []byte("fake audio"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))

		_ = json.NewEncoder(w).Encode(map[string]string{"text": " hello there "})
	}))
	defer srv.Close()

	tr := newOpenAITranscriber(config.TranscriberConfig{
		APIURL: srv.URL,
		APIKey: "secret",
		Model:  "whisper-1",
	})

	workDir := filepath.Join(t.TempDir(), "work")
	res, err := tr.Transcribe(context.Background(), audio, workDir)

	require.NoError(t, err)
	assert.Equal(t, "hello there", res.Text)

	text, err := ReadTranscript(workDir)
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
}

func TestOpenAITranscribeEmptyTextIsValid(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "silence.m4a")
	require.NoError(t, os.WriteFile(audio, []byte("quiet"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"text": ""})
	}))
	defer srv.Close()

	tr := newOpenAITranscriber(config.TranscriberConfig{APIURL: srv.URL, APIKey: "k"})

	res, err := tr.Transcribe(context.Background(), audio, filepath.Join(t.TempDir(), "w"))

	// No speech detected is not a failure.
	require.NoError(t, err)
	assert.Empty(t, res.Text)
}

func TestOpenAITranscribeAPIError(t *testing.T) {
	audio := filepath.Join(t.TempDir(), "note.m4a")
	require.NoError(t, os.WriteFile(audio, []byte("fake audio"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "bad key", "type": "invalid_request_error"},
		})
	}))
	defer srv.Close()

	tr := newOpenAITranscriber(config.TranscriberConfig{APIURL: srv.URL, APIKey: "bad"})

	_, err := tr.Transcribe(context.Background(), audio, t.TempDir())

	var trErr *TranscriptionError
	require.ErrorAs(t, err, &trErr)
	assert.Contains(t, trErr.Error(), "bad key")
}
