package transcribe

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
)

// convertToWAV converts an arbitrary audio container to the 16kHz mono
// 16-bit PCM WAV layout the whisper backend expects, using the external
// ffmpeg binary. It returns the temp file path and a cleanup func; the
// caller must invoke cleanup on both success and failure paths.
func convertToWAV(ctx context.Context, ffmpegBin, audioPath string) (string, func(), error) {
	wavPath := filepath.Join(os.TempDir(), uuid.NewString()+".wav")
	cleanup := func() { _ = os.Remove(wavPath) }

	cmd := exec.CommandContext(ctx, ffmpegBin,
		"-i", audioPath,
		"-ar", "16000", // resample to 16kHz
		"-ac", "1", // mono
		"-c:a", "pcm_s16le", // 16-bit PCM
		"-y", // overwrite if the temp path exists
		wavPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cleanup()
		return "", func() {}, &ConversionError{
			Tool:   ffmpegBin,
			Stderr: lastLine(stderr.String()),
			Err:    err,
		}
	}

	return wavPath, cleanup, nil
}

// lastLine trims ffmpeg's banner noise: only the final stderr line carries
// the actual failure reason.
func lastLine(s string) string {
	trimmed := bytes.TrimSpace([]byte(s))
	if len(trimmed) == 0 {
		return ""
	}
	if i := bytes.LastIndexByte(trimmed, '\n'); i >= 0 {
		return string(bytes.TrimSpace(trimmed[i+1:]))
	}
	return string(trimmed)
}
