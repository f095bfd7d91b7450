package naming

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"spaces become underscores", "Team Sync", "Team_Sync"},
		{"unsafe characters stripped", "Team Sync: Q3!!", "Team_SyncQ3"},
		{"separator swallows following space", "Status: draft", "Statusdraft"},
		{"hyphens and underscores kept", "pre-flight_check", "pre-flight_check"},
		{"surrounding whitespace trimmed", "  Standup notes  ", "Standup_notes"},
		{"empty title", "", ""},
		{"truncated to fifty", strings.Repeat("a", 80), strings.Repeat("a", 50)},
	}

	safe := regexp.MustCompile(`^[A-Za-z0-9_-]*$`)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Slug(tt.title)
			assert.Equal(t, tt.want, got)
			assert.Regexp(t, safe, got)
			assert.LessOrEqual(t, len(got), 50)
		})
	}
}

func mkWorkDir(t *testing.T, parent, name string) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "transcript.json"), []byte(`{"text":"x"}`), 0o644))
	return dir
}

func TestFinalizeLocation(t *testing.T) {
	date := time.Date(2024, 6, 11, 10, 0, 0, 0, time.UTC)

	t.Run("renames working directory", func(t *testing.T) {
		parent := t.TempDir()
		workDir := mkWorkDir(t, parent, "kitchen")

		finalDir, err := FinalizeLocation(workDir, "Team Sync: Q3!!", date)

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(parent, "2024-06-11_Team_SyncQ3"), finalDir)
		assert.NoDirExists(t, workDir)
		assert.FileExists(t, filepath.Join(finalDir, "transcript.json"))
	})

	t.Run("appends numeric suffix on collision", func(t *testing.T) {
		parent := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(parent, "2024-06-11_Team_SyncQ3"), 0o755))
		workDir := mkWorkDir(t, parent, "kitchen")

		finalDir, err := FinalizeLocation(workDir, "Team Sync: Q3!!", date)

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(parent, "2024-06-11_Team_SyncQ3_1"), finalDir)
	})

	t.Run("increments suffix past existing ones", func(t *testing.T) {
		parent := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(parent, "2024-06-11_Note"), 0o755))
		require.NoError(t, os.MkdirAll(filepath.Join(parent, "2024-06-11_Note_1"), 0o755))
		workDir := mkWorkDir(t, parent, "kitchen")

		finalDir, err := FinalizeLocation(workDir, "Note", date)

		require.NoError(t, err)
		assert.Equal(t, filepath.Join(parent, "2024-06-11_Note_2"), finalDir)
	})

	t.Run("no rename when already final", func(t *testing.T) {
		parent := t.TempDir()
		workDir := mkWorkDir(t, parent, "2024-06-11_Note")

		finalDir, err := FinalizeLocation(workDir, "Note", date)

		require.NoError(t, err)
		assert.Equal(t, workDir, finalDir)
		assert.DirExists(t, workDir)
	})

	t.Run("rename failure is a placement error", func(t *testing.T) {
		parent := t.TempDir()
		workDir := filepath.Join(parent, "missing") // never created

		_, err := FinalizeLocation(workDir, "Note", date)

		var placeErr *PlacementError
		require.ErrorAs(t, err, &placeErr)
		assert.Equal(t, workDir, placeErr.From)
	})
}
