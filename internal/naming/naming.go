// Package naming derives collision-free, human-readable output directory
// names and relocates in-progress artifacts into them.
package naming

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// maxSlugLen bounds the derived directory name component.
const maxSlugLen = 50

var (
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_\s-]+\s*`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// Slug derives a filesystem-safe name from a note title: characters outside
// [A-Za-z0-9_-] are stripped together with any whitespace that follows them,
// remaining whitespace becomes underscores, and the result is truncated to
// 50 characters. "Team Sync: Q3!!" yields "Team_SyncQ3".
func Slug(title string) string {
	s := unsafeChars.ReplaceAllString(strings.TrimSpace(title), "")
	s = whitespace.ReplaceAllString(strings.TrimSpace(s), "_")
	if len(s) > maxSlugLen {
		s = s[:maxSlugLen]
	}
	return s
}

// PlacementError reports a failed relocation of the working directory.
type PlacementError struct {
	From string
	To   string
	Err  error
}

func (e *PlacementError) Error() string {
	return fmt.Sprintf("relocate %s to %s: %v", e.From, e.To, e.Err)
}

func (e *PlacementError) Unwrap() error { return e.Err }

// FinalizeLocation renames workDir to its final location
// "<parent>/<date>_<slug>". If that name is taken, "_1", "_2", ... are
// appended until an unused name is found. When the computed final directory
// equals workDir, no rename occurs.
//
// The exists-check and the rename are not atomic: two concurrently
// finalizing files with the same candidate name can race into the same
// final directory. The pipeline serializes processing (one file in flight),
// so the window is never exercised there; callers that parallelize must add
// their own mutual exclusion.
func FinalizeLocation(workDir, candidateTitle string, recordedAt time.Time) (string, error) {
	parent := filepath.Dir(workDir)
	base := fmt.Sprintf("%s_%s", recordedAt.Format("2006-01-02"), Slug(candidateTitle))

	finalDir := filepath.Join(parent, base)
	if finalDir == workDir {
		return finalDir, nil
	}

	if _, err := os.Stat(finalDir); err == nil {
		for i := 1; ; i++ {
			candidate := fmt.Sprintf("%s_%d", finalDir, i)
			if _, err := os.Stat(candidate); os.IsNotExist(err) {
				finalDir = candidate
				break
			}
		}
	}

	if err := os.Rename(workDir, finalDir); err != nil {
		return "", &PlacementError{From: workDir, To: finalDir, Err: err}
	}
	return finalDir, nil
}
