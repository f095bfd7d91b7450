package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"voicenotes/internal/logging"
)

// Archiver uploads the persisted artifacts of a processed note to object
// storage. Archival is best-effort: an upload failure is logged and never
// fails the note, since the local filesystem remains the source of truth.
type Archiver struct {
	store Storage
	log   *logging.Logger
}

func NewArchiver(store Storage, log *logging.Logger) *Archiver {
	return &Archiver{store: store, log: log}
}

var artifactTypes = map[string]string{
	".json": "application/json",
	".md":   "text/markdown",
	".html": "text/html; charset=utf-8",
}

// ArchiveNote uploads the named artifact files under notes/<folder>/ in the
// configured bucket. Missing files are skipped.
func (a *Archiver) ArchiveNote(ctx context.Context, folder string, paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := a.uploadFile(ctx, folder, path); err != nil {
			a.log.Error("archive_upload_failed", err, map[string]any{
				"folder": folder,
				"file":   path,
			})
		}
	}
}

func (a *Archiver) uploadFile(ctx context.Context, folder, path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat artifact: %w", err)
	}

	key := "notes/" + folder + "/" + filepath.Base(path)
	_, err = a.store.Put(ctx, key, f, PutObjectOptions{
		Size:        st.Size(),
		ContentType: artifactTypes[filepath.Ext(path)],
	})
	return err
}
