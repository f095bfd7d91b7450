// Package pipeline sequences one audio file through the fixed stage chain:
// transcription, structuring, placement, rendering, persistence. Each file is
// an independent unit of work; a stage failure is terminal for that file only
// and the pipeline returns to idle.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voicenotes/internal/logging"
	"voicenotes/internal/model"
	"voicenotes/internal/naming"
	"voicenotes/internal/render"
	"voicenotes/internal/repository"
	"voicenotes/internal/storage"
	"voicenotes/internal/structure"
	"voicenotes/internal/transcribe"
)

// Stage identifies a pipeline state, used in logs, metrics, and failures.
// The in-progress states name the work being attempted and are the only ones
// a failure can carry; the past-tense states mark the transitions logged
// after each step succeeds.
type Stage string

const (
	StageDetected     Stage = "detected"
	StageTranscribing Stage = "transcribing"
	StageTranscribed  Stage = "transcribed"
	StageStructuring  Stage = "structuring"
	StageStructured   Stage = "structured"
	StagePlacing      Stage = "placing"
	StagePlaced       Stage = "placed"
	StageRendering    Stage = "rendering"
	StagePersisting   Stage = "persisting"
	StageDone         Stage = "done"
)

// PersistenceError reports a failed store insert. By this point artifacts
// already exist on disk; the missing row is an accepted inconsistency.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: insert note record: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// StageError wraps a stage failure with the stage it occurred in.
type StageError struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed for %s: %v", e.Stage, e.Path, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Pipeline processes one audio file at a time. It is driven by a single
// worker goroutine (see Watcher), so no internal locking is needed.
type Pipeline struct {
	processedDir string
	settleDelay  time.Duration

	transcriber transcribe.Transcriber
	structurer  structure.Structurer
	renderer    render.Renderer
	repo        repository.NoteRepository
	archiver    *storage.Archiver // nil when archival is disabled
	log         *logging.Logger
	metrics     *Metrics
}

func New(
	processedDir string,
	settleDelay time.Duration,
	transcriber transcribe.Transcriber,
	structurer structure.Structurer,
	renderer render.Renderer,
	repo repository.NoteRepository,
	archiver *storage.Archiver,
	log *logging.Logger,
	metrics *Metrics,
) *Pipeline {
	return &Pipeline{
		processedDir: processedDir,
		settleDelay:  settleDelay,
		transcriber:  transcriber,
		structurer:   structurer,
		renderer:     renderer,
		repo:         repo,
		archiver:     archiver,
		log:          log,
		metrics:      metrics,
	}
}

// Process runs the full stage chain for one detected audio file. The
// returned error is always a *StageError; a nil return means the note record
// was inserted and the file is fully processed.
func (p *Pipeline) Process(ctx context.Context, audioPath string) error {
	p.log.Info("note_detected", map[string]any{"file": audioPath})

	// A file-creation event can fire while the file is still being written;
	// wait a short fixed delay before the first read.
	if p.settleDelay > 0 {
		select {
		case <-time.After(p.settleDelay):
		case <-ctx.Done():
			return p.fail(StageDetected, audioPath, ctx.Err())
		}
	}

	info, err := os.Stat(audioPath)
	if err != nil {
		return p.fail(StageDetected, audioPath, fmt.Errorf("stat input: %w", err))
	}
	recordedAt := info.ModTime()

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	workDir := filepath.Join(p.processedDir, stem)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return p.fail(StageDetected, audioPath, fmt.Errorf("create working directory: %w", err))
	}

	// Transcribing.
	tr, err := p.transcriber.Transcribe(ctx, audioPath, workDir)
	if err != nil {
		return p.fail(StageTranscribing, audioPath, err)
	}
	p.metrics.observeStage(StageTranscribing, tr.Elapsed)
	p.log.Info("note_transcribed", map[string]any{
		"file":       audioPath,
		"state":      string(StageTranscribed),
		"chars":      len(tr.Text),
		"elapsed_ms": tr.Elapsed.Milliseconds(),
	})

	// Structuring.
	st, err := p.structurer.Structure(ctx, tr.Text)
	if err != nil {
		return p.fail(StageStructuring, audioPath, err)
	}
	p.metrics.observeStage(StageStructuring, st.Elapsed)
	payload := st.Payload
	p.log.Info("note_structured", map[string]any{
		"file":       audioPath,
		"state":      string(StageStructured),
		"title":      payload.TitleOrDefault(),
		"elapsed_ms": st.Elapsed.Milliseconds(),
	})

	// Placing. The candidate title comes from the structured payload, so
	// this cannot run before structuring succeeds.
	finalDir, err := naming.FinalizeLocation(workDir, payload.TitleOrDefault(), recordedAt)
	if err != nil {
		return p.fail(StagePlacing, audioPath, err)
	}
	p.log.Info("note_placed", map[string]any{
		"file":   audioPath,
		"state":  string(StagePlaced),
		"folder": filepath.Base(finalDir),
	})

	// Rendering.
	structuredPath, err := render.WriteStructuredJSON(payload, finalDir)
	if err != nil {
		return p.fail(StageRendering, audioPath, err)
	}
	mdPath, cardPath, err := p.renderer.Render(payload, tr.Text, finalDir)
	if err != nil {
		return p.fail(StageRendering, audioPath, err)
	}

	// Persisting. The insert happens exactly once, only after every prior
	// stage has succeeded.
	rec := &model.NoteRecord{
		Title:             payload.TitleOrDefault(),
		OriginalAudioPath: audioPath,
		RawTranscriptPath: filepath.Join(finalDir, transcribe.TranscriptFileName),
		ProcessedPath:     mdPath,
		CardPath:          cardPath,
		Tags:              payload.JoinTags(),
		Category:          payload.CategoryOrDefault(),
		Summary:           payload.SummaryShort,
		Location:          stem,
		RecordedAt:        recordedAt,
		TranscriptionSec:  tr.Elapsed.Seconds(),
		ProcessingSec:     st.Elapsed.Seconds(),
		StructuredJSON:    marshalPayload(payload),
	}
	id, err := p.repo.Insert(ctx, rec)
	if err != nil {
		return p.fail(StagePersisting, audioPath, &PersistenceError{Err: err})
	}
	rec.ID = id

	p.metrics.noteDone()
	p.log.Info("note_done", map[string]any{
		"file":   audioPath,
		"state":  string(StageDone),
		"id":     id,
		"folder": filepath.Base(finalDir),
	})

	if p.archiver != nil {
		p.archiver.ArchiveNote(ctx, filepath.Base(finalDir),
			rec.RawTranscriptPath, structuredPath, mdPath, cardPath)
	}
	return nil
}

func (p *Pipeline) fail(stage Stage, path string, err error) error {
	p.metrics.noteFailed(stage)
	p.log.Error("stage_failed", err, map[string]any{
		"file":  path,
		"stage": string(stage),
	})
	return &StageError{Stage: stage, Path: path, Err: err}
}

func marshalPayload(payload *model.StructuredPayload) string {
	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(b)
}
