package model

import (
	"strings"
	"time"
)

// NoteRecord represents one fully processed audio note as persisted in the
// metadata store. A record is inserted exactly once, after every pipeline
// stage has succeeded; a file that fails any stage produces no record.
// This is a pure domain model with no database-specific dependencies or tags.
type NoteRecord struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	OriginalAudioPath string    `json:"original_audio_path"`
	RawTranscriptPath string    `json:"raw_transcript_path"`
	ProcessedPath     string    `json:"processed_path"`
	CardPath          string    `json:"card_path"`
	Tags              string    `json:"tags"` // comma-joined
	Category          string    `json:"category"`
	Summary           string    `json:"summary"`
	Location          string    `json:"location"`
	RecordedAt        time.Time `json:"recorded_at"`
	CreatedAt         time.Time `json:"created_at"`
	TranscriptionSec  float64   `json:"transcription_time"`
	ProcessingSec     float64   `json:"processing_time"`
	StructuredJSON    string    `json:"structured_data"`
}

// NoteSummary is the listing projection served by the browser API.
type NoteSummary struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Category  string    `json:"category"`
	Tags      []string  `json:"tags"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
	Folder    string    `json:"folder_name"`
	HasCard   bool      `json:"has_html_card"`
}

// ActionItem is one actionable entry extracted by the structuring stage.
// Priority is one of "H", "M", "L".
type ActionItem struct {
	Description string `json:"description"`
	Priority    string `json:"priority,omitempty"`
	Due         string `json:"due,omitempty"`
}

// Entity is a named entity extracted from the transcript.
type Entity struct {
	Text string `json:"text"`
	Type string `json:"type,omitempty"`
}

// TimeRef is a time expression found in the transcript together with its
// normalized form.
type TimeRef struct {
	Text       string `json:"text"`
	Normalized string `json:"normalized,omitempty"`
	Kind       string `json:"kind,omitempty"`
}

// StructuredPayload is the normalized result of the structuring stage. Every
// field is optional: an absent key decodes to its zero value and never fails
// the pipeline. The full payload is retained verbatim in the store for
// forward compatibility with fields the renderer does not yet understand.
type StructuredPayload struct {
	Title             string       `json:"title,omitempty"`
	CleanedTranscript string       `json:"cleaned_transcript,omitempty"`
	Category          string       `json:"category,omitempty"`
	Tags              []string     `json:"tags,omitempty"`
	SummaryShort      string       `json:"summary_short,omitempty"`
	KeyPoints         []string     `json:"key_points,omitempty"`
	ActionItems       []ActionItem `json:"action_items,omitempty"`
	Decisions         []string     `json:"decisions,omitempty"`
	Questions         []string     `json:"questions,omitempty"`
	People            []string     `json:"people,omitempty"`
	Entities          []Entity     `json:"entities,omitempty"`
	TimeRefs          []TimeRef    `json:"time_extractions,omitempty"`
}

// TitleOrDefault returns the payload title or a placeholder when the
// structuring stage produced none.
func (p *StructuredPayload) TitleOrDefault() string {
	if t := strings.TrimSpace(p.Title); t != "" {
		return t
	}
	return "Untitled Note"
}

// CategoryOrDefault returns the payload category or a placeholder.
func (p *StructuredPayload) CategoryOrDefault() string {
	if c := strings.TrimSpace(p.Category); c != "" {
		return c
	}
	return "Uncategorized"
}

// JoinTags renders the ordered tag list as the single delimited string stored
// in the notes table.
func (p *StructuredPayload) JoinTags() string {
	return strings.Join(p.Tags, ", ")
}

// SplitTags is the inverse of JoinTags for the read surface.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
