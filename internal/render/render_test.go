package render

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicenotes/internal/model"
)

func fullPayload() *model.StructuredPayload {
	return &model.StructuredPayload{
		Title:             "Quarterly Planning",
		CleanedTranscript: "We agreed on the roadmap for next quarter.",
		Category:          "Work",
		Tags:              []string{"planning", "roadmap"},
		SummaryShort:      "Roadmap agreed for next quarter.",
		KeyPoints:         []string{"Roadmap locked", "Budget unchanged"},
		ActionItems: []model.ActionItem{
			{Description: "Send roadmap doc", Priority: "H", Due: "2024-06-14"},
			{Description: "Book review meeting"},
		},
		Decisions: []string{"Ship v2 in Q3"},
		Questions: []string{"Who owns the migration?"},
		People:    []string{"Dana"},
		Entities:  []model.Entity{{Text: "Q3", Type: "DATE"}},
		TimeRefs:  []model.TimeRef{{Text: "next quarter", Normalized: "2024-Q3"}},
	}
}

func TestWriteMarkdownFullPayload(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteMarkdown(fullPayload(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, MarkdownFileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := string(data)

	// Each section appears exactly once, in fixed order.
	headers := []string{
		"# Quarterly Planning",
		"**Category:** Work",
		"**Tags:** planning, roadmap",
		"**Summary:** Roadmap agreed for next quarter.",
		"---",
		"## Cleaned Transcript",
		"## Key Points",
		"## Action Items",
	}
	pos := -1
	for _, h := range headers {
		assert.Equal(t, 1, strings.Count(doc, h), "header %q", h)
		idx := strings.Index(doc, h)
		assert.Greater(t, idx, pos, "header %q out of order", h)
		pos = idx
	}

	assert.Contains(t, doc, "- Roadmap locked\n")
	assert.Contains(t, doc, "- [ ] Send roadmap doc (Priority: H) (Due: 2024-06-14)\n")
	assert.Contains(t, doc, "- [ ] Book review meeting\n")
}

func TestWriteMarkdownTranscriptOnly(t *testing.T) {
	dir := t.TempDir()

	payload := &model.StructuredPayload{CleanedTranscript: "just the words"}
	path, err := WriteMarkdown(payload, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := string(data)

	assert.Contains(t, doc, "# Untitled Note")
	assert.Contains(t, doc, "**Category:** Uncategorized")
	assert.Contains(t, doc, "## Cleaned Transcript\n\njust the words")

	// No empty headers for absent optional sections.
	assert.NotContains(t, doc, "**Summary:**")
	assert.NotContains(t, doc, "## Key Points")
	assert.NotContains(t, doc, "## Action Items")
}

func TestWriteCardFullPayload(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteCard(fullPayload(), "um so we uh agreed", dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, CardFileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := string(data)

	assert.Contains(t, doc, "<title>Quarterly Planning</title>")
	assert.Contains(t, doc, "Key Points")
	assert.Contains(t, doc, "Action Items")
	assert.Contains(t, doc, "Decisions")
	assert.Contains(t, doc, "Open Questions")
	assert.Contains(t, doc, `priority-high`)
	assert.Contains(t, doc, ">High<")

	// Transcripts embedded as JSON string literals.
	assert.Contains(t, doc, `"We agreed on the roadmap for next quarter."`)
	assert.Contains(t, doc, `"um so we uh agreed"`)
}

func TestWriteCardOmitsEmptySections(t *testing.T) {
	dir := t.TempDir()

	payload := &model.StructuredPayload{CleanedTranscript: "hello"}
	path, err := WriteCard(payload, "raw hello", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := string(data)

	assert.NotContains(t, doc, "Key Points")
	assert.NotContains(t, doc, "Action Items")
	assert.NotContains(t, doc, "Decisions")
	assert.Contains(t, doc, "Transcript")
}

func TestWriteCardEscapesTranscriptForScript(t *testing.T) {
	dir := t.TempDir()

	payload := &model.StructuredPayload{
		CleanedTranscript: "line one\nhe said \"stop\" </script>",
	}
	_, err := WriteCard(payload, "", dir)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, CardFileName))
	require.NoError(t, err)
	doc := string(data)

	// Newlines and quotes must be escaped inside the script literal and the
	// closing tag must not terminate the script block early.
	assert.Contains(t, doc, `\n`)
	assert.Contains(t, doc, `\"stop\"`)
	assert.NotContains(t, doc, "</script> ")
}

func TestRenderWritesBothArtifacts(t *testing.T) {
	dir := t.TempDir()

	mdPath, cardPath, err := New().Render(fullPayload(), "raw", dir)
	require.NoError(t, err)

	assert.FileExists(t, mdPath)
	assert.FileExists(t, cardPath)
}

func TestWriteStructuredJSONRoundTrip(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteStructuredJSON(fullPayload(), dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, StructuredFileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"time_extractions"`)
	assert.Contains(t, string(data), `"Quarterly Planning"`)
}
