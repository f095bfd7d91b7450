package structure

import (
	"encoding/json"
	"fmt"
	"strings"

	"voicenotes/internal/model"
)

type payloadResult struct {
	payload *model.StructuredPayload
}

// parseJSON decodes the model content into the full structured payload.
// Models frequently wrap JSON in a markdown code fence; the fence is
// stripped before decoding. Anything that does not decode to the expected
// shape is a ParseError, never a partial record.
func parseJSON(content string) (*payloadResult, error) {
	trimmed := stripCodeFence(content)

	var payload model.StructuredPayload
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return nil, &ParseError{Raw: content, Err: fmt.Errorf("decode structured payload: %w", err)}
	}
	return &payloadResult{payload: &payload}, nil
}

func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if i := strings.IndexByte(trimmed, '\n'); i >= 0 {
		trimmed = trimmed[i+1:] // drop the language tag line
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// The labeled-sections variant slices text between consecutive labels, in
// this fixed order. Slicing blindly would let one missing label silently
// shift every subsequent field, so all labels are validated present and in
// order before any slicing; a violation fails the whole response.
var labels = []string{
	"**Title:**",
	"**Cleaned Transcript:**",
	"**Category:**",
	"**Tags:**",
}

func parseLabeled(content string) (*payloadResult, error) {
	offsets := make([]int, len(labels))
	cursor := 0
	for i, label := range labels {
		idx := strings.Index(content[cursor:], label)
		if idx < 0 {
			return nil, &ParseError{Raw: content, Err: fmt.Errorf("label %s missing or out of order", label)}
		}
		offsets[i] = cursor + idx
		cursor = offsets[i] + len(label)
	}

	field := func(i int) string {
		start := offsets[i] + len(labels[i])
		end := len(content)
		if i+1 < len(labels) {
			end = offsets[i+1]
		}
		return strings.TrimSpace(content[start:end])
	}

	payload := &model.StructuredPayload{
		Title:             field(0),
		CleanedTranscript: field(1),
		Category:          field(2),
		Tags:              model.SplitTags(field(3)),
	}
	return &payloadResult{payload: payload}, nil
}

// labelPrompt asks a general instruction-following model for the fixed
// labeled template that parseLabeled expects.
func labelPrompt(rawText string) string {
	return fmt.Sprintf(`Here is a raw transcript from an audio note:

---
%s
---

Please perform the following tasks:
1. Clean up the transcript: correct any obvious transcription errors, fix punctuation, and format it for readability. Fix any excessive verbal fillers (e.g., "um", "uh", "so"). Otherwise, do not make any changes, don't summarise, just clean the transcript.
2. Suggest a concise and descriptive title for the note.
3. Categorise the note: choose a single, relevant category for this note (e.g., "Work", "Personal", "Ideas", "Meeting").
4. Tag the note: provide a few relevant tags, separated by commas (e.g., "project-management, team-meeting, Q3-planning").

Return your response in the following format:

**Title:**
[Your suggested title here]

**Cleaned Transcript:**
[Your cleaned transcript here]

**Category:**
[Your chosen category here]

**Tags:**
[Your chosen tags here]`, rawText)
}
