package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"voicenotes/internal/model"
)

// MarkdownFileName is the fixed-name processed document inside a note's
// output directory.
const MarkdownFileName = "processed.md"

// StructuredFileName is the fixed-name verbatim payload artifact.
const StructuredFileName = "structured_data.json"

// WriteMarkdown renders the processed note document. Section order is fixed:
// title, category, tags, optional summary, divider, cleaned transcript, then
// key points and action items only when present. An empty list never
// produces an empty heading.
func WriteMarkdown(payload *model.StructuredPayload, outDir string) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", payload.TitleOrDefault())
	fmt.Fprintf(&b, "**Category:** %s\n", payload.CategoryOrDefault())
	fmt.Fprintf(&b, "**Tags:** %s\n", payload.JoinTags())
	if payload.SummaryShort != "" {
		fmt.Fprintf(&b, "**Summary:** %s\n", payload.SummaryShort)
	}
	b.WriteString("\n---\n\n")
	b.WriteString("## Cleaned Transcript\n\n")
	b.WriteString(payload.CleanedTranscript)

	if len(payload.KeyPoints) > 0 {
		b.WriteString("\n\n## Key Points\n\n")
		for _, point := range payload.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", point)
		}
	}

	if len(payload.ActionItems) > 0 {
		b.WriteString("\n\n## Action Items\n\n")
		for _, item := range payload.ActionItems {
			fmt.Fprintf(&b, "- [ ] %s", item.Description)
			if item.Priority != "" {
				fmt.Fprintf(&b, " (Priority: %s)", item.Priority)
			}
			if item.Due != "" {
				fmt.Fprintf(&b, " (Due: %s)", item.Due)
			}
			b.WriteString("\n")
		}
	}

	path := filepath.Join(outDir, MarkdownFileName)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write markdown: %w", err)
	}
	return path, nil
}
