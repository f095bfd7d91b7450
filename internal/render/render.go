// Package render produces the two human-facing artifacts of a processed
// note: the markdown document and the self-contained HTML card. It also
// persists the structuring payload verbatim as structured_data.json so
// fields the renderer does not yet understand are never lost.
package render

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"voicenotes/internal/model"
)

// Renderer writes the output artifacts for one note into its directory.
type Renderer interface {
	Render(payload *model.StructuredPayload, rawTranscript string, outDir string) (mdPath, cardPath string, err error)
}

type renderer struct{}

var _ Renderer = (*renderer)(nil)

func New() Renderer {
	return &renderer{}
}

func (r *renderer) Render(payload *model.StructuredPayload, rawTranscript string, outDir string) (string, string, error) {
	mdPath, err := WriteMarkdown(payload, outDir)
	if err != nil {
		return "", "", err
	}
	cardPath, err := WriteCard(payload, rawTranscript, outDir)
	if err != nil {
		return "", "", err
	}
	return mdPath, cardPath, nil
}

// WriteStructuredJSON persists the payload exactly as decoded, indented for
// manual inspection.
func WriteStructuredJSON(payload *model.StructuredPayload, outDir string) (string, error) {
	data, err := json.MarshalIndent(payload, "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshal structured payload: %w", err)
	}
	path := filepath.Join(outDir, StructuredFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write structured payload: %w", err)
	}
	return path, nil
}
