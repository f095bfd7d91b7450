package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"time"

	"voicenotes/internal/model"
)

// CardFileName is the fixed-name self-contained HTML card inside a note's
// output directory.
const CardFileName = "note_card.html"

type cardData struct {
	Title         string
	Category      string
	Tags          []string
	SummaryShort  string
	KeyPoints     []string
	ActionItems   []model.ActionItem
	Decisions     []string
	Questions     []string
	People        []string
	Entities      []model.Entity
	TimeRefs      []model.TimeRef
	Cleaned       string
	Raw           string
	GeneratedDate string
}

var cardFuncs = template.FuncMap{
	// jsString embeds a Go string as a JSON-escaped JavaScript literal so
	// transcripts containing quotes or newlines cannot break the script.
	"jsString": func(s string) (template.JS, error) {
		b, err := json.Marshal(s)
		if err != nil {
			return "", err
		}
		return template.JS(b), nil
	},
	"priorityLabel": func(p string) string {
		switch p {
		case "H":
			return "High"
		case "M":
			return "Medium"
		case "L":
			return "Low"
		}
		return p
	},
	"priorityClass": func(p string) string {
		switch p {
		case "H":
			return "priority-high"
		case "M":
			return "priority-medium"
		case "L":
			return "priority-low"
		}
		return "priority-none"
	},
}

var cardTmpl = template.Must(template.New("card").Funcs(cardFuncs).Parse(cardTemplate))

// WriteCard renders the self-contained HTML card. Structured sections are
// omitted entirely when their slice is empty, mirroring the markdown
// renderer, and both transcripts are embedded as JSON-escaped script
// literals behind a toggle.
func WriteCard(payload *model.StructuredPayload, rawTranscript string, outDir string) (string, error) {
	data := cardData{
		Title:         payload.TitleOrDefault(),
		Category:      payload.CategoryOrDefault(),
		Tags:          payload.Tags,
		SummaryShort:  payload.SummaryShort,
		KeyPoints:     payload.KeyPoints,
		ActionItems:   payload.ActionItems,
		Decisions:     payload.Decisions,
		Questions:     payload.Questions,
		People:        payload.People,
		Entities:      payload.Entities,
		TimeRefs:      payload.TimeRefs,
		Cleaned:       payload.CleanedTranscript,
		Raw:           rawTranscript,
		GeneratedDate: time.Now().Format("January 2, 2006"),
	}

	path := filepath.Join(outDir, CardFileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create card: %w", err)
	}
	defer f.Close()

	if err := cardTmpl.Execute(f, data); err != nil {
		return "", fmt.Errorf("render card: %w", err)
	}
	return path, nil
}

const cardTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<style>
  :root {
    --bg: #f6f7f9;
    --card-bg: #ffffff;
    --ink: #1f2933;
    --muted: #6b7280;
    --accent: #2563eb;
    --border: #e5e7eb;
  }
  * { box-sizing: border-box; }
  body {
    margin: 0;
    padding: 2rem 1rem;
    background: var(--bg);
    color: var(--ink);
    font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
    line-height: 1.6;
  }
  .card {
    max-width: 760px;
    margin: 0 auto;
    background: var(--card-bg);
    border: 1px solid var(--border);
    border-radius: 12px;
    padding: 2rem;
    box-shadow: 0 1px 3px rgba(0,0,0,0.08);
  }
  h1 { margin: 0 0 0.5rem; font-size: 1.6rem; }
  h2 {
    margin: 1.75rem 0 0.75rem;
    font-size: 1.05rem;
    text-transform: uppercase;
    letter-spacing: 0.05em;
    color: var(--muted);
    border-bottom: 1px solid var(--border);
    padding-bottom: 0.35rem;
  }
  .meta { color: var(--muted); font-size: 0.9rem; margin-bottom: 1rem; }
  .category {
    display: inline-block;
    background: #eff6ff;
    color: var(--accent);
    border-radius: 999px;
    padding: 0.15rem 0.75rem;
    font-size: 0.85rem;
    font-weight: 600;
  }
  .tag {
    display: inline-block;
    background: #f3f4f6;
    border-radius: 999px;
    padding: 0.1rem 0.65rem;
    margin: 0 0.25rem 0.25rem 0;
    font-size: 0.8rem;
    color: var(--muted);
  }
  ul { margin: 0.25rem 0; padding-left: 1.25rem; }
  li { margin: 0.3rem 0; }
  .priority {
    font-size: 0.75rem;
    font-weight: 600;
    border-radius: 4px;
    padding: 0.05rem 0.4rem;
    margin-left: 0.4rem;
  }
  .priority-high { background: #fee2e2; color: #b91c1c; }
  .priority-medium { background: #fef3c7; color: #b45309; }
  .priority-low { background: #dcfce7; color: #15803d; }
  .priority-none { display: none; }
  .due { color: var(--muted); font-size: 0.8rem; margin-left: 0.4rem; }
  .summary {
    background: #f9fafb;
    border-left: 3px solid var(--accent);
    padding: 0.75rem 1rem;
    border-radius: 0 8px 8px 0;
    margin: 1rem 0;
  }
  #transcript {
    white-space: pre-wrap;
    background: #f9fafb;
    border: 1px solid var(--border);
    border-radius: 8px;
    padding: 1rem;
    font-size: 0.95rem;
  }
  .toggle {
    background: none;
    border: 1px solid var(--border);
    border-radius: 6px;
    padding: 0.3rem 0.8rem;
    font-size: 0.8rem;
    color: var(--accent);
    cursor: pointer;
  }
  .toggle:hover { background: #eff6ff; }
  footer { margin-top: 2rem; color: var(--muted); font-size: 0.8rem; text-align: center; }
</style>
</head>
<body>
<div class="card">
  <h1>{{.Title}}</h1>
  <div class="meta"><span class="category">{{.Category}}</span></div>
{{- if .Tags}}
  <div class="tags">
{{- range .Tags}}
    <span class="tag">{{.}}</span>
{{- end}}
  </div>
{{- end}}
{{- if .SummaryShort}}
  <div class="summary">{{.SummaryShort}}</div>
{{- end}}
{{- if .KeyPoints}}
  <h2>Key Points</h2>
  <ul>
{{- range .KeyPoints}}
    <li>{{.}}</li>
{{- end}}
  </ul>
{{- end}}
{{- if .ActionItems}}
  <h2>Action Items</h2>
  <ul>
{{- range .ActionItems}}
    <li>{{.Description}}{{if .Priority}}<span class="priority {{priorityClass .Priority}}">{{priorityLabel .Priority}}</span>{{end}}{{if .Due}}<span class="due">Due: {{.Due}}</span>{{end}}</li>
{{- end}}
  </ul>
{{- end}}
{{- if .Decisions}}
  <h2>Decisions</h2>
  <ul>
{{- range .Decisions}}
    <li>{{.}}</li>
{{- end}}
  </ul>
{{- end}}
{{- if .Questions}}
  <h2>Open Questions</h2>
  <ul>
{{- range .Questions}}
    <li>{{.}}</li>
{{- end}}
  </ul>
{{- end}}
{{- if .People}}
  <h2>People</h2>
  <ul>
{{- range .People}}
    <li>{{.}}</li>
{{- end}}
  </ul>
{{- end}}
{{- if .Entities}}
  <h2>Entities</h2>
  <ul>
{{- range .Entities}}
    <li>{{.Text}}{{if .Type}} <span class="due">({{.Type}})</span>{{end}}</li>
{{- end}}
  </ul>
{{- end}}
{{- if .TimeRefs}}
  <h2>Time References</h2>
  <ul>
{{- range .TimeRefs}}
    <li>{{.Text}}{{if .Normalized}} <span class="due">{{.Normalized}}</span>{{end}}</li>
{{- end}}
  </ul>
{{- end}}
  <h2>Transcript</h2>
  <button class="toggle" id="toggle-btn" onclick="toggleTranscript()">Show raw transcript</button>
  <div id="transcript"></div>
  <footer>Generated {{.GeneratedDate}}</footer>
</div>
<script>
  var cleanedTranscript = {{jsString .Cleaned}};
  var rawTranscript = {{jsString .Raw}};
  var showingRaw = false;
  function renderTranscript() {
    document.getElementById("transcript").textContent = showingRaw ? rawTranscript : cleanedTranscript;
    document.getElementById("toggle-btn").textContent = showingRaw ? "Show cleaned transcript" : "Show raw transcript";
  }
  function toggleTranscript() {
    showingRaw = !showingRaw;
    renderTranscript();
  }
  renderTranscript();
</script>
</body>
</html>
`
