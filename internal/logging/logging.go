// Package logging writes one JSON object per line to stdout, matching the
// log shape used by the database migration and the HTTP request logger.
package logging

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"time"
)

// Logger emits structured JSON log lines for one component.
type Logger struct {
	component string
	out       io.Writer
}

// New returns a Logger for the named component, writing to stdout.
func New(component string) *Logger {
	return &Logger{component: component, out: os.Stdout}
}

// NewWithWriter returns a Logger writing to w; used by tests.
func NewWithWriter(component string, w io.Writer) *Logger {
	return &Logger{component: component, out: w}
}

// Info logs an event at info level with optional extra fields.
func (l *Logger) Info(event string, fields map[string]any) {
	l.write("info", event, fields)
}

// Error logs an event at error level, attaching the error message.
func (l *Logger) Error(event string, err error, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	if err != nil {
		fields["error_message"] = err.Error()
	}
	l.write("error", event, fields)
}

func (l *Logger) write(level, event string, fields map[string]any) {
	entry := map[string]any{
		"ts":        time.Now().UTC().Format(time.RFC3339Nano),
		"level":     level,
		"component": l.component,
		"event":     event,
	}
	for k, v := range fields {
		entry[k] = v
	}

	b, err := json.Marshal(entry)
	if err != nil {
		log.Printf("failed to marshal log entry: %v", err)
		return
	}
	if _, err := l.out.Write(append(b, '\n')); err != nil {
		log.Printf("failed to write log entry: %v", err)
	}
}
