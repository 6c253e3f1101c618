// Package logging writes application events as one JSON object per line.
package logging

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Logger is safe for concurrent use. A nil *Logger discards everything.
type Logger struct {
	mu  sync.Mutex
	w   io.Writer
	loc *time.Location
}

// New returns a Logger writing to w with timestamps in loc (UTC when nil).
func New(w io.Writer, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{w: w, loc: loc}
}

// Location returns the timezone used for the ts field.
func (l *Logger) Location() *time.Location {
	if l == nil {
		return time.UTC
	}
	return l.loc
}

// Info logs msg with optional fields.
func (l *Logger) Info(msg string, fields map[string]any) {
	l.write("info", msg, fields)
}

// Warn logs msg with optional fields.
func (l *Logger) Warn(msg string, fields map[string]any) {
	l.write("warn", msg, fields)
}

// Error logs msg and err with optional fields.
func (l *Logger) Error(msg string, err error, fields map[string]any) {
	if fields == nil {
		fields = map[string]any{}
	}
	if err != nil {
		fields["error"] = err.Error()
	}
	l.write("error", msg, fields)
}

func (l *Logger) write(level, msg string, fields map[string]any) {
	if l == nil {
		return
	}
	entry := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		entry[k] = v
	}
	entry["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	entry["level"] = level
	entry["msg"] = msg

	b, err := json.Marshal(entry)
	if err != nil {
		b, _ = json.Marshal(map[string]any{"level": "error", "msg": "log_marshal_failed", "error": err.Error()})
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.w.Write(append(b, '\n'))
}
