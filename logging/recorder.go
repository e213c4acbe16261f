package logging

import (
	"sync"
)

// Recorder is a Logger that keeps entries in memory for assertions in
// tests. Loggers derived with WithField/WithError share the same entries.
type Recorder struct {
	mu      *sync.Mutex
	entries *[]LogEntry
	err     error
	fields  []Field
}

// LogEntry represents a single log entry captured by Recorder.
type LogEntry struct {
	Level   string
	Message string
	Fields  []Field
	Error   error
}

func NewRecorder() *Recorder {
	return &Recorder{mu: &sync.Mutex{}, entries: &[]LogEntry{}}
}

func (r *Recorder) record(level, msg string, fields []Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := append(append([]Field{}, r.fields...), fields...)
	*r.entries = append(*r.entries, LogEntry{Level: level, Message: msg, Fields: all, Error: r.err})
}

func (r *Recorder) Debug(msg string, fields ...Field) { r.record("DEBUG", msg, fields) }
func (r *Recorder) Info(msg string, fields ...Field)  { r.record("INFO", msg, fields) }
func (r *Recorder) Warn(msg string, fields ...Field)  { r.record("WARN", msg, fields) }
func (r *Recorder) Error(msg string, fields ...Field) { r.record("ERROR", msg, fields) }

func (r *Recorder) WithError(err error) Logger {
	return &Recorder{mu: r.mu, entries: r.entries, err: err, fields: r.fields}
}

func (r *Recorder) WithField(key string, value interface{}) Logger {
	return r.WithFields(Field{Key: key, Value: value})
}

func (r *Recorder) WithFields(fields ...Field) Logger {
	all := append(append([]Field{}, r.fields...), fields...)
	return &Recorder{mu: r.mu, entries: r.entries, err: r.err, fields: all}
}

// Entries returns a copy of everything logged so far.
func (r *Recorder) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogEntry(nil), *r.entries...)
}

// HasEntry reports whether a message was logged at level.
func (r *Recorder) HasEntry(level, msg string) bool {
	for _, e := range r.Entries() {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}
