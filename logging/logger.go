/*
Package logging is the structured logger every ledger engine package
writes through.

PURPOSE:
  The processor logs each committed or rejected command, the stores log
  opens and migrations, the API logs one line per request and the
  assistant logs model failures. All of them take a Logger so tests can
  swap in a Recorder and binaries can pick text or JSON output.

FIELDS:
  Keys are the Field* constants in constants.go (operation,
  transaction_id, account, person, ...), so one grep over the JSON output
  follows a transaction from request to commit.

SEE ALSO:
  - logrus_adapter.go: Production implementation
  - recorder.go: In-memory implementation for tests
*/
package logging

// Logger is a leveled logger carrying structured fields. Derived loggers
// (WithField, WithFields, WithError) add context and never modify their
// parent.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	WithError(err error) Logger
	WithField(key string, value interface{}) Logger
	WithFields(fields ...Field) Logger
}

// Field is one key/value pair attached to a log line.
type Field struct {
	Key   string
	Value interface{}
}

func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}
