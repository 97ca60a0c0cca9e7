package logging

// LogEntry represents a structured log record with fields relevant to
// long-running optimization runs.
type LogEntry struct {
	// Standard fields
	Time     int64
	Severity Severity
	Message  string
	File     string
	Line     int
	Function string

	// Run-specific fields
	RunID      string // Identifier of the evolution/swarm run emitting the entry
	Generation int    // Generation or iteration counter, -1 when not applicable

	// General structured data
	Fields map[string]interface{}
}
