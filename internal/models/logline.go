package models

import "time"

// LogLevel is one of the three severities a log line may carry.
type LogLevel string

const (
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARNING"
	LogLevelError   LogLevel = "ERROR"
)

func (l LogLevel) Valid() bool {
	switch l {
	case LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	}
	return false
}

// CentralSource is the reserved source name used by the coordinator
// itself, as opposed to a camera's stable name.
const CentralSource = "central"

// LogLine is an append-only diagnostic record from any component.
// IDs are assigned by the Store and increase monotonically within a
// source in insertion order.
type LogLine struct {
	ID        int64     `db:"id"`
	Source    string    `db:"source"`
	Timestamp time.Time `db:"line_timestamp"`
	Level     LogLevel  `db:"level"`
	Message   string    `db:"message"`
}
