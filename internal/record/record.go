// Package record defines the log records handed to the delivery sinks.
package record

import (
	"fmt"
	"strings"
	"time"
)

// LogType tags the origin of a log line within a function invocation.
type LogType string

const (
	TypeStart     LogType = "START"
	TypeEnd       LogType = "END"
	TypeReport    LogType = "REPORT"
	TypeFunction  LogType = "FUNCTION"
	TypePlatform  LogType = "PLATFORM"
	TypeExtension LogType = "EXTENSION"
)

var knownTypes = map[LogType]struct{}{
	TypeStart:     {},
	TypeEnd:       {},
	TypeReport:    {},
	TypeFunction:  {},
	TypePlatform:  {},
	TypeExtension: {},
}

func (t LogType) String() string {
	return string(t)
}

// ParseLogType converts a type name (case-insensitive) to a LogType.
func ParseLogType(s string) (LogType, error) {
	t := LogType(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := knownTypes[t]; !ok {
		return "", fmt.Errorf("unknown log type %q", s)
	}
	return t, nil
}

const (
	isoLayout      = "2006-01-02T15:04:05"
	isoMicroLayout = "2006-01-02T15:04:05.000000"
)

// LogRecord is one log line of an invocation. It is immutable once built.
type LogRecord struct {
	logType LogType
	logTime time.Time
	payload string
}

// New builds a LogRecord. The timestamp is normalized to UTC and truncated
// to microsecond precision.
func New(logType LogType, logTime time.Time, payload string) LogRecord {
	return LogRecord{
		logType: logType,
		logTime: logTime.UTC().Truncate(time.Microsecond),
		payload: payload,
	}
}

func (r LogRecord) Type() LogType {
	return r.logType
}

func (r LogRecord) Time() time.Time {
	return r.logTime
}

func (r LogRecord) Payload() string {
	return r.payload
}

// Timestamp renders the record time as a zone-less ISO-8601 string.
func (r LogRecord) Timestamp() string {
	return FormatTime(r.logTime)
}

// FormatTime renders t as YYYY-MM-DDTHH:MM:SS[.ffffff]. The fraction is
// omitted when the microsecond component is zero.
func FormatTime(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(isoLayout)
	}
	return t.Format(isoMicroLayout)
}

// ParseTime accepts RFC 3339 timestamps and zone-less ISO-8601 timestamps
// with an optional fractional second. Zone-less values are taken as UTC.
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation(isoLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// MinTime returns the earliest record time. It panics on an empty slice.
func MinTime(records []LogRecord) time.Time {
	minTime := records[0].logTime
	for _, r := range records[1:] {
		if r.logTime.Before(minTime) {
			minTime = r.logTime
		}
	}
	return minTime
}
