package logging

import "log/slog"

// Common field names for consistent logging across the shipper.
const (
	FieldService      = "service"
	FieldInvocationID = "invocation_id"
	FieldSink         = "sink"
	FieldRecords      = "records"
	FieldIndex        = "index"
	FieldBucket       = "bucket"
	FieldKey          = "key"
	FieldStatus       = "status"
	FieldReason       = "reason"
	FieldDuration     = "duration_ms"
	FieldError        = "error"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Sink returns a slog attribute naming the delivery sink.
func Sink(name string) slog.Attr {
	return slog.String(FieldSink, name)
}

// Records returns a slog attribute for a record count.
func Records(n int) slog.Attr {
	return slog.Int(FieldRecords, n)
}

// Index returns a slog attribute for a search index name.
func Index(name string) slog.Attr {
	return slog.String(FieldIndex, name)
}

// Bucket returns a slog attribute for an object storage bucket.
func Bucket(name string) slog.Attr {
	return slog.String(FieldBucket, name)
}

// Key returns a slog attribute for an object key.
func Key(key string) slog.Attr {
	return slog.String(FieldKey, key)
}

// Status returns a slog attribute for the HTTP status code.
func Status(code int) slog.Attr {
	return slog.Int(FieldStatus, code)
}

// Reason returns a slog attribute classifying a delivery failure.
func Reason(reason string) slog.Attr {
	return slog.String(FieldReason, reason)
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
