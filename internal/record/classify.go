package record

import "strings"

var platformPrefixes = []string{
	"INIT_START",
	"INIT_REPORT",
	"INIT_RUNTIME_DONE",
	"RESTORE_START",
	"RESTORE_REPORT",
	"TELEMETRY",
	"XRAY TraceId:",
}

// Classify derives the LogType of a raw Lambda log line.
func Classify(line string) LogType {
	switch {
	case strings.HasPrefix(line, "START RequestId:"):
		return TypeStart
	case strings.HasPrefix(line, "END RequestId:"):
		return TypeEnd
	case strings.HasPrefix(line, "REPORT RequestId:"):
		return TypeReport
	case strings.HasPrefix(line, "EXTENSION"):
		return TypeExtension
	}
	for _, prefix := range platformPrefixes {
		if strings.HasPrefix(line, prefix) {
			return TypePlatform
		}
	}
	return TypeFunction
}
