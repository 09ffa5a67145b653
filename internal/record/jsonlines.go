package record

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// maxLineSize bounds a single JSON-lines record (Lambda caps a log event at 256 KiB).
const maxLineSize = 1 << 20

type jsonRecord struct {
	Type   string `json:"type"`
	Time   string `json:"time"`
	Record string `json:"record"`
}

// MarshalJSON encodes the record in the replay format.
func (r LogRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonRecord{
		Type:   r.logType.String(),
		Time:   r.Timestamp(),
		Record: r.payload,
	})
}

// UnmarshalJSON decodes the replay format. A missing type defaults to FUNCTION.
func (r *LogRecord) UnmarshalJSON(data []byte) error {
	var raw jsonRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	logType := TypeFunction
	if raw.Type != "" {
		t, err := ParseLogType(raw.Type)
		if err != nil {
			return err
		}
		logType = t
	}

	t, err := ParseTime(raw.Time)
	if err != nil {
		return err
	}

	*r = New(logType, t, raw.Record)
	return nil
}

// ReadJSONLines decodes one record per non-blank line of rd.
func ReadJSONLines(rd io.Reader) ([]LogRecord, error) {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records []LogRecord
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var r LogRecord
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	return records, nil
}
