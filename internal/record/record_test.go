package record

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_NormalizesTime(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	ts := time.Date(2020, 5, 22, 12, 20, 30, 123456789, loc)

	r := New(TypeStart, ts, "Log Message A")

	assert.Equal(t, TypeStart, r.Type())
	assert.Equal(t, "Log Message A", r.Payload())
	assert.Equal(t, time.UTC, r.Time().Location())
	assert.Equal(t, time.Date(2020, 5, 22, 10, 20, 30, 123456000, time.UTC), r.Time())
}

func TestNew_ValueEquality(t *testing.T) {
	ts := time.Date(2020, 5, 22, 10, 20, 30, 0, time.UTC)
	assert.Equal(t, New(TypeEnd, ts, "a"), New(TypeEnd, ts, "a"))
	assert.NotEqual(t, New(TypeEnd, ts, "a"), New(TypeEnd, ts, "b"))
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
		want string
	}{
		{
			name: "with microseconds",
			time: time.Date(2020, 5, 22, 10, 20, 30, 123456000, time.UTC),
			want: "2020-05-22T10:20:30.123456",
		},
		{
			name: "leading zero microseconds",
			time: time.Date(2020, 5, 22, 10, 20, 30, 1000, time.UTC),
			want: "2020-05-22T10:20:30.000001",
		},
		{
			name: "whole second omits fraction",
			time: time.Date(2020, 5, 22, 10, 20, 30, 0, time.UTC),
			want: "2020-05-22T10:20:30",
		},
		{
			name: "sub-microsecond only omits fraction",
			time: time.Date(2020, 5, 22, 10, 20, 30, 999, time.UTC),
			want: "2020-05-22T10:20:30",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTime(tt.time))
		})
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2020, 5, 22, 10, 20, 30, 123456000, time.UTC)

	for _, in := range []string{
		"2020-05-22T10:20:30.123456",
		"2020-05-22T10:20:30.123456Z",
		"2020-05-22T12:20:30.123456+02:00",
	} {
		got, err := ParseTime(in)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s parsed as %s", in, got)
	}

	_, err := ParseTime("yesterday")
	assert.Error(t, err)
}

func TestParseLogType(t *testing.T) {
	lt, err := ParseLogType("report")
	require.NoError(t, err)
	assert.Equal(t, TypeReport, lt)

	_, err = ParseLogType("DEBUG")
	assert.Error(t, err)
}

func TestMinTime(t *testing.T) {
	t1 := time.Date(2020, 5, 22, 10, 20, 35, 0, time.UTC)
	t2 := time.Date(2020, 5, 22, 10, 20, 30, 5000, time.UTC)
	t3 := time.Date(2020, 5, 22, 10, 21, 0, 0, time.UTC)

	records := []LogRecord{
		New(TypeFunction, t1, "b"),
		New(TypeStart, t2, "a"),
		New(TypeEnd, t3, "c"),
	}

	assert.Equal(t, t2, MinTime(records))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		line string
		want LogType
	}{
		{"START RequestId: 8f507cfc Version: $LATEST", TypeStart},
		{"END RequestId: 8f507cfc", TypeEnd},
		{"REPORT RequestId: 8f507cfc\tDuration: 2.26 ms", TypeReport},
		{"INIT_START Runtime Version: python:3.9.v16", TypePlatform},
		{"EXTENSION\tName: shipper\tState: Ready", TypeExtension},
		{"2020-05-22T10:20:30.123Z\t8f507cfc\tINFO\thello", TypeFunction},
		{"", TypeFunction},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.line), tt.line)
	}
}

func TestLogRecord_JSON(t *testing.T) {
	ts := time.Date(2020, 5, 22, 10, 20, 30, 123456000, time.UTC)
	r := New(TypeStart, ts, "Log Message A")

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"START","time":"2020-05-22T10:20:30.123456","record":"Log Message A"}`, string(data))

	var decoded LogRecord
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, r, decoded)
}

func TestLogRecord_UnmarshalDefaults(t *testing.T) {
	var r LogRecord
	require.NoError(t, json.Unmarshal([]byte(`{"time":"2020-05-22T10:20:30","record":"x"}`), &r))
	assert.Equal(t, TypeFunction, r.Type())

	err := json.Unmarshal([]byte(`{"type":"BOGUS","time":"2020-05-22T10:20:30","record":"x"}`), &r)
	assert.Error(t, err)

	err = json.Unmarshal([]byte(`{"type":"START","time":"","record":"x"}`), &r)
	assert.Error(t, err)
}

func TestReadJSONLines(t *testing.T) {
	input := strings.Join([]string{
		`{"type":"START","time":"2020-05-22T10:20:30.123456","record":"Log Message A"}`,
		``,
		`{"type":"FUNCTION","time":"2020-05-22T10:20:31","record":"Message B"}`,
	}, "\n")

	records, err := ReadJSONLines(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, TypeStart, records[0].Type())
	assert.Equal(t, "Message B", records[1].Payload())

	_, err = ReadJSONLines(strings.NewReader("{\"type\":\"START\"}\nnot json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}
