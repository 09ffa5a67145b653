package sink

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/lambda-log-shipper/internal/logging"
	"github.com/telhawk-systems/lambda-log-shipper/internal/record"
)

type putCall struct {
	bucket      string
	key         string
	contentType string
	body        string
}

// fakePutter records PutObject calls in place of an S3 client.
type fakePutter struct {
	calls []putCall
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	f.calls = append(f.calls, putCall{
		bucket:      aws.ToString(params.Bucket),
		key:         aws.ToString(params.Key),
		contentType: aws.ToString(params.ContentType),
		body:        string(body),
	})
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func fixedRandom(values ...float64) func() float64 {
	i := 0
	return func() float64 {
		v := values[i%len(values)]
		i++
		return v
	}
}

func TestArchive_EmptyRecords(t *testing.T) {
	putter := &fakePutter{}
	archive := NewArchive(putter, "bucket", logging.Discard())

	ok, err := archive.Handle(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = archive.Handle(context.Background(), []record.LogRecord{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, putter.calls)
}

func TestArchive_NoBucketConfigured(t *testing.T) {
	putter := &fakePutter{}
	archive := NewArchive(putter, "", logging.Discard())

	r := record.New(record.TypeStart, time.Date(2020, 5, 22, 10, 20, 30, 0, time.UTC), "a")
	ok, err := archive.Handle(context.Background(), []record.LogRecord{r})

	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, archive.Enabled())
	assert.Empty(t, putter.calls)
}

func TestArchive_NilArchiveIsDisabled(t *testing.T) {
	var archive *Archive
	assert.False(t, archive.Enabled())

	ok, err := archive.Handle(context.Background(), []record.LogRecord{
		record.New(record.TypeStart, time.Now(), "a"),
	})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArchiveKey(t *testing.T) {
	t1 := time.Date(2020, 5, 22, 10, 20, 35, 0, time.UTC)
	t2 := time.Date(2020, 5, 22, 10, 20, 30, 123456000, time.UTC)
	records := []record.LogRecord{
		record.New(record.TypeFunction, t1, "later"),
		record.New(record.TypeStart, t2, "earlier"),
	}

	assert.Equal(t, "logs/2020/5/22/10:20:30:123456-0.25", ArchiveKey(records, 0.25))
	assert.Equal(t, "logs/2020/5/22/10:20:30:123456-0.5488135039273248", ArchiveKey(records, 0.5488135039273248))
}

func TestArchiveKey_UnpaddedComponents(t *testing.T) {
	ts := time.Date(2021, 1, 2, 3, 4, 5, 6000, time.UTC)
	records := []record.LogRecord{record.New(record.TypeEnd, ts, "x")}

	assert.Equal(t, "logs/2021/1/2/3:4:5:6-0", ArchiveKey(records, 0))
}

func TestArchive_KeysDifferOnlyInSuffix(t *testing.T) {
	putter := &fakePutter{}
	archive := NewArchive(putter, "bucket", logging.Discard())

	records := []record.LogRecord{
		record.New(record.TypeStart, time.Date(2020, 5, 22, 10, 20, 30, 123456000, time.UTC), "a"),
	}

	for i := 0; i < 2; i++ {
		ok, err := archive.Handle(context.Background(), records)
		require.NoError(t, err)
		require.True(t, ok)
	}

	require.Len(t, putter.calls, 2)
	first, second := putter.calls[0].key, putter.calls[1].key
	prefix := "logs/2020/5/22/10:20:30:123456-"
	assert.True(t, strings.HasPrefix(first, prefix), first)
	assert.True(t, strings.HasPrefix(second, prefix), second)
	assert.NotEqual(t, first, second)
	assert.Equal(t, putter.calls[0].body, putter.calls[1].body)
}

func TestFormatLine(t *testing.T) {
	r := record.New(record.TypeStart, time.Date(2020, 5, 22, 10, 20, 30, 123456000, time.UTC), "a")
	assert.Equal(t, "2020-05-22T10:20:30.123456    START     a", FormatLine(r))
}

func TestFormatLine_PayloadVerbatim(t *testing.T) {
	payload := "  {\"level\":\"info\"}\ttab \\n literal"
	r := record.New(record.TypeFunction, time.Date(2020, 5, 22, 10, 20, 30, 0, time.UTC), payload)

	line := FormatLine(r)
	assert.Equal(t, "2020-05-22T10:20:30           FUNCTION  "+payload, line)
}

func TestFormatLine_LongTypeOverflows(t *testing.T) {
	r := record.New(record.TypeExtension, time.Date(2020, 5, 22, 10, 20, 30, 1000, time.UTC), "x")
	// EXTENSION is 9 characters: one space of padding remains.
	assert.Equal(t, "2020-05-22T10:20:30.000001    EXTENSION x", FormatLine(r))
}

func TestFormatArchive(t *testing.T) {
	ts := time.Date(2020, 5, 22, 10, 20, 30, 123456000, time.UTC)
	records := []record.LogRecord{
		record.New(record.TypeStart, ts, "Log Message A"),
		record.New(record.TypeFunction, ts, "Message B"),
	}

	want := "2020-05-22T10:20:30.123456    START     Log Message A\n" +
		"2020-05-22T10:20:30.123456    FUNCTION  Message B"
	assert.Equal(t, want, string(FormatArchive(records)))
}

func TestFormatArchive_Idempotent(t *testing.T) {
	faker := gofakeit.New(42)
	records := make([]record.LogRecord, 20)
	for i := range records {
		records[i] = record.New(record.TypeFunction, faker.Date(), faker.Sentence(8))
	}

	assert.Equal(t, FormatArchive(records), FormatArchive(records))
}

func TestArchive_Handle(t *testing.T) {
	putter := &fakePutter{}
	archive := NewArchive(putter, "log-archive", logging.Discard())
	archive.random = fixedRandom(0.125)

	ts := time.Date(2020, 5, 22, 10, 20, 30, 123456000, time.UTC)
	records := []record.LogRecord{record.New(record.TypeStart, ts, "a")}

	ok, err := archive.Handle(context.Background(), records)
	require.NoError(t, err)
	assert.True(t, ok)

	require.Len(t, putter.calls, 1)
	call := putter.calls[0]
	assert.Equal(t, "log-archive", call.bucket)
	assert.Equal(t, "logs/2020/5/22/10:20:30:123456-0.125", call.key)
	assert.Equal(t, archiveContentType, call.contentType)
	assert.Equal(t, "2020-05-22T10:20:30.123456    START     a", call.body)
}

func TestArchive_WriteFailurePropagates(t *testing.T) {
	storageErr := errors.New("AccessDenied")
	putter := &fakePutter{err: storageErr}
	archive := NewArchive(putter, "log-archive", logging.Discard())
	archive.random = fixedRandom(0.5)

	records := []record.LogRecord{
		record.New(record.TypeStart, time.Date(2020, 5, 22, 10, 20, 30, 0, time.UTC), "a"),
	}

	ok, err := archive.Handle(context.Background(), records)
	require.Error(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrArchive)
	assert.ErrorIs(t, err, storageErr)

	var archiveErr *ArchiveError
	require.ErrorAs(t, err, &archiveErr)
	assert.Equal(t, "log-archive", archiveErr.Bucket)
	assert.Equal(t, "logs/2020/5/22/10:20:30:0-0.5", archiveErr.Key)
}
