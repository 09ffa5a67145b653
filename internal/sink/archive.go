package sink

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/telhawk-systems/lambda-log-shipper/internal/logging"
	"github.com/telhawk-systems/lambda-log-shipper/internal/metrics"
	"github.com/telhawk-systems/lambda-log-shipper/internal/record"
)

const (
	timePadding = 30
	typePadding = 10

	archiveKeyPrefix   = "logs"
	archiveContentType = "text/plain; charset=utf-8"
)

// ObjectPutter is the part of the S3 API the archive needs. *s3.Client satisfies it.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive writes a batch as one plain-text object per call. It is the
// terminal sink: its own failures are returned, never redirected.
type Archive struct {
	client ObjectPutter
	bucket string
	logger *logging.Logger
	random func() float64
}

// NewArchive returns an archive writing to bucket. An empty bucket disables it.
func NewArchive(client ObjectPutter, bucket string, logger *logging.Logger) *Archive {
	if logger == nil {
		logger = logging.Default()
	}
	return &Archive{
		client: client,
		bucket: bucket,
		logger: logger.With(logging.Sink(metrics.SinkArchive)),
		random: rand.Float64,
	}
}

// Enabled reports whether a bucket is configured.
func (a *Archive) Enabled() bool {
	return a != nil && a.bucket != "" && a.client != nil
}

func (a *Archive) Handle(ctx context.Context, records []record.LogRecord) (bool, error) {
	if len(records) == 0 || !a.Enabled() {
		return false, nil
	}

	log := a.logger.WithContext(ctx)
	log.Debug("Archive sink started")

	key := ArchiveKey(records, a.random())
	body := FormatArchive(records)

	start := time.Now()
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(archiveContentType),
	})
	metrics.DeliveryDuration.WithLabelValues(metrics.SinkArchive).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RecordsTotal.WithLabelValues(metrics.SinkArchive, "failed").Add(float64(len(records)))
		return false, &ArchiveError{Bucket: a.bucket, Key: key, Err: err}
	}

	metrics.RecordsTotal.WithLabelValues(metrics.SinkArchive, "delivered").Add(float64(len(records)))
	metrics.PayloadBytesTotal.WithLabelValues(metrics.SinkArchive).Add(float64(len(body)))
	log.Info("Archive sink stored logs",
		logging.Records(len(records)),
		logging.Bucket(a.bucket),
		logging.Key(key),
	)
	return true, nil
}

// ArchiveKey derives the object key from the earliest record time:
// logs/{year}/{month}/{day}/{hour}:{minute}:{second}:{microsecond}-{suffix}.
// Components are unpadded; suffix keeps concurrent invocations apart.
func ArchiveKey(records []record.LogRecord, suffix float64) string {
	t := record.MinTime(records)
	return fmt.Sprintf("%s/%d/%d/%d/%d:%d:%d:%d-%s",
		archiveKeyPrefix,
		t.Year(), int(t.Month()), t.Day(),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/int(time.Microsecond),
		strconv.FormatFloat(suffix, 'f', -1, 64),
	)
}

// FormatArchive renders records one per line, newline separated, without a
// trailing newline.
func FormatArchive(records []record.LogRecord) []byte {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = FormatLine(r)
	}
	return []byte(strings.Join(lines, "\n"))
}

// FormatLine pads the timestamp and type name into fixed columns and appends
// the payload verbatim. Longer values overflow their column.
func FormatLine(r record.LogRecord) string {
	return fmt.Sprintf("%-*s%-*s%s", timePadding, r.Timestamp(), typePadding, r.Type().String(), r.Payload())
}
