// Package shipper connects Lambda log deliveries to the search and archive
// sinks.
package shipper

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/telhawk-systems/lambda-log-shipper/internal/client"
	"github.com/telhawk-systems/lambda-log-shipper/internal/config"
	"github.com/telhawk-systems/lambda-log-shipper/internal/logging"
	"github.com/telhawk-systems/lambda-log-shipper/internal/metrics"
	"github.com/telhawk-systems/lambda-log-shipper/internal/record"
	"github.com/telhawk-systems/lambda-log-shipper/internal/sink"
)

const (
	controlMessage    = "CONTROL_MESSAGE"
	lambdaGroupPrefix = "/aws/lambda/"
)

// S3Factory builds the object store client for the archive sink.
type S3Factory func(ctx context.Context, cfg config.ArchiveConfig) (sink.ObjectPutter, error)

type Shipper struct {
	configPath string
	logger     *logging.Logger
	newS3      S3Factory
	gatherer   prometheus.Gatherer
	instance   string
}

// New returns a shipper that reloads its configuration from the environment
// (and configPath, when set) on every delivery. Metrics pushed by one shipper
// share an instance label, so a warm container keeps replacing its own group.
func New(configPath string, logger *logging.Logger) *Shipper {
	if logger == nil {
		logger = logging.Default()
	}
	return &Shipper{
		configPath: configPath,
		logger:     logger,
		newS3:      defaultS3Factory,
		gatherer:   prometheus.DefaultGatherer,
		instance:   uuid.NewString(),
	}
}

// WithS3Factory replaces the S3 client constructor.
func (s *Shipper) WithS3Factory(f S3Factory) *Shipper {
	s.newS3 = f
	return s
}

func defaultS3Factory(ctx context.Context, cfg config.ArchiveConfig) (sink.ObjectPutter, error) {
	return client.NewS3Client(ctx, cfg)
}

// Ship delivers one batch through the search sink, falling back to the
// archive. It reports whether the batch was handled.
func (s *Shipper) Ship(ctx context.Context, records []record.LogRecord) (bool, error) {
	if len(records) == 0 {
		return false, nil
	}

	cfg, err := config.Load(s.configPath)
	if err != nil {
		return false, fmt.Errorf("failed to load config: %w", err)
	}
	return s.deliver(ctx, cfg, records)
}

func (s *Shipper) deliver(ctx context.Context, cfg *config.Config, records []record.LogRecord) (bool, error) {
	ctx = logging.WithInvocationID(ctx, requestID(ctx))
	start := time.Now()
	defer s.pushMetrics(ctx, cfg)

	archive := s.buildArchive(ctx, cfg)
	search := sink.NewSearch(cfg, client.NewHTTPClient(cfg.Search), archive, s.logger)
	handled, err := search.Handle(ctx, records)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to ship logs",
			logging.Records(len(records)),
			logging.Error(err),
		)
		return handled, err
	}

	s.logger.DebugContext(ctx, "Shipped logs",
		logging.Records(len(records)),
		logging.Duration(time.Since(start).Milliseconds()),
	)
	return handled, nil
}

// buildArchive never fails: without a usable S3 client the archive is
// disabled and the search endpoint still gets the batch.
func (s *Shipper) buildArchive(ctx context.Context, cfg *config.Config) *sink.Archive {
	if !cfg.Archive.Enabled() {
		return sink.NewArchive(nil, "", s.logger)
	}

	s3Client, err := s.newS3(ctx, cfg.Archive)
	if err != nil {
		s.logger.WarnContext(ctx, "Archive disabled, failed to create s3 client",
			logging.Bucket(cfg.Archive.BucketName()),
			logging.Error(err),
		)
		return sink.NewArchive(nil, "", s.logger)
	}
	return sink.NewArchive(s3Client, cfg.Archive.BucketName(), s.logger)
}

func (s *Shipper) pushMetrics(ctx context.Context, cfg *config.Config) {
	if cfg.Metrics.PushgatewayURL == "" {
		return
	}
	grouping := map[string]string{
		"function": cfg.FunctionName,
		"instance": s.instance,
	}
	if err := metrics.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, s.gatherer, grouping); err != nil {
		s.logger.WarnContext(ctx, "Failed to push metrics", logging.Error(err))
	}
}

// HandleCloudwatchLogs is the Lambda handler for CloudWatch Logs
// subscription deliveries.
func (s *Shipper) HandleCloudwatchLogs(ctx context.Context, event events.CloudwatchLogsEvent) error {
	data, err := event.AWSLogs.Parse()
	if err != nil {
		return fmt.Errorf("failed to decode cloudwatch logs payload: %w", err)
	}
	if data.MessageType == controlMessage {
		return nil
	}

	records := FromCloudwatch(data)
	if len(records) == 0 {
		return nil
	}

	cfg, err := config.Load(s.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	// The runtime environment names the shipper itself; the subscription
	// names the function whose logs these are.
	if fn := FunctionFromLogGroup(data.LogGroup); fn != "" {
		cfg.FunctionName = fn
		cfg.LogStreamName = data.LogStream
	} else if cfg.LogStreamName == "" {
		cfg.LogStreamName = data.LogStream
	}

	_, err = s.deliver(ctx, cfg, records)
	return err
}

// FromCloudwatch converts subscription log events into records.
func FromCloudwatch(data events.CloudwatchLogsData) []record.LogRecord {
	records := make([]record.LogRecord, 0, len(data.LogEvents))
	for _, e := range data.LogEvents {
		msg := strings.TrimRight(e.Message, "\r\n")
		records = append(records, record.New(
			record.Classify(msg),
			time.UnixMilli(e.Timestamp),
			msg,
		))
	}
	return records
}

// FunctionFromLogGroup extracts NAME from a /aws/lambda/NAME log group.
func FunctionFromLogGroup(group string) string {
	name, ok := strings.CutPrefix(group, lambdaGroupPrefix)
	if !ok {
		return ""
	}
	return name
}

// ReadRecords decodes JSON-lines replay input.
func ReadRecords(r io.Reader) ([]record.LogRecord, error) {
	return record.ReadJSONLines(r)
}

func requestID(ctx context.Context) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		return lc.AwsRequestID
	}
	return ""
}
