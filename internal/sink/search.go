package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/telhawk-systems/lambda-log-shipper/internal/config"
	"github.com/telhawk-systems/lambda-log-shipper/internal/logging"
	"github.com/telhawk-systems/lambda-log-shipper/internal/metrics"
	"github.com/telhawk-systems/lambda-log-shipper/internal/record"
)

const (
	indexPrefix      = "lambda"
	unknownLogStream = "unknown_log_stream"
	unknownFunction  = "unknown_function"

	// IndexPattern matches every index the search sink writes to.
	IndexPattern = indexPrefix + "-*"

	maxErrorBody = 1024
)

// Search posts records to a search endpoint as a bulk-style JSON array and
// hands them to its fallback sink when the endpoint cannot take them.
type Search struct {
	cfg        *config.Config
	httpClient *http.Client
	fallback   Sink
	logger     *logging.Logger
	now        func() time.Time
}

// NewSearch builds the search sink. fallback receives the unmodified batch on
// any delivery failure; it may be nil.
func NewSearch(cfg *config.Config, httpClient *http.Client, fallback Sink, logger *logging.Logger) *Search {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Search{
		cfg:        cfg,
		httpClient: httpClient,
		fallback:   fallback,
		logger:     logger.With(logging.Sink(metrics.SinkSearch)),
		now:        time.Now,
	}
}

// Handle returns true whenever the batch was non-empty, even when it went to
// the fallback. An error from the fallback is returned as-is.
func (s *Search) Handle(ctx context.Context, records []record.LogRecord) (bool, error) {
	if len(records) == 0 {
		return false, nil
	}

	log := s.logger.WithContext(ctx)
	log.Debug("Search sink started")

	index := IndexName(s.cfg.FunctionName, s.now())
	logStream := s.cfg.LogStreamName
	if logStream == "" {
		logStream = unknownLogStream
	}

	data, err := FormatBulk(records, index, logStream)
	if err != nil {
		return false, fmt.Errorf("format bulk payload: %w", err)
	}

	start := time.Now()
	err = s.send(ctx, data)
	metrics.DeliveryDuration.WithLabelValues(metrics.SinkSearch).Observe(time.Since(start).Seconds())
	if err == nil {
		metrics.RecordsTotal.WithLabelValues(metrics.SinkSearch, "delivered").Add(float64(len(records)))
		metrics.PayloadBytesTotal.WithLabelValues(metrics.SinkSearch).Add(float64(len(data)))
		log.Info("Search sink indexed logs", logging.Records(len(records)), logging.Index(index))
		return true, nil
	}

	reason := failureReason(err)
	if reason == "" {
		return false, err
	}

	metrics.RecordsTotal.WithLabelValues(metrics.SinkSearch, "failed").Add(float64(len(records)))
	metrics.FallbacksTotal.WithLabelValues(reason).Inc()
	attrs := []any{logging.Error(err), logging.Reason(reason), logging.Records(len(records))}
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		attrs = append(attrs, logging.Status(rejected.StatusCode))
	}
	log.Error("Error sending logs to search endpoint", attrs...)

	if s.fallback == nil {
		log.Warn("No fallback sink, dropping logs", logging.Records(len(records)))
		metrics.RecordsTotal.WithLabelValues(metrics.SinkSearch, "dropped").Add(float64(len(records)))
		return true, nil
	}

	handled, err := s.fallback.Handle(ctx, records)
	if err != nil {
		return true, err
	}
	if !handled {
		log.Warn("Fallback sink disabled, dropping logs", logging.Records(len(records)))
		metrics.RecordsTotal.WithLabelValues(metrics.SinkSearch, "dropped").Add(float64(len(records)))
	}
	return true, nil
}

func (s *Search) send(ctx context.Context, data []byte) error {
	sc := s.cfg.Search
	if sc.URL == "" {
		return &ConfigError{Setting: config.EnvSearchURL}
	}
	if sc.Username == "" || sc.Password == "" {
		return &ConfigError{Setting: config.EnvSearchUser + " or " + config.EnvSearchPassword}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sc.URL, bytes.NewReader(data))
	if err != nil {
		return &ConfigError{Setting: config.EnvSearchURL, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(sc.Username, sc.Password)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RejectedError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// IndexName is the daily index of a function: lambda-{function}-{YYYY-MM-DD},
// dated in UTC.
func IndexName(functionName string, now time.Time) string {
	if functionName == "" {
		functionName = unknownFunction
	}
	return fmt.Sprintf("%s-%s-%s", indexPrefix, functionName, now.UTC().Format("2006-01-02"))
}

type indexAction struct {
	Index indexTarget `json:"index"`
}

type indexTarget struct {
	Index string `json:"_index"`
}

type document struct {
	Timestamp     string `json:"@timestamp"`
	LogType       string `json:"log_type"`
	LogStreamName string `json:"log_stream_name"`
	Log           string `json:"log"`
}

// FormatBulk pairs an index directive with a document for every record and
// encodes the whole sequence as a single JSON array. The encoding is compact
// (no space after ',' or ':') and non-ASCII text is written as raw UTF-8
// rather than \uXXXX escapes; consumers must compare it as JSON, not bytes.
func FormatBulk(records []record.LogRecord, index, logStream string) ([]byte, error) {
	items := make([]any, 0, 2*len(records))
	for _, r := range records {
		items = append(items,
			indexAction{Index: indexTarget{Index: index}},
			document{
				Timestamp:     r.Timestamp(),
				LogType:       r.Type().String(),
				LogStreamName: logStream,
				Log:           r.Payload(),
			},
		)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
