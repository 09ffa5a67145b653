package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Sink label values.
const (
	SinkSearch  = "search"
	SinkArchive = "archive"
)

var (
	// Records handed to a sink, by outcome (delivered, failed, dropped)
	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lambda_log_shipper_records_total",
			Help: "Total number of log records handled by a sink",
		},
		[]string{"sink", "status"},
	)

	PayloadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lambda_log_shipper_payload_bytes_total",
			Help: "Total bytes of formatted payload sent to a sink",
		},
		[]string{"sink"},
	)

	DeliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lambda_log_shipper_delivery_duration_seconds",
			Help:    "Duration of sink delivery attempts in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"sink"},
	)

	// Fallbacks from the search sink to the archive, by failure kind
	FallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lambda_log_shipper_fallbacks_total",
			Help: "Total number of batches redirected to the archival sink",
		},
		[]string{"reason"},
	)
)

// Push replaces the metrics of the job/grouping group on a pushgateway with
// everything gathered from g. Empty grouping values are skipped.
func Push(ctx context.Context, url, job string, g prometheus.Gatherer, grouping map[string]string) error {
	pusher := push.New(url, job).Gatherer(g)
	for name, value := range grouping {
		if value != "" {
			pusher = pusher.Grouping(name, value)
		}
	}
	return pusher.PushContext(ctx)
}
