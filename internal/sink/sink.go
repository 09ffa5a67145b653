// Package sink delivers batches of log records to a search endpoint, falling
// back to object storage when the search endpoint cannot take them.
package sink

import (
	"context"

	"github.com/telhawk-systems/lambda-log-shipper/internal/record"
)

// Sink accepts a batch of records for delivery.
//
// Handle returns false with a nil error when there was nothing to do (empty
// batch, sink disabled). It returns true once some delivery path was taken.
type Sink interface {
	Handle(ctx context.Context, records []record.LogRecord) (bool, error)
}

// Func adapts a plain function to the Sink interface.
type Func func(ctx context.Context, records []record.LogRecord) (bool, error)

func (f Func) Handle(ctx context.Context, records []record.LogRecord) (bool, error) {
	return f(ctx, records)
}
