package uploader

import (
	"context"
	"time"

	"github.com/manpen/stride/internal/jobprocessor"
)

// DefaultAggregationTimeout and DefaultMaxBatch are the batching knobs
// described in §4.7: a batch flushes when it reaches MaxBatch descriptors
// or AggregationTimeout has elapsed since the first one arrived.
const (
	DefaultAggregationTimeout = 500 * time.Millisecond
	DefaultMaxBatch           = 200
)

// Uploader reports a batch of job descriptors to a remote server and
// returns whatever best-known scores the server chose to answer with.
type Uploader interface {
	Upload(ctx context.Context, jobs []jobprocessor.Descriptor) (map[[16]byte]uint32, error)
}

type message struct {
	reply chan *uint32 // nil for fire-and-forget submissions
	desc  jobprocessor.Descriptor
}
