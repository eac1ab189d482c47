package uploader

import (
	"context"
	"log/slog"
	"time"

	"github.com/manpen/stride/internal/jobprocessor"
	"github.com/manpen/stride/internal/storage"
)

// inboxCapacity is generous enough that Submit never blocks a solver task
// behind network latency in practice; the aggregator flushes at least
// every DefaultAggregationTimeout, long before this would fill up.
const inboxCapacity = 4096

// Aggregator is the single long-lived consumer described in §4.7. Build
// one with New, submit descriptors with SubmitAndAwait/SubmitFireAndForget,
// and call Close followed by Wait to drain and terminate it.
type Aggregator struct {
	inbox              chan message
	done               chan struct{}
	uploader           Uploader
	cache              storage.BestKnownCache
	logger             *slog.Logger
	aggregationTimeout time.Duration
	maxBatch           int
}

// New starts the aggregator's consumer goroutine. cache may be nil, in
// which case replies are never persisted locally.
func New(u Uploader, cache storage.BestKnownCache, logger *slog.Logger) *Aggregator {
	return NewWithBatching(u, cache, logger, DefaultAggregationTimeout, DefaultMaxBatch)
}

// NewWithBatching is New with explicit batching knobs, mainly for tests
// that need a short aggregation window.
func NewWithBatching(u Uploader, cache storage.BestKnownCache, logger *slog.Logger, aggregationTimeout time.Duration, maxBatch int) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Aggregator{
		inbox:              make(chan message, inboxCapacity),
		done:               make(chan struct{}),
		uploader:           u,
		cache:              cache,
		logger:             logger,
		aggregationTimeout: aggregationTimeout,
		maxBatch:           maxBatch,
	}
	go a.run()
	return a
}

// SubmitAndAwait enqueues desc and blocks until the aggregator reports a
// best-known score for it (or nil, if the server never answered).
func (a *Aggregator) SubmitAndAwait(desc jobprocessor.Descriptor) *uint32 {
	reply := make(chan *uint32, 1)
	a.inbox <- message{reply: reply, desc: desc}
	return <-reply
}

// SubmitFireAndForget enqueues desc without waiting for a reply.
func (a *Aggregator) SubmitFireAndForget(desc jobprocessor.Descriptor) {
	a.inbox <- message{desc: desc}
}

// Close signals that no further descriptors will be submitted. The
// aggregator flushes its current batch and then terminates; callers must
// call Wait to observe that.
func (a *Aggregator) Close() {
	close(a.inbox)
}

// Wait blocks until the consumer goroutine has terminated.
func (a *Aggregator) Wait() {
	<-a.done
}

func (a *Aggregator) run() {
	defer close(a.done)

	var batch []jobprocessor.Descriptor
	repliers := make(map[[16]byte][]chan *uint32)
	var timer *time.Timer

	for {
		var timeoutCh <-chan time.Time
		if timer != nil {
			timeoutCh = timer.C
		}

		select {
		case msg, ok := <-a.inbox:
			if !ok {
				a.flush(batch, repliers)
				return
			}

			if msg.reply != nil {
				repliers[msg.desc.IDigest] = append(repliers[msg.desc.IDigest], msg.reply)
			}
			batch = append(batch, msg.desc)

			if timer == nil {
				timer = time.NewTimer(a.aggregationTimeout)
			}
			if len(batch) < a.maxBatch {
				continue
			}

		case <-timeoutCh:
		}

		a.flush(batch, repliers)
		batch = nil
		repliers = make(map[[16]byte][]chan *uint32)
		if timer != nil {
			timer.Stop()
			timer = nil
		}
	}
}

func (a *Aggregator) flush(batch []jobprocessor.Descriptor, repliers map[[16]byte][]chan *uint32) {
	if len(batch) == 0 {
		return
	}

	bestKnown, err := a.uploader.Upload(context.Background(), batch)
	if err != nil {
		a.logger.Error("uploader: upload failed", "error", err, "batch_size", len(batch))
		bestKnown = nil
	}

	for idigest, score := range bestKnown {
		score := score
		if a.cache != nil {
			if err := a.cache.Put(idigest, score); err != nil {
				a.logger.Warn("uploader: failed to update local cache", "error", err)
			}
		}
		for _, ch := range repliers[idigest] {
			trySend(ch, &score)
		}
		delete(repliers, idigest)
	}

	for _, chs := range repliers {
		for _, ch := range chs {
			trySend(ch, nil)
		}
	}
}

// trySend never blocks: ch is always buffered with capacity 1 and never
// sent to twice, but a dropped receiver (the waiter lost interest) must
// not wedge the aggregator.
func trySend(ch chan *uint32, v *uint32) {
	select {
	case ch <- v:
	default:
	}
}
