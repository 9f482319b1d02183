package videocache

import (
	"sync"
	"time"

	"github.com/clearbid/videocache/config"
)

// BatchRecord pairs one enqueued bid with its auction handle and completion
// callback. It is consumed exactly once, when its batch is reconciled.
type BatchRecord struct {
	AuctionInstance AuctionInstance
	BidResponse     *BidResponse
	AfterBidAdded   func()
}

// StoreBatchFunc receives a flushed batch in enqueue order.
type StoreBatchFunc func(batch []BatchRecord)

// Coordinator accumulates store requests arriving in quick succession into one
// outbound batch. A single goroutine owns the open batch, so enqueueing from
// concurrent callers needs no further synchronization. Each batch flushes when
// it reaches the configured size or when the batch timeout elapses after its
// first record, whichever comes first. Without batching configuration every
// record flushes immediately as a singleton batch through the same path.
type Coordinator struct {
	batchSize    int
	batchTimeout time.Duration
	storeBatch   StoreBatchFunc

	records   chan BatchRecord
	done      chan struct{}
	closeOnce sync.Once
}

// NewCoordinator starts the coordinator. storeBatch is invoked on its own
// goroutine so a slow cache request never delays the next batch.
func NewCoordinator(cfg *config.Cache, storeBatch StoreBatchFunc) *Coordinator {
	c := &Coordinator{
		batchSize:    cfg.BatchSize,
		batchTimeout: cfg.BatchTimeout(),
		storeBatch:   storeBatch,
		records:      make(chan BatchRecord),
		done:         make(chan struct{}),
	}
	if c.batched() {
		go c.run()
	}
	return c
}

func (c *Coordinator) batched() bool {
	return c.batchSize > 1 && c.batchTimeout > 0
}

// Enqueue adds one bid to the open batch without blocking the caller.
func (c *Coordinator) Enqueue(auction AuctionInstance, bid *BidResponse, afterBidAdded func()) {
	record := BatchRecord{
		AuctionInstance: auction,
		BidResponse:     bid,
		AfterBidAdded:   afterBidAdded,
	}
	if !c.batched() {
		go c.storeBatch([]BatchRecord{record})
		return
	}
	select {
	case c.records <- record:
	case <-c.done:
		// Late arrival after shutdown still gets stored, as its own batch.
		go c.storeBatch([]BatchRecord{record})
	}
}

// Shutdown flushes the open batch, if any, and stops the coordinator's
// goroutine. It does not wait for in-flight cache requests to finish.
func (c *Coordinator) Shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *Coordinator) run() {
	var batch []BatchRecord
	timer := time.NewTimer(c.batchTimeout)
	stopTimer(timer)

	flush := func() {
		if len(batch) > 0 {
			go c.storeBatch(batch)
			batch = nil
		}
	}

	for {
		select {
		case record := <-c.records:
			if len(batch) == 0 {
				timer.Reset(c.batchTimeout)
			}
			batch = append(batch, record)
			if len(batch) >= c.batchSize {
				stopTimer(timer)
				flush()
			}
		case <-timer.C:
			flush()
		case <-c.done:
			stopTimer(timer)
			flush()
			return
		}
	}
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
