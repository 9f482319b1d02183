package metrics

import "time"

// Engine is the interface the video cache reports activity through. A single
// implementation can aggregate multiple backends if the host app needs it.
type Engine interface {
	// RecordCacheRequestTime logs the roundtrip time of a cache put request.
	// success is false on transport errors and non-200 responses.
	RecordCacheRequestTime(success bool, length time.Duration)

	// RecordCacheBatchSize logs how many put entries one request carried.
	RecordCacheBatchSize(size int)

	// RecordLocalCachePut logs a local store attempt.
	RecordLocalCachePut(success bool)
}
