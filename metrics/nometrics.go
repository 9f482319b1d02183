package metrics

import "time"

// NilEngine is an Engine implementation which discards all metrics. Used when
// the host app does not configure a metrics backend.
type NilEngine struct{}

func (me *NilEngine) RecordCacheRequestTime(success bool, length time.Duration) {}

func (me *NilEngine) RecordCacheBatchSize(size int) {}

func (me *NilEngine) RecordLocalCachePut(success bool) {}
