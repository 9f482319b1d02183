package metrics

import (
	"time"

	metrics "github.com/rcrowley/go-metrics"
)

// Metrics is a go-metrics implementation of the Engine interface.
type Metrics struct {
	MetricsRegistry metrics.Registry

	CacheRequestTimer       metrics.Timer
	CacheRequestErrorMeter  metrics.Meter
	CacheBatchSizeHistogram metrics.Histogram
	LocalCachePutMeter      metrics.Meter
	LocalCachePutErrorMeter metrics.Meter
}

// NewMetrics registers the video cache metrics on the given registry.
func NewMetrics(registry metrics.Registry) *Metrics {
	return &Metrics{
		MetricsRegistry: registry,

		CacheRequestTimer:      metrics.GetOrRegisterTimer("video_cache.requests", registry),
		CacheRequestErrorMeter: metrics.GetOrRegisterMeter("video_cache.request_errors", registry),
		CacheBatchSizeHistogram: metrics.GetOrRegisterHistogram("video_cache.batch_size", registry,
			metrics.NewExpDecaySample(1028, 0.015)),
		LocalCachePutMeter:      metrics.GetOrRegisterMeter("video_cache.local_puts", registry),
		LocalCachePutErrorMeter: metrics.GetOrRegisterMeter("video_cache.local_put_errors", registry),
	}
}

func (me *Metrics) RecordCacheRequestTime(success bool, length time.Duration) {
	if success {
		me.CacheRequestTimer.Update(length)
	} else {
		me.CacheRequestErrorMeter.Mark(1)
	}
}

func (me *Metrics) RecordCacheBatchSize(size int) {
	me.CacheBatchSizeHistogram.Update(int64(size))
}

func (me *Metrics) RecordLocalCachePut(success bool) {
	if success {
		me.LocalCachePutMeter.Mark(1)
	} else {
		me.LocalCachePutErrorMeter.Mark(1)
	}
}
