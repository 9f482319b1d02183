package config

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/viper"
)

// Configuration is the top-level config object for the video cache library.
type Configuration struct {
	Cache Cache `mapstructure:"cache"`
}

// Cache configures the remote cache endpoint and the request batching behavior.
type Cache struct {
	// URL is the full endpoint of the remote cache service. If empty, no remote
	// calls are made and only the local store is usable.
	URL string `mapstructure:"url"`
	// TimeoutMS bounds each cache request, including connection time.
	TimeoutMS int64 `mapstructure:"timeout_ms"`
	// VastTrack attaches bid/bidder/auction metadata to every put entry.
	VastTrack bool `mapstructure:"vasttrack"`
	// BatchSize and BatchTimeoutMS enable request batching when both are positive.
	// A batch flushes as soon as it holds BatchSize entries, or when
	// BatchTimeoutMS elapses after the first entry, whichever comes first.
	BatchSize      int   `mapstructure:"batch_size"`
	BatchTimeoutMS int64 `mapstructure:"batch_timeout_ms"`
	// TTLBufferSeconds is added to each item's TTL so cache entries outlive
	// the nominal ad slot duration.
	TTLBufferSeconds int64 `mapstructure:"ttl_buffer_seconds"`

	Local LocalCache `mapstructure:"local"`
}

// LocalCache configures the in-process fallback store.
type LocalCache struct {
	// BaseURL is the URL prefix under which locally stored creatives are served.
	BaseURL string `mapstructure:"base_url"`
	// MaxSizeBytes caps the memory used by locally stored creatives.
	MaxSizeBytes int `mapstructure:"max_size_bytes"`
}

// New unmarshals and validates the configuration held by v.
func New(v *viper.Viper) (*Configuration, error) {
	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("viper failed to unmarshal app config: %v", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	glog.Infof("video cache config: endpoint=%q batchSize=%d batchTimeout=%dms vasttrack=%t",
		c.Cache.URL, c.Cache.BatchSize, c.Cache.BatchTimeoutMS, c.Cache.VastTrack)
	return &c, nil
}

func (cfg *Configuration) validate() error {
	if cfg.Cache.TimeoutMS <= 0 {
		return fmt.Errorf("cache.timeout_ms must be positive: %d", cfg.Cache.TimeoutMS)
	}
	if cfg.Cache.TTLBufferSeconds < 0 {
		return fmt.Errorf("cache.ttl_buffer_seconds must not be negative: %d", cfg.Cache.TTLBufferSeconds)
	}
	if cfg.Cache.BatchSize < 0 || cfg.Cache.BatchTimeoutMS < 0 {
		return fmt.Errorf("cache.batch_size (%d) and cache.batch_timeout_ms (%d) must not be negative",
			cfg.Cache.BatchSize, cfg.Cache.BatchTimeoutMS)
	}
	if (cfg.Cache.BatchSize > 1) != (cfg.Cache.BatchTimeoutMS > 0) {
		return fmt.Errorf("cache.batch_size and cache.batch_timeout_ms must be configured together")
	}
	if cfg.Cache.Local.MaxSizeBytes < 0 {
		return fmt.Errorf("cache.local.max_size_bytes must not be negative: %d", cfg.Cache.Local.MaxSizeBytes)
	}
	return nil
}

// Batched reports whether enqueued items should accumulate before flushing.
func (cfg *Cache) Batched() bool {
	return cfg.BatchSize > 1 && cfg.BatchTimeoutMS > 0
}

// Timeout returns the per-request timeout as a Duration.
func (cfg *Cache) Timeout() time.Duration {
	return time.Duration(cfg.TimeoutMS) * time.Millisecond
}

// BatchTimeout returns the maximum wait before a partial batch flushes.
func (cfg *Cache) BatchTimeout() time.Duration {
	return time.Duration(cfg.BatchTimeoutMS) * time.Millisecond
}

// SetupViper sets the default values the cache works with when the host app
// does not override them.
func SetupViper(v *viper.Viper) {
	v.SetDefault("cache.url", "")
	v.SetDefault("cache.timeout_ms", 10000)
	v.SetDefault("cache.vasttrack", false)
	v.SetDefault("cache.batch_size", 0)
	v.SetDefault("cache.batch_timeout_ms", 0)
	v.SetDefault("cache.ttl_buffer_seconds", 15)
	v.SetDefault("cache.local.base_url", "")
	v.SetDefault("cache.local.max_size_bytes", 32*1024*1024)
}
