package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func newViperForTest() *viper.Viper {
	v := viper.New()
	SetupViper(v)
	return v
}

func TestDefaults(t *testing.T) {
	cfg, err := New(newViperForTest())
	assert.NoError(t, err)

	assert.Equal(t, "", cfg.Cache.URL)
	assert.Equal(t, int64(10000), cfg.Cache.TimeoutMS)
	assert.Equal(t, int64(15), cfg.Cache.TTLBufferSeconds)
	assert.False(t, cfg.Cache.VastTrack)
	assert.False(t, cfg.Cache.Batched())
	assert.Equal(t, 32*1024*1024, cfg.Cache.Local.MaxSizeBytes)
}

func TestFullConfig(t *testing.T) {
	v := newViperForTest()
	v.Set("cache.url", "https://cache.example.com/endpoint")
	v.Set("cache.timeout_ms", 2000)
	v.Set("cache.vasttrack", true)
	v.Set("cache.batch_size", 5)
	v.Set("cache.batch_timeout_ms", 50)
	v.Set("cache.local.base_url", "https://pub.example.com/vast")

	cfg, err := New(v)
	assert.NoError(t, err)
	assert.Equal(t, "https://cache.example.com/endpoint", cfg.Cache.URL)
	assert.True(t, cfg.Cache.VastTrack)
	assert.True(t, cfg.Cache.Batched())
	assert.Equal(t, 2*time.Second, cfg.Cache.Timeout())
	assert.Equal(t, 50*time.Millisecond, cfg.Cache.BatchTimeout())
}

func TestValidationErrors(t *testing.T) {
	testCases := []struct {
		description string
		key         string
		value       interface{}
	}{
		{"zero timeout", "cache.timeout_ms", 0},
		{"negative timeout", "cache.timeout_ms", -5},
		{"negative ttl buffer", "cache.ttl_buffer_seconds", -1},
		{"negative batch size", "cache.batch_size", -1},
		{"batch size without batch timeout", "cache.batch_size", 3},
		{"batch timeout without batch size", "cache.batch_timeout_ms", 20},
		{"negative local size", "cache.local.max_size_bytes", -1},
	}

	for _, test := range testCases {
		v := newViperForTest()
		v.Set(test.key, test.value)
		_, err := New(v)
		assert.Error(t, err, test.description)
	}
}

func TestBatchedRequiresBothKnobs(t *testing.T) {
	v := newViperForTest()
	v.Set("cache.batch_size", 3)
	v.Set("cache.batch_timeout_ms", 20)

	cfg, err := New(v)
	assert.NoError(t, err)
	assert.True(t, cfg.Cache.Batched())

	cfg.Cache.BatchSize = 1
	cfg.Cache.BatchTimeoutMS = 0
	assert.False(t, cfg.Cache.Batched())
}
