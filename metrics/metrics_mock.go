package metrics

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// EngineMock is a mock for the Engine interface.
type EngineMock struct {
	mock.Mock
}

// RecordCacheRequestTime mock
func (me *EngineMock) RecordCacheRequestTime(success bool, length time.Duration) {
	me.Called(success, length)
}

// RecordCacheBatchSize mock
func (me *EngineMock) RecordCacheBatchSize(size int) {
	me.Called(size)
}

// RecordLocalCachePut mock
func (me *EngineMock) RecordLocalCachePut(success bool) {
	me.Called(success)
}
