package videocache

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/buger/jsonparser"
	"github.com/golang/glog"
	"golang.org/x/net/context/ctxhttp"

	"github.com/clearbid/videocache/config"
	"github.com/clearbid/videocache/errortypes"
	"github.com/clearbid/videocache/metrics"
	"github.com/clearbid/videocache/util/timeutil"
)

// Client stores VAST creatives in a remote cache service.
type Client interface {
	// PutVast stores one cache entry per item and returns the assigned ids in
	// item order. The returned slice always has the same number of elements as
	// the items argument on success; an item the service could not save gets an
	// empty UUID. On any request-level failure the slice is empty and the error
	// describes what went wrong; nothing was cached in that case.
	PutVast(ctx context.Context, values []Cacheable) ([]CacheID, error)

	// GetCacheURL returns the retrieval URL for a cache id.
	GetCacheURL(uuid string) string
}

// wire-level protocol objects
type putObject struct {
	Type       string `json:"type"`
	Value      string `json:"value"`
	TTLSeconds int64  `json:"ttlseconds"`
	Key        string `json:"key,omitempty"`
	BidID      string `json:"bidid,omitempty"`
	Bidder     string `json:"bidder,omitempty"`
	AID        string `json:"aid,omitempty"`
	Timestamp  int64  `json:"timestamp,omitempty"`
}

type putRequest struct {
	Puts []putObject `json:"puts"`
}

// NewClient builds a Client for the configured endpoint. The index may be nil
// when cfg.VastTrack is false.
func NewClient(cfg *config.Cache, index AuctionIndex, engine metrics.Engine) Client {
	return &clientImpl{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 65 * time.Second,
			},
		},
		endpoint:  cfg.URL,
		timeout:   cfg.Timeout(),
		ttlBuffer: cfg.TTLBufferSeconds,
		vastTrack: cfg.VastTrack,
		index:     index,
		metrics:   engine,
		clock:     &timeutil.RealTime{},
	}
}

type clientImpl struct {
	httpClient *http.Client
	endpoint   string
	timeout    time.Duration
	ttlBuffer  int64
	vastTrack  bool
	index      AuctionIndex
	metrics    metrics.Engine
	clock      timeutil.Time
}

func (c *clientImpl) GetCacheURL(uuid string) string {
	return c.endpoint + "?uuid=" + uuid
}

func (c *clientImpl) PutVast(ctx context.Context, values []Cacheable) ([]CacheID, error) {
	if len(values) == 0 {
		return []CacheID{}, nil
	}

	postBody, err := json.Marshal(c.buildPayload(values))
	if err != nil {
		glog.Errorf("Error creating JSON for the video cache: %v", err)
		return []CacheID{}, fmt.Errorf("error creating JSON for the video cache: %v", err)
	}

	httpReq, err := http.NewRequest("POST", c.endpoint, bytes.NewReader(postBody))
	if err != nil {
		glog.Errorf("Error creating POST request to the video cache: %v", err)
		return []CacheID{}, fmt.Errorf("error creating POST request to the video cache: %v", err)
	}
	httpReq.Header.Add("Content-Type", "text/plain")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.metrics.RecordCacheBatchSize(len(values))

	startTime := c.clock.Now()
	anResp, err := ctxhttp.Do(ctx, c.httpClient, httpReq)
	elapsedTime := c.clock.Now().Sub(startTime)
	if err != nil {
		c.metrics.RecordCacheRequestTime(false, elapsedTime)
		friendlyErr := &errortypes.TransportError{
			Message: fmt.Sprintf("error sending the request to the video cache: %v; Duration=%v", err, elapsedTime),
		}
		glog.Error(friendlyErr)
		return []CacheID{}, friendlyErr
	}
	defer anResp.Body.Close()

	responseBody, _ := io.ReadAll(anResp.Body)
	if anResp.StatusCode != http.StatusOK {
		c.metrics.RecordCacheRequestTime(false, elapsedTime)
		friendlyErr := &errortypes.TransportError{
			Message: fmt.Sprintf("video cache call to %s returned %d: %s", c.endpoint, anResp.StatusCode, responseBody),
		}
		glog.Error(friendlyErr)
		return []CacheID{}, friendlyErr
	}
	c.metrics.RecordCacheRequestTime(true, elapsedTime)

	return parsePutResponse(responseBody, len(values))
}

// buildPayload resolves each item into one wire-level put entry, preserving
// item order.
func (c *clientImpl) buildPayload(values []Cacheable) putRequest {
	pr := putRequest{Puts: make([]putObject, len(values))}
	for i, value := range values {
		put := putObject{
			Type:       "xml",
			Value:      resolveVast(value),
			TTLSeconds: value.TTL + c.ttlBuffer,
			Key:        value.CustomCacheKey,
		}
		if c.vastTrack {
			put.BidID = value.RequestID
			put.Bidder = value.Bidder
			put.AID = value.AuctionID
			if c.index != nil {
				if auction := c.index.FindAuctionByID(value.AuctionID); auction != nil {
					put.Timestamp = auction.AuctionStart()
				}
			}
		}
		pr.Puts[i] = put
	}
	return pr
}

// parsePutResponse extracts the cache ids from the response body. The number
// of entries must match the number of puts sent, or results could be applied
// to the wrong items.
func parsePutResponse(responseBody []byte, expectedCount int) ([]CacheID, error) {
	ids := make([]CacheID, 0, expectedCount)
	processResponse := func(entry []byte, _ jsonparser.ValueType, _ int, _ error) {
		// An entry without a uuid means the service failed to save that one
		// item. It is not a request-level error.
		uuid, err := jsonparser.GetString(entry, "uuid")
		if err != nil {
			ids = append(ids, CacheID{})
			return
		}
		ids = append(ids, CacheID{UUID: uuid})
	}
	if _, err := jsonparser.ArrayEach(responseBody, processResponse, "responses"); err != nil {
		friendlyErr := &errortypes.MalformedResponse{
			Message: fmt.Sprintf("error interpreting the video cache response: %v; response was: %s", err, responseBody),
		}
		glog.Error(friendlyErr)
		return []CacheID{}, friendlyErr
	}
	if len(ids) != expectedCount {
		friendlyErr := &errortypes.CountMismatch{Sent: expectedCount, Received: len(ids)}
		glog.Error(friendlyErr)
		return []CacheID{}, friendlyErr
	}
	return ids, nil
}
