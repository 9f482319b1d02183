package videocache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearbid/videocache/config"
)

// echoUUIDServer assigns "uuid-<index>" to every put entry it receives.
func echoUUIDServer(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req putRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("cache server got an undecodable body: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		ids := make([]CacheID, len(req.Puts))
		for i := range req.Puts {
			ids[i].UUID = fmt.Sprintf("uuid-%d", i)
		}
		resp := struct {
			Responses []CacheID `json:"responses"`
		}{Responses: ids}
		json.NewEncoder(w).Encode(resp)
	}))
}

func testConfig(url string, batchSize int, batchTimeoutMS int64) *config.Configuration {
	return &config.Configuration{
		Cache: config.Cache{
			URL:              url,
			TimeoutMS:        1000,
			BatchSize:        batchSize,
			BatchTimeoutMS:   batchTimeoutMS,
			TTLBufferSeconds: 15,
			Local: config.LocalCache{
				BaseURL: "https://pub.example.com/vast",
			},
		},
	}
}

func TestStoreDirectPath(t *testing.T) {
	server := echoUUIDServer(t)
	defer server.Close()

	vc := New(testConfig(server.URL, 0, 0), nil, nil)
	defer vc.Shutdown()

	ids, err := vc.Store(context.Background(), []Cacheable{
		{VastURL: "my-mock-url.com", TTL: 25},
		{VastXML: "<VAST version=\"3.0\"></VAST>", TTL: 25},
	})
	require.NoError(t, err)
	assert.Equal(t, []CacheID{{UUID: "uuid-0"}, {UUID: "uuid-1"}}, ids)
}

func TestEnqueueBatchedEndToEnd(t *testing.T) {
	server := echoUUIDServer(t)
	defer server.Close()

	vc := New(testConfig(server.URL, 3, 200), nil, nil)
	defer vc.Shutdown()

	bids := []*BidResponse{
		{RequestID: "a", VastXML: "<VAST>a</VAST>", TTL: 25},
		{RequestID: "b", VastXML: "<VAST>b</VAST>", TTL: 25},
		{RequestID: "c", VastXML: "<VAST>c</VAST>", TTL: 25},
	}

	var wg sync.WaitGroup
	wg.Add(len(bids))
	for _, bid := range bids {
		vc.Enqueue(nil, bid, wg.Done)
	}

	waitWithTimeout(t, &wg)

	for i, bid := range bids {
		assert.Equal(t, fmt.Sprintf("uuid-%d", i), bid.VideoCacheKey)
		assert.Equal(t, server.URL+fmt.Sprintf("?uuid=uuid-%d", i), bid.VastURL)
	}
}

func TestEnqueueUnbatchedEndToEnd(t *testing.T) {
	server := echoUUIDServer(t)
	defer server.Close()

	vc := New(testConfig(server.URL, 0, 0), nil, nil)
	defer vc.Shutdown()

	bid := &BidResponse{RequestID: "solo", VastXML: "<VAST/>", TTL: 25}

	var wg sync.WaitGroup
	wg.Add(1)
	vc.Enqueue(nil, bid, wg.Done)
	waitWithTimeout(t, &wg)

	assert.Equal(t, "uuid-0", bid.VideoCacheKey)
	assert.Equal(t, server.URL+"?uuid=uuid-0", bid.VastURL)
}

func TestEnqueueTimeoutFlushEndToEnd(t *testing.T) {
	server := echoUUIDServer(t)
	defer server.Close()

	vc := New(testConfig(server.URL, 10, 20), nil, nil)
	defer vc.Shutdown()

	bid := &BidResponse{VastXML: "<VAST/>", TTL: 25}

	var wg sync.WaitGroup
	wg.Add(1)
	vc.Enqueue(nil, bid, wg.Done)
	waitWithTimeout(t, &wg)

	assert.Equal(t, "uuid-0", bid.VideoCacheKey)
}

func TestEnqueueServerFailureFiresNoCallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(503)
	}))
	defer server.Close()

	vc := New(testConfig(server.URL, 0, 0), nil, nil)
	defer vc.Shutdown()

	callbackFired := make(chan struct{}, 1)
	bid := &BidResponse{VastXML: "<VAST/>", TTL: 25}
	vc.Enqueue(nil, bid, func() { callbackFired <- struct{}{} })

	select {
	case <-callbackFired:
		t.Fatal("afterBidAdded must not fire when the whole batch fails")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Empty(t, bid.VideoCacheKey)
}

func TestFacadeGetCacheURL(t *testing.T) {
	vc := New(testConfig("https://test.cache.url/endpoint", 0, 0), nil, nil)
	defer vc.Shutdown()

	uuid := "c488b101-af3e-4a99-b538-00423e5a3371"
	assert.Equal(t, "https://test.cache.url/endpoint?uuid="+uuid, vc.GetCacheURL(uuid))
}

func TestFacadeStoreLocally(t *testing.T) {
	vc := New(testConfig("", 0, 0), nil, nil)
	defer vc.Shutdown()

	bid := &BidResponse{VastXML: "<VAST version=\"3.0\"></VAST>"}
	vc.StoreLocally(bid)

	assert.NotEmpty(t, bid.VideoCacheKey)
	assert.Contains(t, bid.VastURL, "https://pub.example.com/vast?uuid=")

	router := newLocalRouter(vc)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest("GET", "/vast?uuid="+bid.VideoCacheKey, nil))
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "<VAST version=\"3.0\"></VAST>", recorder.Body.String())
}

func newLocalRouter(vc *VideoCache) http.Handler {
	router := httprouter.New()
	router.GET("/vast", vc.LocalVastHandler())
	return router
}

func waitWithTimeout(t *testing.T, wg *sync.WaitGroup) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for callbacks")
	}
}
