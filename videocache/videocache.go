// Package videocache stores VAST creatives in a remote cache service so video
// players can fetch them by URL. Put requests are batched, results are applied
// back onto the originating bid objects, and an in-process store covers setups
// with no remote cache endpoint.
package videocache

import (
	"context"

	"github.com/julienschmidt/httprouter"

	"github.com/clearbid/videocache/config"
	"github.com/clearbid/videocache/metrics"
)

// BidStatusRendered marks a bid the auction already published. The reconciler
// re-publishes such bids after decorating them with the cache key.
const BidStatusRendered = "rendered"

// BidResponse is the auction-owned bid object the cache decorates. The cache
// only ever writes VideoCacheKey and VastURL; everything else is caller input.
// Callers must not mutate a bid from another goroutine while a store for it is
// in flight.
type BidResponse struct {
	RequestID string
	Bidder    string
	AuctionID string

	VastXML        string
	VastURL        string
	VastImpURL     []string
	TTL            int64
	CustomCacheKey string
	Status         string

	VideoCacheKey string
}

// Cacheable is one creative to store: either a literal VAST document, a URL a
// wrapper document should point at, or both (the literal document wins).
type Cacheable struct {
	VastXML        string
	VastURL        string
	VastImpURL     []string
	TTL            int64
	CustomCacheKey string

	// Tracking metadata, only sent when cache.vasttrack is enabled.
	RequestID string
	Bidder    string
	AuctionID string
}

// CacheID is the per-item result of a put request. An empty UUID means the
// service did not cache that item.
type CacheID struct {
	UUID string `json:"uuid"`
}

// AuctionMeta exposes the auction fields the cache needs for vasttrack.
type AuctionMeta interface {
	// AuctionStart returns the auction start time in epoch milliseconds.
	AuctionStart() int64
}

// AuctionIndex looks up live auctions by id. Returns nil for unknown auctions.
type AuctionIndex interface {
	FindAuctionByID(auctionID string) AuctionMeta
}

// AuctionInstance is the handle through which a cache-decorated bid is
// re-published to its auction.
type AuctionInstance interface {
	AddBidReceived(bid *BidResponse)
}

// VideoCache ties the cache client, the batch coordinator and the local store
// together behind one constructor.
type VideoCache struct {
	client      Client
	coordinator *Coordinator
	local       *LocalStore
}

// New builds a VideoCache from an already-validated configuration. The index
// may be nil when vasttrack is disabled; a nil engine disables metrics.
func New(cfg *config.Configuration, index AuctionIndex, engine metrics.Engine) *VideoCache {
	if engine == nil {
		engine = &metrics.NilEngine{}
	}
	client := NewClient(&cfg.Cache, index, engine)
	reconciler := NewReconciler(client)
	return &VideoCache{
		client:      client,
		coordinator: NewCoordinator(&cfg.Cache, reconciler.StoreBatch),
		local:       NewLocalStore(&cfg.Cache.Local, engine),
	}
}

// Store submits the items to the remote cache in one request, bypassing the
// batch coordinator. It returns one CacheID per item on success, or an empty
// slice plus the error when nothing was cached.
func (vc *VideoCache) Store(ctx context.Context, items []Cacheable) ([]CacheID, error) {
	return vc.client.PutVast(ctx, items)
}

// Enqueue hands one bid to the batch coordinator. afterBidAdded fires exactly
// once when the bid's batch has been reconciled; it never fires if the whole
// batch fails.
func (vc *VideoCache) Enqueue(auction AuctionInstance, bid *BidResponse, afterBidAdded func()) {
	vc.coordinator.Enqueue(auction, bid, afterBidAdded)
}

// StoreLocally stores the bid's VAST document in process memory and points the
// bid at the local serving URL. No-op when the bid carries no VastXML.
func (vc *VideoCache) StoreLocally(bid *BidResponse) {
	vc.local.StoreLocally(bid)
}

// GetCacheURL returns the URL a player can fetch the cached creative from.
func (vc *VideoCache) GetCacheURL(uuid string) string {
	return vc.client.GetCacheURL(uuid)
}

// LocalVastHandler serves locally stored creatives. Mount it under the path
// configured as cache.local.base_url.
func (vc *VideoCache) LocalVastHandler() httprouter.Handle {
	return vc.local.Handler()
}

// Shutdown flushes any open batch and stops the coordinator. The VideoCache
// must not be used afterwards.
func (vc *VideoCache) Shutdown() {
	vc.coordinator.Shutdown()
}
