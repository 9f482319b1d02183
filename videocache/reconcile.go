package videocache

import (
	"context"

	"github.com/golang/glog"
)

// Reconciler applies the cache service's results back onto the bids of a
// flushed batch and fires the per-bid completion callbacks.
type Reconciler struct {
	client Client
}

func NewReconciler(client Client) *Reconciler {
	return &Reconciler{client: client}
}

// StoreBatch submits the batch as one cache request and reconciles the
// results in enqueue order. Each record's AfterBidAdded fires at most once.
// When the request fails outright, or the service returns a result count that
// does not match the batch, no bid is touched and no callback fires; the
// failure is logged and the bids stay uncached.
func (r *Reconciler) StoreBatch(batch []BatchRecord) {
	if len(batch) == 0 {
		return
	}

	values := make([]Cacheable, len(batch))
	for i, record := range batch {
		values[i] = cacheableForBid(record.BidResponse)
	}

	// PutVast enforces the configured request timeout itself.
	ids, err := r.client.PutVast(context.Background(), values)
	if err != nil {
		glog.Errorf("Failed to save to the video cache: %v. The bids will not be cached.", err)
		return
	}
	if len(ids) != len(batch) {
		glog.Errorf("The number of returned cache ids doesn't match the number of bids: %d vs %d. The bids will not be cached.",
			len(ids), len(batch))
		return
	}

	for i, record := range batch {
		// An empty uuid is a per-item miss: that bid stays uncached but its
		// callback still fires so sibling bids are not held up.
		if ids[i].UUID != "" {
			record.BidResponse.VideoCacheKey = ids[i].UUID
			record.BidResponse.VastURL = r.client.GetCacheURL(ids[i].UUID)
		}
		if record.AfterBidAdded != nil {
			record.AfterBidAdded()
		}
		if record.BidResponse.Status == BidStatusRendered && record.AuctionInstance != nil {
			record.AuctionInstance.AddBidReceived(record.BidResponse)
		}
	}
}

func cacheableForBid(bid *BidResponse) Cacheable {
	return Cacheable{
		VastXML:        bid.VastXML,
		VastURL:        bid.VastURL,
		VastImpURL:     bid.VastImpURL,
		TTL:            bid.TTL,
		CustomCacheKey: bid.CustomCacheKey,
		RequestID:      bid.RequestID,
		Bidder:         bid.Bidder,
		AuctionID:      bid.AuctionID,
	}
}
