package videocache

import (
	"net/http"

	"github.com/coocood/freecache"
	"github.com/gofrs/uuid"
	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"

	"github.com/clearbid/videocache/config"
	"github.com/clearbid/videocache/metrics"
)

const defaultLocalCacheSize = 32 * 1024 * 1024

// LocalStore keeps VAST documents in process memory so bids stay playable when
// no remote cache endpoint is configured. Entries live at most as long as the
// process; nothing is persisted.
type LocalStore struct {
	cache   *freecache.Cache
	baseURL string
	metrics metrics.Engine
}

func NewLocalStore(cfg *config.LocalCache, engine metrics.Engine) *LocalStore {
	size := cfg.MaxSizeBytes
	if size <= 0 {
		size = defaultLocalCacheSize
	}
	return &LocalStore{
		cache:   freecache.NewCache(size),
		baseURL: cfg.BaseURL,
		metrics: engine,
	}
}

// StoreLocally stores the bid's VAST document under a fresh key and points the
// bid at the local serving URL. Bids without VastXML are left untouched; there
// is no error path the caller needs to handle.
func (s *LocalStore) StoreLocally(bid *BidResponse) {
	if bid == nil || bid.VastXML == "" {
		return
	}

	key, err := uuid.NewV4()
	if err != nil {
		glog.Errorf("Error generating a local cache key: %v", err)
		s.metrics.RecordLocalCachePut(false)
		return
	}

	expireSeconds := 0
	if bid.TTL > 0 {
		expireSeconds = int(bid.TTL)
	}
	if err := s.cache.Set([]byte(key.String()), []byte(bid.VastXML), expireSeconds); err != nil {
		glog.Errorf("Error storing VAST locally: %v", err)
		s.metrics.RecordLocalCachePut(false)
		return
	}
	s.metrics.RecordLocalCachePut(true)

	bid.VideoCacheKey = key.String()
	bid.VastURL = s.baseURL + "?uuid=" + key.String()
}

// GetVast returns the stored document for a key, if it is still cached.
func (s *LocalStore) GetVast(uuid string) (string, bool) {
	vast, err := s.cache.Get([]byte(uuid))
	if err != nil {
		return "", false
	}
	return string(vast), true
}

// Handler serves locally stored creatives as XML. Mount it under the path the
// configured base URL points at.
func (s *LocalStore) Handler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		id := r.URL.Query().Get("uuid")
		if id == "" {
			http.Error(w, "Missing required parameter uuid", http.StatusBadRequest)
			return
		}
		vast, ok := s.GetVast(id)
		if !ok {
			http.Error(w, "No cached creative for uuid "+id, http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/xml")
		w.Write([]byte(vast))
	}
}
