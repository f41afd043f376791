package orchestrator

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/crosscheck-ai/crosscheck/internal/cache"
	"github.com/crosscheck-ai/crosscheck/internal/persist"
	"github.com/crosscheck-ai/crosscheck/internal/status"
)

// WarmStart reloads unexpired cache and status records from the store into
// the in-memory stores. It runs once at startup, before the process serves
// requests; afterwards the in-memory stores are authoritative and the store
// only receives background upserts.
func WarmStart(store *persist.Store, c *cache.Cache, tracker *status.Tracker, logger *slog.Logger) {
	if store == nil {
		return
	}

	cacheLoaded := 0
	err := store.LoadBucket(persist.BucketCache, func(key string, value []byte) error {
		var e cache.Entry
		if err := json.Unmarshal(value, &e); err != nil {
			return fmt.Errorf("decode cache record: %w", err)
		}
		if c.Load(e) {
			cacheLoaded++
		}
		return nil
	})
	if err != nil {
		logger.Warn("cache warm start failed", "error", err)
	}

	statusLoaded := 0
	err = store.LoadBucket(persist.BucketStatus, func(key string, value []byte) error {
		var e status.Entry
		if err := json.Unmarshal(value, &e); err != nil {
			return fmt.Errorf("decode status record: %w", err)
		}
		if tracker.Load(e) {
			statusLoaded++
		}
		return nil
	})
	if err != nil {
		logger.Warn("status warm start failed", "error", err)
	}

	logger.Info("warm start complete", "cacheEntries", cacheLoaded, "statusEntries", statusLoaded)
}
