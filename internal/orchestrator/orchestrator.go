// Package orchestrator coordinates one analysis request end to end:
// normalization, cache lookup, per-backend dispatch through bounded queues,
// secret-scan fold-in, merge, status tracking, and write-through caching.
package orchestrator

import (
	"log/slog"
	"time"

	"github.com/crosscheck-ai/crosscheck/internal/backend"
	"github.com/crosscheck-ai/crosscheck/internal/cache"
	"github.com/crosscheck-ai/crosscheck/internal/clock"
	"github.com/crosscheck-ai/crosscheck/internal/persist"
	"github.com/crosscheck-ai/crosscheck/internal/review"
	"github.com/crosscheck-ai/crosscheck/internal/secrets"
	"github.com/crosscheck-ai/crosscheck/internal/status"
)

// ScannerBackendID tags secret-scan findings when they are folded into the
// merge as a synthetic contributor.
const ScannerBackendID = "secret-scanner"

// DefaultCacheTTL is how long aggregated results stay servable from cache.
const DefaultCacheTTL = time.Hour

// Options wires an Orchestrator. Registry is required; every other
// collaborator gets a default when nil. Store may stay nil to run without
// persistence.
type Options struct {
	Registry *backend.Registry
	Queues   map[string]*backend.Queue
	Cache    *cache.Cache
	Tracker  *status.Tracker
	Scanner  *secrets.Scanner
	Store    *persist.Store

	Limits   review.Limits
	CacheTTL time.Duration

	// SecretScan is the default for requests that leave Options.SecretScan
	// unset.
	SecretScan bool

	Clock  clock.Clock
	Logger *slog.Logger
}

// Orchestrator is the process-scoped coordinator. Construct one in main and
// share it across handlers; all mutable state lives in the injected cache
// and tracker behind their own locks.
type Orchestrator struct {
	registry *backend.Registry
	queues   map[string]*backend.Queue
	cache    *cache.Cache
	tracker  *status.Tracker
	scanner  *secrets.Scanner
	store    *persist.Store

	limits     review.Limits
	cacheTTL   time.Duration
	secretScan bool

	clock  clock.Clock
	logger *slog.Logger
}

// New returns an Orchestrator ready to serve requests.
func New(opts Options) (*Orchestrator, error) {
	if opts.Registry == nil || len(opts.Registry.IDs()) == 0 {
		return nil, review.NewValidationError("orchestrator requires at least one backend")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Cache == nil {
		opts.Cache = cache.New(cache.Options{Clock: opts.Clock, Logger: opts.Logger})
	}
	if opts.Tracker == nil {
		opts.Tracker = status.NewTracker(status.Options{Clock: opts.Clock, Logger: opts.Logger})
	}
	if opts.Scanner == nil {
		opts.Scanner = secrets.New(secrets.Config{}, opts.Logger)
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}

	queues := make(map[string]*backend.Queue, len(opts.Registry.IDs()))
	for _, id := range opts.Registry.IDs() {
		if q, ok := opts.Queues[id]; ok && q != nil {
			queues[id] = q
			continue
		}
		queues[id] = backend.NewQueue(backend.QueueConfig{})
	}

	return &Orchestrator{
		registry:   opts.Registry,
		queues:     queues,
		cache:      opts.Cache,
		tracker:    opts.Tracker,
		scanner:    opts.Scanner,
		store:      opts.Store,
		limits:     opts.Limits,
		cacheTTL:   opts.CacheTTL,
		secretScan: opts.SecretScan,
		clock:      opts.Clock,
		logger:     opts.Logger,
	}, nil
}

// GetStatus returns the lifecycle entry for a previously admitted request.
func (o *Orchestrator) GetStatus(id string) (*status.Entry, error) {
	return o.tracker.Get(id)
}

// ScanSecrets runs the secret scanner on its own, outside any analysis.
func (o *Orchestrator) ScanSecrets(code, fileName string) []review.Finding {
	return o.scanner.Scan(code, fileName)
}

// CacheStats exposes cache counters for diagnostics.
func (o *Orchestrator) CacheStats() cache.Stats {
	return o.cache.Stats()
}

// persistStatus snapshots the tracked entry and upserts it in the
// background. Failures are logged, never surfaced.
func (o *Orchestrator) persistStatus(id string) {
	if o.store == nil {
		return
	}
	entry, err := o.tracker.Get(id)
	if err != nil {
		return
	}
	go func() {
		if err := o.store.Upsert(persist.BucketStatus, id, entry); err != nil {
			o.logger.Debug("status persist skipped", "id", id, "error", err)
		}
	}()
}

// persistCache snapshots the cache entry under key and upserts it in the
// background. Failures are logged, never surfaced.
func (o *Orchestrator) persistCache(key string) {
	if o.store == nil {
		return
	}
	entry, ok := o.cache.Peek(key)
	if !ok {
		return
	}
	go func() {
		if err := o.store.Upsert(persist.BucketCache, key, entry); err != nil {
			o.logger.Debug("cache persist skipped", "key", key, "error", err)
		}
	}()
}
