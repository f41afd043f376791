// Package status tracks the lifecycle of asynchronous analysis requests.
// Entries move pending -> running -> completed|failed; terminal entries
// carry an expiry and are removed by a periodic sweep.
package status

import (
	"log/slog"
	"sync"
	"time"

	"github.com/crosscheck-ai/crosscheck/internal/clock"
	"github.com/crosscheck-ai/crosscheck/internal/review"
)

// State represents the lifecycle state of an analysis request.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// IsTerminal returns true if the state is a final state.
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateFailed
}

// valid reports whether s is one of the known lifecycle states.
func (s State) valid() bool {
	switch s {
	case StatePending, StateRunning, StateCompleted, StateFailed:
		return true
	}
	return false
}

// canTransition reports whether moving from s to next is a legal forward
// step. Terminal states admit no further transitions.
func (s State) canTransition(next State) bool {
	switch s {
	case StatePending:
		return next == StateRunning || next == StateCompleted || next == StateFailed
	case StateRunning:
		return next == StateCompleted || next == StateFailed
	}
	return false
}

// Failure captures why an analysis ended in the failed state.
type Failure struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Entry is the tracked record for one analysis request.
type Entry struct {
	ID        string                   `json:"id"`
	State     State                    `json:"state"`
	Backend   string                   `json:"backend"`
	StartTime time.Time                `json:"startTime"`
	EndTime   time.Time                `json:"endTime,omitzero"`
	Result    *review.AggregatedResult `json:"result,omitempty"`
	Error     *Failure                 `json:"error,omitempty"`
	ExpiresAt time.Time                `json:"expiresAt,omitzero"`
}

const (
	// DefaultTTL is how long a terminal entry remains readable before the
	// sweep removes it.
	DefaultTTL = time.Hour

	// DefaultSweepInterval is how often the background sweep runs.
	DefaultSweepInterval = 5 * time.Minute
)

// Options configures a Tracker. Zero values select the defaults above.
type Options struct {
	TTL           time.Duration
	SweepInterval time.Duration
	Clock         clock.Clock
	Logger        *slog.Logger
}

// Tracker is a concurrency-safe in-memory store for analysis lifecycle
// entries. It owns a background goroutine that sweeps expired terminal
// entries; callers must Close the tracker to stop it.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]*Entry

	ttl    time.Duration
	clock  clock.Clock
	logger *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// NewTracker returns a tracker with its sweep goroutine already running.
func NewTracker(opts Options) *Tracker {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.System{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	t := &Tracker{
		entries: make(map[string]*Entry),
		ttl:     opts.TTL,
		clock:   opts.Clock,
		logger:  opts.Logger,
		done:    make(chan struct{}),
	}
	go t.sweepLoop(opts.SweepInterval)
	return t
}

// Close stops the sweep goroutine. Safe to call more than once.
func (t *Tracker) Close() {
	t.closeOnce.Do(func() { close(t.done) })
}

// Create registers a new pending entry. It returns an error if an entry
// with the same ID already exists.
func (t *Tracker) Create(id, backend string) (*Entry, error) {
	if id == "" {
		return nil, review.NewValidationError("status entry id must not be empty")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[id]; exists {
		return nil, review.NewValidationError("status entry %q already exists", id)
	}

	e := &Entry{
		ID:        id,
		State:     StatePending,
		Backend:   backend,
		StartTime: t.clock.Now(),
	}
	t.entries[id] = e
	return copyEntry(e), nil
}

// UpdateStatus advances the entry to next. Transitions are forward-only;
// an illegal transition returns an error and leaves the entry untouched.
// Moving into a terminal state stamps EndTime and ExpiresAt.
func (t *Tracker) UpdateStatus(id string, next State) error {
	if !next.valid() {
		return review.NewValidationError("unknown status state %q", next)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return review.NewNotFoundError(id)
	}
	if !e.State.canTransition(next) {
		return review.NewValidationError("illegal status transition %s -> %s for %q", e.State, next, id)
	}

	e.State = next
	if next.IsTerminal() {
		t.stampTerminalLocked(e)
	}
	return nil
}

// SetResult stores the merged result and marks the entry completed. The
// write is one-time: a second result, or a result on a failed entry, is
// rejected.
func (t *Tracker) SetResult(id string, result *review.AggregatedResult) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return review.NewNotFoundError(id)
	}
	if e.Result != nil {
		return review.NewValidationError("status entry %q already has a result", id)
	}
	if e.State == StateFailed {
		return review.NewValidationError("status entry %q already failed", id)
	}

	if e.State != StateCompleted {
		e.State = StateCompleted
		t.stampTerminalLocked(e)
	}
	e.Result = result.Clone()
	return nil
}

// SetError records the failure and marks the entry failed. Like SetResult
// the write is one-time and rejected on an already-completed entry.
func (t *Tracker) SetError(id, code, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return review.NewNotFoundError(id)
	}
	if e.Error != nil {
		return review.NewValidationError("status entry %q already has an error", id)
	}
	if e.State == StateCompleted {
		return review.NewValidationError("status entry %q already completed", id)
	}

	if e.State != StateFailed {
		e.State = StateFailed
		t.stampTerminalLocked(e)
	}
	e.Error = &Failure{Code: code, Message: message}
	return nil
}

// Get returns a deep copy of the entry with the given ID. Entries past
// their expiry read as not found even if the sweep has not yet removed
// them.
func (t *Tracker) Get(id string) (*Entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, ok := t.entries[id]
	if !ok {
		return nil, review.NewNotFoundError(id)
	}
	if t.expiredLocked(e) {
		return nil, review.NewNotFoundError(id)
	}
	return copyEntry(e), nil
}

// Delete removes the entry with the given ID.
func (t *Tracker) Delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.entries[id]; !ok {
		return review.NewNotFoundError(id)
	}
	delete(t.entries, id)
	return nil
}

// Len returns the number of tracked entries, expired ones included.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Entries returns deep copies of all tracked entries, for persistence
// snapshots. Order is unspecified.
func (t *Tracker) Entries() []Entry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, *copyEntry(e))
	}
	return out
}

// Load restores an entry from a persistence snapshot. Expired entries and
// IDs already present are skipped.
func (t *Tracker) Load(e Entry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e.ID == "" || t.expiredLocked(&e) {
		return false
	}
	if _, exists := t.entries[e.ID]; exists {
		return false
	}
	t.entries[e.ID] = copyEntry(&e)
	return true
}

// Sweep removes all expired entries and returns how many were removed.
// The background goroutine calls this on every tick; tests may call it
// directly.
func (t *Tracker) Sweep() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for id, e := range t.entries {
		if t.expiredLocked(e) {
			delete(t.entries, id)
			removed++
		}
	}
	if removed > 0 {
		t.logger.Debug("swept expired status entries", "removed", removed, "remaining", len(t.entries))
	}
	return removed
}

func (t *Tracker) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.Sweep()
		case <-t.done:
			return
		}
	}
}

// stampTerminalLocked records the end time and expiry on an entry that
// just entered a terminal state. Caller holds the write lock.
func (t *Tracker) stampTerminalLocked(e *Entry) {
	now := t.clock.Now()
	e.EndTime = now
	e.ExpiresAt = now.Add(t.ttl)
}

// expiredLocked reports whether e is past its expiry. Entries without an
// expiry (non-terminal) never expire. Caller holds at least a read lock.
func (t *Tracker) expiredLocked(e *Entry) bool {
	return !e.ExpiresAt.IsZero() && !t.clock.Now().Before(e.ExpiresAt)
}

// copyEntry returns a deep copy of src so callers cannot mutate stored
// state through the returned pointer.
func copyEntry(src *Entry) *Entry {
	dst := *src
	dst.Result = src.Result.Clone()
	if src.Error != nil {
		errCopy := *src.Error
		dst.Error = &errCopy
	}
	return &dst
}
