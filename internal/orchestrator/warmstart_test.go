package orchestrator

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscheck-ai/crosscheck/internal/backend"
	"github.com/crosscheck-ai/crosscheck/internal/persist"
	"github.com/crosscheck-ai/crosscheck/internal/review"
	"github.com/crosscheck-ai/crosscheck/internal/status"
)

func TestNew_RequiresBackends(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	assert.Equal(t, review.CodeValidation, review.CodeOf(err))

	_, err = New(Options{Registry: backend.NewRegistry()})
	require.Error(t, err)
	assert.Equal(t, review.CodeValidation, review.CodeOf(err))
}

func TestExecute_PersistsTerminalStatusAndCache(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	store, err := persist.Open(filepath.Join(t.TempDir(), "crosscheck.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	a := succeedWith("openai", highFinding())
	env := newTestEnv(t, []backend.Backend{a}, func(o *Options) {
		o.Store = store
	})

	res, err := env.orch.Execute(context.Background(), review.AnalysisRequest{Prompt: "review this"})
	require.NoError(t, err)

	// Upserts run on background goroutines after Execute returns.
	assert.Eventually(t, func() bool {
		var entry status.Entry
		ok, err := store.Lookup(persist.BucketStatus, res.ID, &entry)
		return err == nil && ok && entry.State == status.StateCompleted
	}, time.Second, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		n, err := store.Len(persist.BucketCache)
		return err == nil && n == 1
	}, time.Second, 5*time.Millisecond)
}

func TestExecute_PersistsFailedStatus(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	store, err := persist.Open(filepath.Join(t.TempDir(), "crosscheck.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	a := failWith("openai", assert.AnError)
	env := newTestEnv(t, []backend.Backend{a}, func(o *Options) {
		o.Store = store
	})

	_, err = env.orch.Execute(context.Background(), review.AnalysisRequest{Prompt: "review this"})
	require.Error(t, err)

	assert.Eventually(t, func() bool {
		var found bool
		_ = store.LoadBucket(persist.BucketStatus, func(key string, value []byte) error {
			found = true
			return nil
		})
		return found
	}, time.Second, 5*time.Millisecond)
}

func TestWarmStart_RestoresCacheAndStatus(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	path := filepath.Join(t.TempDir(), "crosscheck.db")

	store, err := persist.Open(path, logger)
	require.NoError(t, err)

	a := succeedWith("openai", highFinding())
	env := newTestEnv(t, []backend.Backend{a}, func(o *Options) {
		o.Store = store
	})

	req := review.AnalysisRequest{Prompt: "review func buildQuery()"}
	res, err := env.orch.Execute(context.Background(), req)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		n, err := store.Len(persist.BucketCache)
		if err != nil || n != 1 {
			return false
		}
		m, err := store.Len(persist.BucketStatus)
		return err == nil && m == 1
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, store.Close())

	// A fresh process over the same file resumes where the last one left off.
	store2, err := persist.Open(path, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store2.Close() })

	b := succeedWith("openai", highFinding())
	env2 := newTestEnv(t, []backend.Backend{b}, func(o *Options) {
		o.Store = store2
	})
	WarmStart(store2, env2.cache, env2.tracker, logger)

	got, err := env2.orch.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, got.FromCache)
	assert.Equal(t, int64(0), b.calls.Load(), "warmed cache absorbs the request")

	entry, err := env2.orch.GetStatus(res.ID)
	require.NoError(t, err)
	assert.Equal(t, status.StateCompleted, entry.State)
}

func TestWarmStart_NilStoreIsNoop(t *testing.T) {
	env := newTestEnv(t, []backend.Backend{succeedWith("openai")}, nil)
	WarmStart(nil, env.cache, env.tracker, slog.New(slog.DiscardHandler))
	assert.Equal(t, 0, env.tracker.Len())
}
