package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/crosscheck-ai/crosscheck/internal/aggregate"
	"github.com/crosscheck-ai/crosscheck/internal/backend"
	"github.com/crosscheck-ai/crosscheck/internal/cache"
	"github.com/crosscheck-ai/crosscheck/internal/review"
	"github.com/crosscheck-ai/crosscheck/internal/status"
)

// outcome is one backend's tagged result: exactly one of result or err is
// set. Failures stay local until every backend has reported.
type outcome struct {
	backend string
	result  *review.AnalysisResult
	err     error
}

// Execute answers one analysis request. It fails with a ValidationError
// before any work is queued, serves cache hits without touching a backend,
// and fails with an UpstreamError only when every backend failed. Every
// admitted request ends with its status entry terminal.
func (o *Orchestrator) Execute(ctx context.Context, req review.AnalysisRequest) (*review.AggregatedResult, error) {
	start := o.clock.Now()

	warnings, err := review.Normalize(&req, o.limits)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		o.logger.Warn("request corrected during normalization", "detail", w)
	}

	backends, err := o.registry.Resolve(req.Backends)
	if err != nil {
		return nil, err
	}
	// Canonicalize the backend set before keying so the default (empty) set
	// and an explicit list of every backend hash identically.
	req.Backends = backendIDs(backends)

	// Resolve option defaults before keying so an explicit value and the
	// configured default hash identically.
	secretScan := o.secretScan
	if req.Options.SecretScan != nil {
		secretScan = *req.Options.SecretScan
	}
	req.Options.SecretScan = &secretScan

	key := cache.Key(req)
	if data, ok := o.cache.Get(key); ok {
		var cached review.AggregatedResult
		if err := json.Unmarshal(data, &cached); err != nil {
			o.logger.Warn("ignoring unreadable cache entry",
				"error", review.NewCacheError("get", err))
		} else {
			cached.FromCache = true
			o.logger.Debug("served from cache", "id", cached.ID, "key", key)
			return &cached, nil
		}
	}

	id := uuid.NewString()
	tag := backendTag(backends)
	if _, err := o.tracker.Create(id, tag); err != nil {
		return nil, err
	}
	if err := o.tracker.UpdateStatus(id, status.StateRunning); err != nil {
		return nil, err
	}

	params := backend.AnalysisParams{
		Prompt:  req.Prompt,
		Context: req.Context,
		Options: req.Options,
	}
	timeout := req.Options.Timeout(o.limits)

	var outcomes []outcome
	if req.Options.ParallelEnabled() {
		outcomes = o.runParallel(ctx, backends, params, timeout)
	} else {
		outcomes = o.runSequential(ctx, backends, params, timeout)
	}

	successes := make([]review.AnalysisResult, 0, len(outcomes)+1)
	var failures []error
	for _, oc := range outcomes {
		if oc.err != nil {
			berr := review.NewBackendError(oc.backend, oc.err)
			failures = append(failures, berr)
			o.logger.Warn("backend failed, continuing with the rest",
				"id", id, "backend", oc.backend, "error", oc.err)
			continue
		}
		successes = append(successes, *oc.result)
	}

	if len(successes) == 0 {
		upErr := review.NewUpstreamError(failures...)
		if terr := o.tracker.SetError(id, review.CodeUpstream, upErr.Error()); terr != nil {
			o.logger.Error("failed to record upstream failure", "id", id, "error", terr)
		}
		o.persistStatus(id)
		return nil, upErr
	}

	// Secret findings join as a synthetic contributor after the all-failed
	// check; the scanner never rescues an otherwise failed request.
	if secretScan {
		if scanFound := o.scanner.Scan(req.Prompt, req.Options.FileName); len(scanFound) > 0 {
			successes = append(successes, review.AnalysisResult{
				ID:       uuid.NewString(),
				Backend:  ScannerBackendID,
				Success:  true,
				Findings: scanFound,
				Summary:  review.Summarize(scanFound),
			})
		}
	}

	merged := aggregate.Merge(successes, aggregate.Options{
		SeverityFilter:    req.Options.SeverityFilter,
		IncludeIndividual: req.Options.IncludeIndividualAnalyses,
	})
	merged.ID = id
	merged.DurationMS = o.clock.Now().Sub(start).Milliseconds()

	if err := o.tracker.SetResult(id, &merged); err != nil {
		o.logger.Error("failed to record result", "id", id, "error", err)
	}

	o.storeResult(key, tag, &merged)
	o.persistStatus(id)

	o.logger.Info("analysis completed",
		"id", id,
		"backends", merged.Backends,
		"findings", merged.Summary.Total,
		"consensus", merged.Summary.Consensus,
		"failures", len(failures),
		"durationMs", merged.DurationMS)

	return &merged, nil
}

// runParallel dispatches every backend at once and waits for all of them.
// One failure never cancels the others.
func (o *Orchestrator) runParallel(ctx context.Context, backends []backend.Backend, params backend.AnalysisParams, timeout time.Duration) []outcome {
	outcomes := make([]outcome, len(backends))
	var wg sync.WaitGroup

	for i, b := range backends {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := o.callBackend(ctx, b, params, timeout)
			outcomes[i] = outcome{backend: b.ID(), result: res, err: err}
		}()
	}
	wg.Wait()
	return outcomes
}

// runSequential awaits each backend fully before submitting the next, in
// registry order, for strict ordering under quota-sensitive conditions.
func (o *Orchestrator) runSequential(ctx context.Context, backends []backend.Backend, params backend.AnalysisParams, timeout time.Duration) []outcome {
	outcomes := make([]outcome, 0, len(backends))
	for _, b := range backends {
		res, err := o.callBackend(ctx, b, params, timeout)
		outcomes = append(outcomes, outcome{backend: b.ID(), result: res, err: err})
	}
	return outcomes
}

// callBackend runs one analysis call through the backend's queue under the
// per-request timeout. The timeout covers queue admission and the call
// itself. A panicking backend is converted into an error outcome.
func (o *Orchestrator) callBackend(ctx context.Context, b backend.Backend, params backend.AnalysisParams, timeout time.Duration) (result *review.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("backend panic: %v", r)
		}
	}()

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	queue, ok := o.queues[b.ID()]
	if !ok {
		return nil, fmt.Errorf("no queue for backend %q", b.ID())
	}

	err = queue.Do(callCtx, func(ctx context.Context) error {
		res, callErr := b.Analyze(ctx, params)
		if callErr != nil {
			return callErr
		}
		if res == nil {
			return errors.New("backend returned no result")
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// storeResult writes the merged result through to the cache and persists
// the new entry. Cache trouble is advisory and never fails the request.
func (o *Orchestrator) storeResult(key, tag string, merged *review.AggregatedResult) {
	toStore := merged.Clone()
	toStore.CachedAt = o.clock.Now()

	data, err := json.Marshal(toStore)
	if err != nil {
		o.logger.Warn("cache write skipped", "error", review.NewCacheError("set", err))
		return
	}
	o.cache.Set(key, tag, data, o.cacheTTL)
	o.persistCache(key)
}

func backendIDs(backends []backend.Backend) []string {
	ids := make([]string, len(backends))
	for i, b := range backends {
		ids[i] = b.ID()
	}
	return ids
}

// backendTag names the backend set for status entries and cache tags,
// e.g. "openai+gemini".
func backendTag(backends []backend.Backend) string {
	return strings.Join(backendIDs(backends), "+")
}
