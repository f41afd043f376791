// Package aggregate merges per-backend analysis results into one consensus
// result. Merge is pure: no I/O, and identical input yields identical output.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/crosscheck-ai/crosscheck/internal/review"
)

// DefaultSimilarityThreshold is the normalized title-similarity score at or
// above which two findings with equal category and line collapse into one.
const DefaultSimilarityThreshold = 0.85

// Options tunes a single merge.
type Options struct {
	// SeverityFilter drops merged findings below this severity when set.
	SeverityFilter review.Severity

	// IncludeIndividual attaches each backend's raw result keyed by
	// backend id.
	IncludeIndividual bool

	// SimilarityThreshold overrides DefaultSimilarityThreshold when > 0.
	SimilarityThreshold float64
}

// group accumulates all findings that collapsed into one issue.
type group struct {
	title    string // normalized title of the first-seen finding
	category string // normalized category
	line     int
	rep      review.Finding // first-seen representative
	sources  []string       // contributing backend ids, first-seen order
}

// Merge deduplicates findings across results and derives the consensus
// score. Results with Success=false are skipped; callers decide separately
// whether enough backends succeeded. The caller fills in ID, duration, and
// cache metadata on the returned value.
func Merge(results []review.AnalysisResult, opts Options) review.AggregatedResult {
	threshold := opts.SimilarityThreshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	var (
		backends []string
		groups   []*group
	)

	for _, res := range results {
		if !res.Success {
			continue
		}
		backends = append(backends, res.Backend)

		for _, f := range res.Findings {
			title := normalize(f.Title)
			category := normalize(f.Category)

			g := match(groups, title, category, f.Line, threshold)
			if g == nil {
				g = &group{title: title, category: category, line: f.Line, rep: f}
				groups = append(groups, g)
			}
			g.join(res.Backend, f)
		}
	}

	findings := make([]review.Finding, 0, len(groups))
	for _, g := range groups {
		findings = append(findings, g.finding())
	}
	sortFindings(findings)

	if opts.SeverityFilter.Valid() {
		kept := findings[:0]
		for _, f := range findings {
			if f.Severity.Rank() >= opts.SeverityFilter.Rank() {
				kept = append(kept, f)
			}
		}
		findings = kept
	}

	corroborated := 0
	for _, f := range findings {
		if len(f.Sources) > 1 {
			corroborated++
		}
	}
	consensus := 100
	if len(findings) > 0 {
		consensus = int(float64(corroborated)/float64(len(findings))*100 + 0.5)
	}

	agg := review.AggregatedResult{
		Backends: backends,
		Success:  true,
		Findings: findings,
		Summary: review.AggregateSummary{
			Summary:   review.Summarize(findings),
			Consensus: consensus,
		},
		OverallAssessment: synthesizeAssessment(results, findings),
		Recommendations:   mergeRecommendations(results),
	}

	if opts.IncludeIndividual {
		agg.Individual = make(map[string]review.AnalysisResult, len(results))
		for _, res := range results {
			if res.Success {
				agg.Individual[res.Backend] = res
			}
		}
	}

	return agg
}

// match returns the first group the finding collapses into, or nil. Groups
// are scanned in creation order so assignment is deterministic.
func match(groups []*group, title, category string, line int, threshold float64) *group {
	for _, g := range groups {
		if g.category != category || g.line != line {
			continue
		}
		if g.title == title || similarity(g.title, title) >= threshold {
			return g
		}
	}
	return nil
}

// join folds one backend's finding into the group: the source set grows and
// severity escalates to the most severe reported. Representative text fields
// stay first-seen, except empty ones which later contributors may fill.
func (g *group) join(backend string, f review.Finding) {
	found := false
	for _, s := range g.sources {
		if s == backend {
			found = true
			break
		}
	}
	if !found {
		g.sources = append(g.sources, backend)
	}

	g.rep.Severity = review.MaxSeverity(g.rep.Severity, f.Severity)
	if g.rep.Description == "" {
		g.rep.Description = f.Description
	}
	if g.rep.Suggestion == "" {
		g.rep.Suggestion = f.Suggestion
	}
}

// finding materializes the merged finding with sources and confidence.
func (g *group) finding() review.Finding {
	f := g.rep
	f.Sources = g.sources
	f.Confidence = confidence(g.sources, f.Severity)
	return f
}

// confidence is high for corroborated findings; single-source findings fall
// back to the reporting backend's severity.
func confidence(sources []string, sev review.Severity) review.Confidence {
	if len(sources) > 1 {
		return review.ConfidenceHigh
	}
	if sev == review.SeverityCritical || sev == review.SeverityHigh {
		return review.ConfidenceMedium
	}
	return review.ConfidenceLow
}

// sortFindings orders output by severity rank, then line, then title, so the
// merged result is stable regardless of map iteration anywhere upstream.
func sortFindings(findings []review.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Title < b.Title
	})
}

// synthesizeAssessment builds a deterministic summary from per-backend
// assessments in input order.
func synthesizeAssessment(results []review.AnalysisResult, findings []review.Finding) string {
	var parts []string

	ok := 0
	for _, res := range results {
		if res.Success {
			ok++
		}
	}

	switch {
	case len(findings) == 0:
		parts = append(parts, fmt.Sprintf("%d backend(s) reported no issues.", ok))
	default:
		parts = append(parts, fmt.Sprintf("%d backend(s) reported %d distinct finding(s); most severe: %s.",
			ok, len(findings), findings[0].Severity))
	}

	for _, res := range results {
		if res.Success && res.OverallAssessment != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", res.Backend, res.OverallAssessment))
		}
	}

	return strings.Join(parts, " ")
}

// mergeRecommendations unions recommendations across backends,
// case-insensitively deduplicated, first-seen order preserved.
func mergeRecommendations(results []review.AnalysisResult) []string {
	var out []string
	seen := make(map[string]bool)

	for _, res := range results {
		if !res.Success {
			continue
		}
		for _, rec := range res.Recommendations {
			rec = strings.TrimSpace(rec)
			if rec == "" {
				continue
			}
			key := strings.ToLower(rec)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, rec)
		}
	}

	return out
}

// normalize folds case and collapses runs of whitespace.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// similarity is 1 minus the normalized Levenshtein distance between a and b.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
