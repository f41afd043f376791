// Package review defines the domain types shared by the analysis pipeline:
// requests, findings, per-backend results, and the merged consensus result.
package review

import "time"

// --- Enums ---

// Severity classifies how serious a finding is.
// The ordering is fixed and total: critical > high > medium > low.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// severityRank maps each severity to its comparison rank. Higher is more
// severe. Unknown severities rank 0, below low.
var severityRank = map[Severity]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
}

// Rank returns the comparison rank of s.
func (s Severity) Rank() int { return severityRank[s] }

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool { return severityRank[s] > 0 }

// MoreSevere reports whether s outranks other.
func (s Severity) MoreSevere(other Severity) bool { return s.Rank() > other.Rank() }

// MaxSeverity returns the more severe of a and b.
func MaxSeverity(a, b Severity) Severity {
	if b.MoreSevere(a) {
		return b
	}
	return a
}

// Severities lists the known severities from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Confidence expresses how strongly a merged finding is corroborated.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// --- Request ---

// RequestContext carries optional hints about the code under review. All
// fields are free-form; backends interpret them as prompt context.
type RequestContext struct {
	Language    string   `json:"language,omitempty" yaml:"language,omitempty"`
	Framework   string   `json:"framework,omitempty" yaml:"framework,omitempty"`
	Platform    string   `json:"platform,omitempty" yaml:"platform,omitempty"`
	ProjectType string   `json:"projectType,omitempty" yaml:"projectType,omitempty"`
	ThreatModel string   `json:"threatModel,omitempty" yaml:"threatModel,omitempty"`
	Scope       string   `json:"scope,omitempty" yaml:"scope,omitempty"`
	Focus       []string `json:"focus,omitempty" yaml:"focus,omitempty"`
}

// IsZero reports whether no context hint is set.
func (c RequestContext) IsZero() bool {
	return c.Language == "" && c.Framework == "" && c.Platform == "" &&
		c.ProjectType == "" && c.ThreatModel == "" && c.Scope == "" && len(c.Focus) == 0
}

// RequestOptions tunes how a single analysis request is executed.
// Zero values mean "use the configured default".
type RequestOptions struct {
	// SeverityFilter drops merged findings below this severity.
	SeverityFilter Severity `json:"severityFilter,omitempty"`

	// Template and Preset select the prompt shape sent to backends.
	Template string `json:"template,omitempty"`
	Preset   string `json:"preset,omitempty"`

	// AutoDetect asks backends to infer language/framework from the code
	// when the request context leaves them blank.
	AutoDetect bool `json:"autoDetect,omitempty"`

	// WarnOnMissingContext adds a normalization warning when the request
	// carries no context hints at all.
	WarnOnMissingContext bool `json:"warnOnMissingContext,omitempty"`

	// TimeoutMS bounds each backend invocation. Clamped to configured
	// min/max during normalization.
	TimeoutMS int `json:"timeoutMs,omitempty"`

	// Parallel selects the execution mode. Nil means the default (true).
	// When false, backends run sequentially in configured order.
	Parallel *bool `json:"parallel,omitempty"`

	// IncludeIndividualAnalyses attaches each backend's raw result to the
	// merged output.
	IncludeIndividualAnalyses bool `json:"includeIndividualAnalyses,omitempty"`

	// SecretScan folds local secret findings into the merged result.
	// Nil means the configured default.
	SecretScan *bool `json:"secretScan,omitempty"`

	// FileName is an optional hint used by secret-scan exclusions.
	FileName string `json:"fileName,omitempty"`
}

// ParallelEnabled resolves the execution mode, defaulting to parallel.
func (o RequestOptions) ParallelEnabled() bool {
	return o.Parallel == nil || *o.Parallel
}

// AnalysisRequest is one code-analysis job handed to the orchestrator.
type AnalysisRequest struct {
	Prompt   string         `json:"prompt"`
	Backends []string       `json:"backends,omitempty"`
	Context  RequestContext `json:"context,omitempty"`
	Options  RequestOptions `json:"options,omitempty"`
}

// --- Findings and results ---

// Finding is one reported issue with a category, severity, and optional
// source location. Sources and Confidence are filled in during aggregation;
// Match is set only by the secret scanner and is always masked.
type Finding struct {
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Severity    Severity   `json:"severity"`
	Line        int        `json:"line,omitempty"`
	Column      int        `json:"column,omitempty"`
	Description string     `json:"description,omitempty"`
	Suggestion  string     `json:"suggestion,omitempty"`
	Match       string     `json:"match,omitempty"`
	Sources     []string   `json:"sources,omitempty"`
	Confidence  Confidence `json:"confidence,omitempty"`
}

// Summary counts findings by severity.
type Summary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Total    int `json:"total"`
}

// Summarize tallies findings into a Summary.
func Summarize(findings []Finding) Summary {
	var s Summary
	for _, f := range findings {
		switch f.Severity {
		case SeverityCritical:
			s.Critical++
		case SeverityHigh:
			s.High++
		case SeverityMedium:
			s.Medium++
		case SeverityLow:
			s.Low++
		}
	}
	s.Total = len(findings)
	return s
}

// AggregateSummary extends Summary with the consensus score: the percentage
// of deduplicated findings corroborated by more than one source.
type AggregateSummary struct {
	Summary
	Consensus int `json:"consensus"`
}

// AnalysisResult is a single backend's answer to one request.
type AnalysisResult struct {
	ID                string    `json:"id"`
	Backend           string    `json:"backend"`
	Success           bool      `json:"success"`
	Findings          []Finding `json:"findings"`
	Summary           Summary   `json:"summary"`
	OverallAssessment string    `json:"overallAssessment,omitempty"`
	Recommendations   []string  `json:"recommendations,omitempty"`
	DurationMS        int64     `json:"durationMs,omitempty"`

	// RawOutput holds the backend's verbatim text when its structured
	// output could not be parsed. Empty otherwise.
	RawOutput string `json:"rawOutput,omitempty"`
}

// AggregatedResult is the merged consensus over all contributing backends.
type AggregatedResult struct {
	ID                string                    `json:"id"`
	Backends          []string                  `json:"backends"`
	Success           bool                      `json:"success"`
	Findings          []Finding                 `json:"findings"`
	Summary           AggregateSummary          `json:"summary"`
	OverallAssessment string                    `json:"overallAssessment,omitempty"`
	Recommendations   []string                  `json:"recommendations,omitempty"`
	Individual        map[string]AnalysisResult `json:"individualAnalyses,omitempty"`
	FromCache         bool                      `json:"fromCache"`
	CachedAt          time.Time                 `json:"cachedAt,omitzero"`
	DurationMS        int64                     `json:"durationMs,omitempty"`
}

// Clone returns a deep copy of r. Slice and map fields are independently
// copied so the original is safe from mutation through the copy.
func (r *AggregatedResult) Clone() *AggregatedResult {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Backends = cloneStrings(r.Backends)
	cp.Findings = cloneFindings(r.Findings)
	cp.Recommendations = cloneStrings(r.Recommendations)

	if r.Individual != nil {
		cp.Individual = make(map[string]AnalysisResult, len(r.Individual))
		for k, v := range r.Individual {
			v.Findings = cloneFindings(v.Findings)
			v.Recommendations = cloneStrings(v.Recommendations)
			cp.Individual[k] = v
		}
	}

	return &cp
}

func cloneStrings(src []string) []string {
	if src == nil {
		return nil
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}

func cloneFindings(src []Finding) []Finding {
	if src == nil {
		return nil
	}
	dst := make([]Finding, len(src))
	for i, f := range src {
		f.Sources = cloneStrings(f.Sources)
		dst[i] = f
	}
	return dst
}
