package review

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity_OrderingIsTotal(t *testing.T) {
	assert.True(t, SeverityCritical.MoreSevere(SeverityHigh))
	assert.True(t, SeverityHigh.MoreSevere(SeverityMedium))
	assert.True(t, SeverityMedium.MoreSevere(SeverityLow))
	assert.False(t, SeverityLow.MoreSevere(SeverityCritical))
	assert.False(t, SeverityHigh.MoreSevere(SeverityHigh))

	// Unknown severities rank below every known one.
	assert.True(t, SeverityLow.MoreSevere(Severity("bogus")))
}

func TestSeverity_Valid(t *testing.T) {
	for _, s := range Severities {
		assert.True(t, s.Valid(), "expected %q to be valid", s)
	}
	assert.False(t, Severity("").Valid())
	assert.False(t, Severity("severe").Valid())
}

func TestMaxSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, MaxSeverity(SeverityCritical, SeverityLow))
	assert.Equal(t, SeverityCritical, MaxSeverity(SeverityLow, SeverityCritical))
	assert.Equal(t, SeverityMedium, MaxSeverity(SeverityMedium, SeverityMedium))
}

func TestSummarize_CountsBySeverity(t *testing.T) {
	findings := []Finding{
		{Title: "a", Severity: SeverityCritical},
		{Title: "b", Severity: SeverityHigh},
		{Title: "c", Severity: SeverityHigh},
		{Title: "d", Severity: SeverityLow},
	}

	s := Summarize(findings)
	assert.Equal(t, 1, s.Critical)
	assert.Equal(t, 2, s.High)
	assert.Equal(t, 0, s.Medium)
	assert.Equal(t, 1, s.Low)
	assert.Equal(t, 4, s.Total)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, Summary{}, s)
}

func TestRequestOptions_ParallelEnabled(t *testing.T) {
	var opts RequestOptions
	assert.True(t, opts.ParallelEnabled(), "nil means default parallel")

	on := true
	opts.Parallel = &on
	assert.True(t, opts.ParallelEnabled())

	off := false
	opts.Parallel = &off
	assert.False(t, opts.ParallelEnabled())
}

func TestRequestContext_IsZero(t *testing.T) {
	require.True(t, RequestContext{}.IsZero())
	assert.False(t, RequestContext{Language: "go"}.IsZero())
	assert.False(t, RequestContext{Focus: []string{"security"}}.IsZero())
}

func TestAggregatedResult_Clone(t *testing.T) {
	orig := &AggregatedResult{
		ID:       "res-1",
		Backends: []string{"openai", "gemini"},
		Success:  true,
		Findings: []Finding{
			{Title: "SQL injection", Severity: SeverityCritical, Sources: []string{"openai"}},
		},
		Recommendations: []string{"Use parameterized queries"},
		Individual: map[string]AnalysisResult{
			"openai": {Backend: "openai", Findings: []Finding{{Title: "SQL injection"}}},
		},
	}

	cp := orig.Clone()
	require.NotSame(t, orig, cp)
	assert.Equal(t, orig, cp)

	cp.Backends[0] = "mutated"
	cp.Findings[0].Title = "mutated"
	cp.Findings[0].Sources[0] = "mutated"
	cp.Recommendations[0] = "mutated"
	ind := cp.Individual["openai"]
	ind.Findings[0].Title = "mutated"
	cp.Individual["openai"] = ind

	assert.Equal(t, "openai", orig.Backends[0])
	assert.Equal(t, "SQL injection", orig.Findings[0].Title)
	assert.Equal(t, "openai", orig.Findings[0].Sources[0])
	assert.Equal(t, "Use parameterized queries", orig.Recommendations[0])
	assert.Equal(t, "SQL injection", orig.Individual["openai"].Findings[0].Title)

	var nilResult *AggregatedResult
	assert.Nil(t, nilResult.Clone())
}
