package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosscheck-ai/crosscheck/internal/review"
)

func TestKey_Deterministic(t *testing.T) {
	req := review.AnalysisRequest{
		Prompt:   "review this function",
		Backends: []string{"openai", "gemini"},
		Context:  review.RequestContext{Language: "go"},
	}

	k1 := Key(req)
	k2 := Key(req)
	require.Equal(t, k1, k2)
	assert.Len(t, k1, 64, "sha-256 hex digest")
}

func TestKey_BackendOrderIrrelevant(t *testing.T) {
	a := review.AnalysisRequest{Prompt: "p", Backends: []string{"openai", "gemini"}}
	b := review.AnalysisRequest{Prompt: "p", Backends: []string{"gemini", "openai"}}

	assert.Equal(t, Key(a), Key(b))
}

func TestKey_PayloadFieldsChangeKey(t *testing.T) {
	base := review.AnalysisRequest{Prompt: "p", Backends: []string{"openai"}}

	prompt := base
	prompt.Prompt = "different"
	assert.NotEqual(t, Key(base), Key(prompt))

	lang := base
	lang.Context.Language = "rust"
	assert.NotEqual(t, Key(base), Key(lang))

	filter := base
	filter.Options.SeverityFilter = review.SeverityHigh
	assert.NotEqual(t, Key(base), Key(filter))

	tmpl := base
	tmpl.Options.Template = "security"
	assert.NotEqual(t, Key(base), Key(tmpl))

	scan := base
	on := true
	scan.Options.SecretScan = &on
	assert.NotEqual(t, Key(base), Key(scan))
}

func TestKey_SchedulingOptionsIgnored(t *testing.T) {
	base := review.AnalysisRequest{Prompt: "p", Backends: []string{"openai"}}

	timeout := base
	timeout.Options.TimeoutMS = 60_000

	seq := base
	off := false
	seq.Options.Parallel = &off

	warn := base
	warn.Options.WarnOnMissingContext = true

	assert.Equal(t, Key(base), Key(timeout))
	assert.Equal(t, Key(base), Key(seq))
	assert.Equal(t, Key(base), Key(warn))
}
