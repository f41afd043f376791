package review

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_EmptyPromptRejected(t *testing.T) {
	req := &AnalysisRequest{Prompt: "   \n\t  "}

	_, err := Normalize(req, Limits{})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeValidation, CodeOf(err))
}

func TestNormalize_OversizedPromptRejected(t *testing.T) {
	req := &AnalysisRequest{Prompt: strings.Repeat("x", 101)}

	_, err := Normalize(req, Limits{MaxPromptBytes: 100})
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "100 bytes")
}

func TestNormalize_BackendsLowercasedAndDeduplicated(t *testing.T) {
	req := &AnalysisRequest{
		Prompt:   "review this",
		Backends: []string{" OpenAI ", "gemini", "openai", ""},
	}

	warnings, err := Normalize(req, Limits{})
	require.NoError(t, err)

	assert.Equal(t, []string{"openai", "gemini"}, req.Backends)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "duplicate backend")
}

func TestNormalize_UnknownSeverityFilterIgnored(t *testing.T) {
	req := &AnalysisRequest{
		Prompt:  "review this",
		Options: RequestOptions{SeverityFilter: "Severe"},
	}

	warnings, err := Normalize(req, Limits{})
	require.NoError(t, err)

	assert.Empty(t, req.Options.SeverityFilter)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "severity filter")
}

func TestNormalize_SeverityFilterCaseFolded(t *testing.T) {
	req := &AnalysisRequest{
		Prompt:  "review this",
		Options: RequestOptions{SeverityFilter: "HIGH"},
	}

	warnings, err := Normalize(req, Limits{})
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, req.Options.SeverityFilter)
	assert.Empty(t, warnings, "case folding is not a correction")
}

func TestNormalize_UnknownTemplateAndPresetDropped(t *testing.T) {
	req := &AnalysisRequest{
		Prompt:  "review this",
		Options: RequestOptions{Template: "Astrology", Preset: "psychic"},
	}

	warnings, err := Normalize(req, Limits{})
	require.NoError(t, err)

	assert.Empty(t, req.Options.Template)
	assert.Empty(t, req.Options.Preset)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "template")
	assert.Contains(t, warnings[1], "preset")
}

func TestNormalize_KnownTemplateAndPresetKept(t *testing.T) {
	req := &AnalysisRequest{
		Prompt:  "review this",
		Options: RequestOptions{Template: "SECURITY", Preset: " quick "},
	}

	warnings, err := Normalize(req, Limits{})
	require.NoError(t, err)
	assert.Equal(t, "security", req.Options.Template)
	assert.Equal(t, "quick", req.Options.Preset)
	assert.Empty(t, warnings)
}

func TestNormalize_TimeoutClamping(t *testing.T) {
	tests := []struct {
		name      string
		timeoutMS int
		wantMS    int
		wantWarn  bool
	}{
		{"below minimum", 100, 5000, true},
		{"above maximum", 100_000_000, 600_000, true},
		{"within bounds", 30_000, 30_000, false},
		{"negative replaced", -5, 0, true},
		{"zero means default", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &AnalysisRequest{
				Prompt:  "review this",
				Options: RequestOptions{TimeoutMS: tt.timeoutMS},
			}

			warnings, err := Normalize(req, Limits{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantMS, req.Options.TimeoutMS)
			if tt.wantWarn {
				assert.NotEmpty(t, warnings)
			} else {
				assert.Empty(t, warnings)
			}
		})
	}
}

func TestNormalize_MissingContextWarning(t *testing.T) {
	req := &AnalysisRequest{
		Prompt:  "review this",
		Options: RequestOptions{WarnOnMissingContext: true},
	}

	warnings, err := Normalize(req, Limits{})
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "no context")

	// AutoDetect suppresses the warning.
	req2 := &AnalysisRequest{
		Prompt:  "review this",
		Options: RequestOptions{WarnOnMissingContext: true, AutoDetect: true},
	}
	warnings2, err := Normalize(req2, Limits{})
	require.NoError(t, err)
	assert.Empty(t, warnings2)
}

func TestNormalize_ContextFieldsTrimmedAndFolded(t *testing.T) {
	req := &AnalysisRequest{
		Prompt: "review this",
		Context: RequestContext{
			Language:  " Go ",
			Framework: "Gin",
			Focus:     []string{" security ", "", "performance"},
		},
	}

	_, err := Normalize(req, Limits{})
	require.NoError(t, err)
	assert.Equal(t, "go", req.Context.Language)
	assert.Equal(t, "gin", req.Context.Framework)
	assert.Equal(t, []string{"security", "performance"}, req.Context.Focus)
}

func TestRequestOptions_Timeout(t *testing.T) {
	limits := DefaultLimits()

	assert.Equal(t, limits.DefaultTimeout, RequestOptions{}.Timeout(limits))
	assert.Equal(t, limits.DefaultTimeout, RequestOptions{TimeoutMS: 0}.Timeout(limits))

	opts := RequestOptions{TimeoutMS: 30_000}
	assert.Equal(t, "30s", opts.Timeout(limits).String())
}
