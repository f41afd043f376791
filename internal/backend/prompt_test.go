package backend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crosscheck-ai/crosscheck/internal/review"
)

func TestBuildPrompt_SystemDemandsJSON(t *testing.T) {
	system, _ := BuildPrompt(AnalysisParams{Prompt: "review this"})
	assert.Contains(t, system, `"findings"`)
	assert.Contains(t, system, `"overallAssessment"`)
	assert.Contains(t, system, `"recommendations"`)
	assert.Contains(t, system, "critical|high|medium|low")
}

func TestBuildPrompt_UserCarriesPrompt(t *testing.T) {
	_, user := BuildPrompt(AnalysisParams{Prompt: "func main() {}"})
	assert.Contains(t, user, "func main() {}")
	assert.NotContains(t, user, "Project context:")
}

func TestBuildPrompt_ContextBlock(t *testing.T) {
	_, user := BuildPrompt(AnalysisParams{
		Prompt: "review this",
		Context: review.RequestContext{
			Language:  "go",
			Framework: "chi",
			Scope:     "internal/api",
			Focus:     []string{"security", "concurrency"},
		},
	})

	assert.Contains(t, user, "Project context:")
	assert.Contains(t, user, "- language: go")
	assert.Contains(t, user, "- framework: chi")
	assert.Contains(t, user, "- scope: internal/api")
	assert.Contains(t, user, "- focus: security, concurrency")
	assert.NotContains(t, user, "- platform:", "empty fields are skipped")
}

func TestBuildPrompt_TemplateAndPresetDirectives(t *testing.T) {
	_, user := BuildPrompt(AnalysisParams{
		Prompt:  "review this",
		Options: review.RequestOptions{Template: "security", Preset: "quick"},
	})

	assert.Contains(t, user, "Focus the review on security")
	assert.Contains(t, user, "Keep the review quick")
	// Directives come before the prompt body.
	assert.Less(t, strings.Index(user, "Focus the review"), strings.Index(user, "review this"))
}

func TestBuildPrompt_UnknownTemplateIgnored(t *testing.T) {
	_, user := BuildPrompt(AnalysisParams{
		Prompt:  "review this",
		Options: review.RequestOptions{Template: "astrology", Preset: "psychic"},
	})
	assert.Equal(t, "review this", user)
}
