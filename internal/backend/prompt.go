package backend

import (
	"fmt"
	"strings"

	"github.com/crosscheck-ai/crosscheck/internal/review"
)

// systemPrompt instructs the model to answer with the JSON shape ParseResult
// understands. Both backends share it so their outputs merge cleanly.
const systemPrompt = `You are an expert code reviewer. Analyze the code or question you are given and respond with a single JSON object, no prose outside it, using exactly this shape:

{
  "findings": [
    {
      "title": "short issue title",
      "category": "security|performance|architecture|quality|token|api_key",
      "severity": "critical|high|medium|low",
      "line": 0,
      "column": 0,
      "description": "what is wrong and why it matters",
      "suggestion": "how to fix it"
    }
  ],
  "overallAssessment": "one-paragraph summary of the code's state",
  "recommendations": ["ordered, actionable next steps"]
}

Report real issues only. Use line 0 when no specific line applies. An empty findings array is a valid answer for clean code.`

// templateDirectives narrow the review to one discipline.
var templateDirectives = map[string]string{
	"security":     "Focus the review on security: injection, authentication and authorization flaws, unsafe deserialization, secret handling, and input validation.",
	"performance":  "Focus the review on performance: algorithmic complexity, allocation pressure, unnecessary I/O, blocking calls, and cache behavior.",
	"architecture": "Focus the review on architecture: coupling, layering violations, dependency direction, error propagation, and API design.",
	"quality":      "Focus the review on code quality: readability, naming, duplication, dead code, and test coverage gaps.",
}

// presetDirectives trade depth for speed.
var presetDirectives = map[string]string{
	"quick":    "Keep the review quick: report only the most significant issues (at most five findings) and keep descriptions to one sentence.",
	"thorough": "Be exhaustive: examine every code path, flag low-severity issues too, and explain each finding fully.",
}

// BuildPrompt renders the system and user messages for one analysis call.
// The user message layers the template and preset directives, then the
// request context, then the caller's prompt.
func BuildPrompt(params AnalysisParams) (system, user string) {
	var sb strings.Builder

	if d, ok := templateDirectives[params.Options.Template]; ok {
		sb.WriteString(d)
		sb.WriteString("\n\n")
	}
	if d, ok := presetDirectives[params.Options.Preset]; ok {
		sb.WriteString(d)
		sb.WriteString("\n\n")
	}

	if ctxBlock := renderContext(params.Context); ctxBlock != "" {
		sb.WriteString("Project context:\n")
		sb.WriteString(ctxBlock)
		sb.WriteString("\n")
	}

	sb.WriteString(params.Prompt)

	return systemPrompt, sb.String()
}

// renderContext turns the request context into a compact block of
// "key: value" lines, skipping empty fields.
func renderContext(rc review.RequestContext) string {
	if rc.IsZero() {
		return ""
	}

	var sb strings.Builder
	writeLine := func(key, value string) {
		if value != "" {
			fmt.Fprintf(&sb, "- %s: %s\n", key, value)
		}
	}

	writeLine("language", rc.Language)
	writeLine("framework", rc.Framework)
	writeLine("platform", rc.Platform)
	writeLine("project type", rc.ProjectType)
	writeLine("threat model", rc.ThreatModel)
	writeLine("scope", rc.Scope)
	if len(rc.Focus) > 0 {
		writeLine("focus", strings.Join(rc.Focus, ", "))
	}
	return sb.String()
}
