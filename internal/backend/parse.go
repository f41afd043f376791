package backend

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/crosscheck-ai/crosscheck/internal/review"
)

// maxRawOutput bounds how much unparseable model output is retained.
const maxRawOutput = 16 * 1024

// wireFinding is the finding shape backends are instructed to emit.
type wireFinding struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Line        int    `json:"line"`
	Column      int    `json:"column"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion"`
}

// wireResult is the top-level JSON object backends are instructed to emit.
type wireResult struct {
	Findings          []wireFinding `json:"findings"`
	OverallAssessment string        `json:"overallAssessment"`
	Recommendations   []string      `json:"recommendations"`
}

// ParseResult converts raw model output into an AnalysisResult. Output that
// does not parse as the expected JSON degrades to a successful result with
// no findings and the raw text retained, so one misbehaving backend never
// sinks the whole request.
func ParseResult(backendID, content string, logger *slog.Logger) *review.AnalysisResult {
	result := &review.AnalysisResult{
		ID:      uuid.NewString(),
		Backend: backendID,
		Success: true,
	}

	var wire wireResult
	if err := json.Unmarshal([]byte(stripFences(content)), &wire); err != nil {
		logger.Warn("backend output not parseable, keeping raw text",
			"backend", backendID, "error", err)
		result.RawOutput = truncate(content, maxRawOutput)
		return result
	}

	for _, wf := range wire.Findings {
		title := strings.TrimSpace(wf.Title)
		if title == "" {
			continue
		}
		result.Findings = append(result.Findings, review.Finding{
			Title:       title,
			Category:    strings.ToLower(strings.TrimSpace(wf.Category)),
			Severity:    normalizeSeverity(wf.Severity),
			Line:        wf.Line,
			Column:      wf.Column,
			Description: strings.TrimSpace(wf.Description),
			Suggestion:  strings.TrimSpace(wf.Suggestion),
		})
	}

	result.Summary = review.Summarize(result.Findings)
	result.OverallAssessment = strings.TrimSpace(wire.OverallAssessment)
	result.Recommendations = wire.Recommendations
	return result
}

// normalizeSeverity folds case and maps anything unknown to medium.
func normalizeSeverity(s string) review.Severity {
	sev := review.Severity(strings.ToLower(strings.TrimSpace(s)))
	if !sev.Valid() {
		return review.SeverityMedium
	}
	return sev
}

// stripFences removes a surrounding markdown code fence, which models add
// despite instructions to emit bare JSON.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// Drop the language tag on the opening fence line.
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
