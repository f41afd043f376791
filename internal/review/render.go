package review

import (
	"fmt"
	"strings"
	"time"
)

// RenderText formats an AggregatedResult as a human-readable report. The
// output is never empty for a result produced from a valid request.
func RenderText(res *AggregatedResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Code analysis %s\n", res.ID)
	fmt.Fprintf(&b, "Backends: %s\n", strings.Join(res.Backends, ", "))

	if res.Summary.Total == 0 {
		b.WriteString("\nNo issues found.\n")
	} else {
		fmt.Fprintf(&b, "\n%d finding(s) — critical: %d, high: %d, medium: %d, low: %d\n",
			res.Summary.Total, res.Summary.Critical, res.Summary.High,
			res.Summary.Medium, res.Summary.Low)

		for _, sev := range Severities {
			section := findingsWithSeverity(res.Findings, sev)
			if len(section) == 0 {
				continue
			}
			fmt.Fprintf(&b, "\n%s\n", strings.ToUpper(string(sev)))
			for _, f := range section {
				b.WriteString(renderFinding(f))
			}
		}
	}

	fmt.Fprintf(&b, "\nConsensus: %d%%\n", res.Summary.Consensus)

	if res.OverallAssessment != "" {
		fmt.Fprintf(&b, "\nAssessment: %s\n", res.OverallAssessment)
	}

	if len(res.Recommendations) > 0 {
		b.WriteString("\nRecommendations:\n")
		for _, r := range res.Recommendations {
			fmt.Fprintf(&b, "  - %s\n", r)
		}
	}

	var meta []string
	if res.DurationMS > 0 {
		meta = append(meta, fmt.Sprintf("completed in %v", time.Duration(res.DurationMS)*time.Millisecond))
	}
	if res.FromCache {
		meta = append(meta, "served from cache")
	}
	if len(meta) > 0 {
		fmt.Fprintf(&b, "\n(%s)\n", strings.Join(meta, ", "))
	}

	return b.String()
}

func renderFinding(f Finding) string {
	var b strings.Builder

	loc := ""
	if f.Line > 0 {
		loc = fmt.Sprintf(" (line %d", f.Line)
		if f.Column > 0 {
			loc += fmt.Sprintf(", col %d", f.Column)
		}
		loc += ")"
	}
	fmt.Fprintf(&b, "  [%s] %s%s\n", f.Category, f.Title, loc)

	if f.Description != "" {
		fmt.Fprintf(&b, "      %s\n", f.Description)
	}
	if f.Match != "" {
		fmt.Fprintf(&b, "      match: %s\n", f.Match)
	}
	if f.Suggestion != "" {
		fmt.Fprintf(&b, "      suggestion: %s\n", f.Suggestion)
	}
	if len(f.Sources) > 0 {
		fmt.Fprintf(&b, "      sources: %s (confidence %s)\n", strings.Join(f.Sources, ", "), f.Confidence)
	}

	return b.String()
}

func findingsWithSeverity(findings []Finding, sev Severity) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Severity == sev {
			out = append(out, f)
		}
	}
	return out
}
